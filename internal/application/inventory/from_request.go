package inventory

import (
	"context"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// CreateFromRequest adapta el request HTTP al caso de uso Create(ctx, DocumentInput).
// Usar desde handlers HTTP que tengan userID y dto.CreateDocumentRequest.
func (uc *DocumentUseCase) CreateFromRequest(ctx context.Context, userID string, in dto.CreateDocumentRequest) (*entity.MovementDocument, error) {
	input := DocumentInput{
		Kind:         in.Kind,
		Counterparty: in.Counterparty,
		Reason:       in.Reason,
		CreatedBy:    userID,
		Items:        toItemInputs(in.Items),
	}
	return uc.Create(ctx, input)
}

// UpdateItemsFromRequest adapta el request HTTP a UpdateItems.
func (uc *DocumentUseCase) UpdateItemsFromRequest(ctx context.Context, documentID string, in dto.UpdateItemsRequest) (*entity.MovementDocument, error) {
	return uc.UpdateItems(ctx, documentID, toItemInputs(in.Items))
}

func toItemInputs(items []dto.DocumentItemRequest) []ItemInput {
	inputs := make([]ItemInput, 0, len(items))
	for _, it := range items {
		inputs = append(inputs, ItemInput{
			ProductID:    it.ProductID,
			LocationID:   it.LocationID,
			ToLocationID: it.ToLocationID,
			Quantity:     it.Quantity,
		})
	}
	return inputs
}
