package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// ProductUseCase CRUD de productos. El stock inicial no escribe la tabla de
// balances directamente: se postea como documento de ajuste para que quede
// auditado en el ledger.
type ProductUseCase struct {
	productRepo repository.ProductRepository
	documents   *inventory.DocumentUseCase
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(productRepo repository.ProductRepository, documents *inventory.DocumentUseCase) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo, documents: documents}
}

// Create valida y persiste un producto; si viene stock inicial, lo postea
// como ajuste en la ubicación indicada.
func (uc *ProductUseCase) Create(ctx context.Context, userID string, in dto.CreateProductRequest) (*entity.Product, error) {
	if in.Name == "" || in.SKU == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.ReorderLevel.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetBySKU(in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	uom := in.UnitMeasure
	if uom == "" {
		uom = "pcs"
	}
	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          in.SKU,
		Name:         in.Name,
		Category:     in.Category,
		UnitMeasure:  uom,
		ReorderLevel: in.ReorderLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}

	if in.InitialStock != nil && in.InitialStock.GreaterThan(decimal.Zero) && in.LocationID != "" {
		if err := uc.postInitialStock(ctx, userID, product.ID, in.LocationID, *in.InitialStock); err != nil {
			return nil, err
		}
	}
	return product, nil
}

// postInitialStock crea un ajuste con la cantidad contada y lo lleva hasta
// done por la cadena de estados.
func (uc *ProductUseCase) postInitialStock(ctx context.Context, userID, productID, locationID string, quantity decimal.Decimal) error {
	doc, err := uc.documents.Create(ctx, inventory.DocumentInput{
		Kind:      entity.DocumentKindAdjustment,
		Reason:    "stock inicial",
		CreatedBy: userID,
		Items: []inventory.ItemInput{
			{ProductID: productID, LocationID: locationID, Quantity: quantity},
		},
	})
	if err != nil {
		return err
	}
	for _, status := range []entity.DocumentStatus{entity.StatusWaiting, entity.StatusReady, entity.StatusDone} {
		if _, err := uc.documents.Transition(ctx, doc.ID, string(status)); err != nil {
			return err
		}
	}
	return nil
}

// Update actualiza campos no identitarios del producto.
func (uc *ProductUseCase) Update(id string, in dto.UpdateProductRequest) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != "" {
		product.Name = in.Name
	}
	if in.Category != "" {
		product.Category = in.Category
	}
	if in.UnitMeasure != "" {
		product.UnitMeasure = in.UnitMeasure
	}
	if in.ReorderLevel != nil {
		if in.ReorderLevel.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.ReorderLevel = *in.ReorderLevel
	}
	product.UpdatedAt = time.Now()
	if err := uc.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetByID obtiene un producto.
func (uc *ProductUseCase) GetByID(id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(limit, offset int) ([]*entity.Product, error) {
	return uc.productRepo.List(limit, offset)
}
