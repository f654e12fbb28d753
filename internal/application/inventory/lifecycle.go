package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// DocumentUseCase administra el ciclo de vida de los documentos de movimiento:
// creación con validación de líneas, edición de líneas en draft/waiting y la
// máquina de estados. La transición a done es la única con efectos: invoca al
// motor de posteo dentro de la misma transacción que el cambio de estado, de
// modo que si el posteo falla el documento conserva su estado anterior.
type DocumentUseCase struct {
	txRunner     TxRunner
	docRepo      repository.DocumentRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	engine       *PostingEngine
}

// NewDocumentUseCase construye el caso de uso. docRepo se usa para lecturas
// fuera de transacción; las escrituras pasan por txRunner.
func NewDocumentUseCase(
	txRunner TxRunner,
	docRepo repository.DocumentRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	engine *PostingEngine,
) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner:     txRunner,
		docRepo:      docRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		engine:       engine,
	}
}

// ItemInput línea de entrada para crear o editar un documento.
type ItemInput struct {
	ProductID    string
	LocationID   string
	ToLocationID string
	Quantity     decimal.Decimal
}

// DocumentInput entrada para crear un documento de movimiento.
// Counterparty es proveedor (receipt) o cliente (delivery); Reason aplica a
// adjustment.
type DocumentInput struct {
	Kind         string
	Counterparty string
	Reason       string
	CreatedBy    string
	Items        []ItemInput
}

// Create valida la forma del documento y lo persiste en estado draft.
func (uc *DocumentUseCase) Create(ctx context.Context, input DocumentInput) (*entity.MovementDocument, error) {
	items := toEntityItems(input.Items)
	if err := entity.ValidateItems(input.Kind, items); err != nil {
		return nil, err
	}
	if entity.RequiresCounterparty(input.Kind) && input.Counterparty == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkReferences(input.Kind, items); err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &entity.MovementDocument{
		ID:           uuid.New().String(),
		Kind:         input.Kind,
		Status:       entity.StatusDraft,
		Counterparty: input.Counterparty,
		Reason:       input.Reason,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].DocumentID = doc.ID
	}
	doc.Items = items

	err := uc.txRunner.Run(ctx, func(
		docRepo repository.DocumentRepository,
		_ repository.StockRepository,
		_ repository.LedgerRepository,
	) error {
		return docRepo.Create(doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Transition aplica la transición de estado solicitada. Bloquea la fila del
// documento para serializar transiciones concurrentes sobre el mismo ID; al
// entrar a done postea las líneas en la misma transacción. Cancelar nunca
// toca balances ni ledger.
func (uc *DocumentUseCase) Transition(ctx context.Context, documentID, target string) (*entity.MovementDocument, error) {
	status, err := entity.ParseStatus(target)
	if err != nil {
		return nil, err
	}

	var doc *entity.MovementDocument
	err = uc.txRunner.Run(ctx, func(
		docRepo repository.DocumentRepository,
		stockRepo repository.StockRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		doc, err = docRepo.GetForUpdate(documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if !doc.Status.CanTransition(status) {
			return &domain.InvalidTransitionError{From: string(doc.Status), To: string(status)}
		}
		if status == entity.StatusDone {
			if _, err := uc.engine.Post(doc, stockRepo, ledgerRepo); err != nil {
				return err
			}
		}
		if err := docRepo.UpdateStatus(documentID, status); err != nil {
			return err
		}
		doc.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateItems reemplaza las líneas del documento. Solo permitido mientras el
// documento está en draft o waiting.
func (uc *DocumentUseCase) UpdateItems(ctx context.Context, documentID string, inputs []ItemInput) (*entity.MovementDocument, error) {
	var doc *entity.MovementDocument
	err := uc.txRunner.Run(ctx, func(
		docRepo repository.DocumentRepository,
		_ repository.StockRepository,
		_ repository.LedgerRepository,
	) error {
		var err error
		doc, err = docRepo.GetForUpdate(documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.Status != entity.StatusDraft && doc.Status != entity.StatusWaiting {
			return domain.ErrConflict
		}
		items := toEntityItems(inputs)
		if err := entity.ValidateItems(doc.Kind, items); err != nil {
			return err
		}
		if err := uc.checkReferences(doc.Kind, items); err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.New().String()
			items[i].DocumentID = doc.ID
		}
		if err := docRepo.ReplaceItems(documentID, items); err != nil {
			return err
		}
		doc.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Get obtiene un documento con sus líneas.
func (uc *DocumentUseCase) Get(documentID string) (*entity.MovementDocument, error) {
	doc, err := uc.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// List lista documentos filtrando por tipo y/o estado.
func (uc *DocumentUseCase) List(kind, status string, limit, offset int) ([]*entity.MovementDocument, error) {
	if kind != "" && !entity.ValidKind(kind) {
		return nil, domain.ErrInvalidInput
	}
	if status != "" {
		if _, err := entity.ParseStatus(status); err != nil {
			return nil, err
		}
	}
	return uc.docRepo.List(kind, status, limit, offset)
}

// checkReferences verifica que productos y ubicaciones de las líneas existan.
func (uc *DocumentUseCase) checkReferences(kind string, items []entity.MovementItem) error {
	for _, it := range items {
		product, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		loc, err := uc.locationRepo.GetByID(it.LocationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.ErrNotFound
		}
		if kind == entity.DocumentKindTransfer {
			dest, err := uc.locationRepo.GetByID(it.ToLocationID)
			if err != nil {
				return err
			}
			if dest == nil {
				return domain.ErrNotFound
			}
		}
	}
	return nil
}

func toEntityItems(inputs []ItemInput) []entity.MovementItem {
	items := make([]entity.MovementItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, entity.MovementItem{
			ProductID:    in.ProductID,
			LocationID:   in.LocationID,
			ToLocationID: in.ToLocationID,
			Quantity:     in.Quantity,
		})
	}
	return items
}
