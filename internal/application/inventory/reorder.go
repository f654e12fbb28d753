package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// StockQueryUseCase capa de lectura: balances actuales, productos bajo punto
// de reorden e historial del ledger. Solo lecturas consistentes, sin bloqueos
// adicionales a los del storage.
type StockQueryUseCase struct {
	stockRepo   repository.StockRepository
	ledgerRepo  repository.LedgerRepository
	productRepo repository.ProductRepository
}

// NewStockQueryUseCase construye la capa de consulta.
func NewStockQueryUseCase(
	stockRepo repository.StockRepository,
	ledgerRepo repository.LedgerRepository,
	productRepo repository.ProductRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		stockRepo:   stockRepo,
		ledgerRepo:  ledgerRepo,
		productRepo: productRepo,
	}
}

// GetBalance devuelve la cantidad actual del producto en la ubicación
// (cero si el par nunca fue tocado por un asiento).
func (uc *StockQueryUseCase) GetBalance(productID, locationID string) (decimal.Decimal, error) {
	if productID == "" || locationID == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	bal, err := uc.stockRepo.Get(productID, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Quantity, nil
}

// ProductStock devuelve los balances de un producto por ubicación.
func (uc *StockQueryUseCase) ProductStock(productID string) ([]*entity.StockBalance, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return uc.stockRepo.ListByProduct(productID)
}

// LowStock devuelve los productos cuyo balance agregado en todas las
// ubicaciones está por debajo de su umbral de reposición.
func (uc *StockQueryUseCase) LowStock() ([]repository.LowStockRow, error) {
	return uc.stockRepo.ListBelowReorder()
}

// HistoryFilter filtros del historial de asientos.
type HistoryFilter struct {
	ProductID string
	Kind      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// History consulta el ledger ordenado por fecha de creación ascendente.
// Es seguro re-consultar: el ledger es append-only y el orden es estable.
func (uc *StockQueryUseCase) History(filter HistoryFilter) ([]*entity.LedgerEntry, error) {
	if filter.Kind != "" && !entity.ValidKind(filter.Kind) {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.ledgerRepo.List(repository.LedgerFilter{
		ProductID: filter.ProductID,
		Kind:      filter.Kind,
		From:      filter.From,
		To:        filter.To,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
}
