package repository

import (
	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// LowStockRow producto cuyo stock agregado está por debajo de su umbral de reposición.
type LowStockRow struct {
	ProductID    string
	SKU          string
	Name         string
	Balance      decimal.Decimal
	ReorderLevel decimal.Decimal
}

// StockRepository define el puerto para consultar/actualizar balances de stock
// por producto+ubicación. La mutación ocurre únicamente dentro de la
// transacción del motor de posteo, vía GetForUpdate + Upsert.
type StockRepository interface {
	// Get devuelve el balance actual; cantidad cero si el par nunca fue tocado.
	Get(productID, locationID string) (*entity.StockBalance, error)
	// GetForUpdate obtiene el balance y bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(productID, locationID string) (*entity.StockBalance, error)
	Upsert(balance *entity.StockBalance) error
	// SumByProduct suma el balance del producto en todas las ubicaciones.
	SumByProduct(productID string) (decimal.Decimal, error)
	// ListByProduct devuelve los balances del producto por ubicación.
	ListByProduct(productID string) ([]*entity.StockBalance, error)
	// TotalQuantity suma todo el stock registrado (KPI de dashboard).
	TotalQuantity() (decimal.Decimal, error)
	// ListBelowReorder devuelve los productos con stock agregado < reorder_level.
	ListBelowReorder() ([]LowStockRow, error)
}
