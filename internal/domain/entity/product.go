package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del inventario.
// ReorderLevel es el umbral de reposición: si el stock agregado en todas las
// ubicaciones cae por debajo, el producto aparece en el listado de stock bajo.
type Product struct {
	ID           string
	SKU          string // código único
	Name         string
	Category     string
	UnitMeasure  string          // default "pcs"
	ReorderLevel decimal.Decimal // umbral no negativo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
