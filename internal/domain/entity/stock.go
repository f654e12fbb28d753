package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance stock actual de un producto en una ubicación.
// Invariante: Quantity >= 0 siempre, y igual a la suma de los deltas del
// ledger que tocan el par (ProductID, LocationID). Se crea perezosamente con
// el primer asiento y nunca se borra (puede quedar en cero).
type StockBalance struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}
