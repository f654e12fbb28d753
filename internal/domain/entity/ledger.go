package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry asiento inmutable del libro de movimientos (append-only).
// Quantity es el delta firmado: negativo debita FromLocationID, positivo
// acredita ToLocationID. Nunca se actualiza ni se borra después de creado.
type LedgerEntry struct {
	ID             int64  // secuencial, asignado por la BD
	Kind           string // receipt, delivery, transfer, adjustment
	RefID          string // documento que originó el asiento
	ProductID      string
	FromLocationID string // vacío = null
	ToLocationID   string // vacío = null
	Quantity       decimal.Decimal
	CreatedAt      time.Time
}
