package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceResponse balance actual de un producto en una ubicación.
type BalanceResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// LowStockResponse producto bajo su umbral de reposición.
type LowStockResponse struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Balance      decimal.Decimal `json:"balance"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// LedgerEntryResponse asiento del ledger en respuestas.
type LedgerEntryResponse struct {
	ID             int64           `json:"id"`
	Kind           string          `json:"kind"`
	RefID          string          `json:"ref_id"`
	ProductID      string          `json:"product_id"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	CreatedAt      time.Time       `json:"created_at"`
}
