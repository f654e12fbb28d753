package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
// Si initial_stock y location_id vienen informados, el stock inicial se postea
// como un documento de ajuste (queda auditado en el ledger).
type CreateProductRequest struct {
	Name         string           `json:"name"`
	SKU          string           `json:"sku"`
	Category     string           `json:"category,omitempty"`
	UnitMeasure  string           `json:"uom,omitempty"`
	ReorderLevel decimal.Decimal  `json:"reorder_level"`
	InitialStock *decimal.Decimal `json:"initial_stock,omitempty"`
	LocationID   string           `json:"location_id,omitempty"`
}

// UpdateProductRequest body para PUT /api/products/:id. El SKU no se modifica.
// Los campos ausentes conservan su valor actual.
type UpdateProductRequest struct {
	Name         string           `json:"name"`
	Category     string           `json:"category,omitempty"`
	UnitMeasure  string           `json:"uom,omitempty"`
	ReorderLevel *decimal.Decimal `json:"reorder_level,omitempty"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	UnitMeasure  string          `json:"uom"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
