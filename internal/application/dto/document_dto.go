package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentItemRequest línea para crear/editar un documento.
// location_id: destino en receipt, origen en delivery/transfer, ubicación
// contada en adjustment. to_location_id solo en transfer.
type DocumentItemRequest struct {
	ProductID    string          `json:"product_id"`
	LocationID   string          `json:"location_id"`
	ToLocationID string          `json:"to_location_id,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// CreateDocumentRequest body para POST /api/documents.
type CreateDocumentRequest struct {
	Kind         string                `json:"kind"`
	Counterparty string                `json:"counterparty,omitempty"` // proveedor o cliente
	Reason       string                `json:"reason,omitempty"`       // motivo del ajuste
	Items        []DocumentItemRequest `json:"items"`
}

// UpdateItemsRequest body para PUT /api/documents/:id/items.
type UpdateItemsRequest struct {
	Items []DocumentItemRequest `json:"items"`
}

// TransitionRequest body para POST /api/documents/:id/transition.
type TransitionRequest struct {
	Status string `json:"status"`
}

// DocumentItemResponse línea de documento en respuestas.
type DocumentItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	LocationID   string          `json:"location_id"`
	ToLocationID string          `json:"to_location_id,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// DocumentResponse documento de movimiento en respuestas.
type DocumentResponse struct {
	ID           string                 `json:"id"`
	Kind         string                 `json:"kind"`
	Status       string                 `json:"status"`
	Counterparty string                 `json:"counterparty,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	CreatedBy    string                 `json:"created_by,omitempty"`
	Items        []DocumentItemResponse `json:"items"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
