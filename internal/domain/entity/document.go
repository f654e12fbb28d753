package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain"
)

// Tipos de documento de movimiento.
const (
	DocumentKindReceipt    = "receipt"    // recepción de proveedor
	DocumentKindDelivery   = "delivery"   // entrega a cliente
	DocumentKindTransfer   = "transfer"   // traslado entre ubicaciones
	DocumentKindAdjustment = "adjustment" // ajuste por conteo físico
)

// DocumentStatus estado del ciclo de vida de un documento.
type DocumentStatus string

// Estados válidos. done y canceled son terminales.
const (
	StatusDraft    DocumentStatus = "draft"
	StatusWaiting  DocumentStatus = "waiting"
	StatusReady    DocumentStatus = "ready"
	StatusDone     DocumentStatus = "done"
	StatusCanceled DocumentStatus = "canceled"
)

// statusTransitions tabla cerrada de transiciones: avance estricto
// draft → waiting → ready → done, y cancelación desde cualquier estado
// pre-terminal. Toda transición fuera de la tabla se rechaza.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:    {StatusWaiting, StatusCanceled},
	StatusWaiting:  {StatusReady, StatusCanceled},
	StatusReady:    {StatusDone, StatusCanceled},
	StatusDone:     {},
	StatusCanceled: {},
}

// ParseStatus valida un estado recibido como string.
func ParseStatus(s string) (DocumentStatus, error) {
	st := DocumentStatus(s)
	if _, ok := statusTransitions[st]; !ok {
		return "", domain.ErrInvalidInput
	}
	return st, nil
}

// CanTransition indica si la transición s → to está en la tabla.
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal indica si el estado no admite más transiciones.
func (s DocumentStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// ValidKind valida un tipo de documento.
func ValidKind(kind string) bool {
	switch kind {
	case DocumentKindReceipt, DocumentKindDelivery, DocumentKindTransfer, DocumentKindAdjustment:
		return true
	}
	return false
}

// MovementDocument documento de movimiento de inventario (receipt, delivery,
// transfer o adjustment) con su estado y líneas.
// Counterparty es el proveedor (receipt) o cliente (delivery); Reason es el
// motivo del ajuste (adjustment).
type MovementDocument struct {
	ID           string
	Kind         string
	Status       DocumentStatus
	Counterparty string
	Reason       string
	CreatedBy    string
	Items        []MovementItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MovementItem línea de un documento de movimiento.
// LocationID es la ubicación destino (receipt), origen (delivery/transfer) o
// la ubicación contada (adjustment). ToLocationID solo aplica en transfer.
// Quantity es la cantidad movida; en adjustment es la cantidad contada que
// reemplaza el balance actual (puede ser cero, nunca negativa).
type MovementItem struct {
	ID           string
	DocumentID   string
	ProductID    string
	LocationID   string
	ToLocationID string
	Quantity     decimal.Decimal
}

// ValidateItems valida la forma de las líneas según el tipo de documento.
// Devuelve ErrInvalidInput si la lista está vacía, alguna cantidad no es
// positiva (en adjustment: negativa) o faltan ubicaciones requeridas.
func ValidateItems(kind string, items []MovementItem) error {
	if !ValidKind(kind) {
		return domain.ErrInvalidInput
	}
	if len(items) == 0 {
		return domain.ErrInvalidInput
	}
	for _, it := range items {
		if it.ProductID == "" || it.LocationID == "" {
			return domain.ErrInvalidInput
		}
		switch kind {
		case DocumentKindAdjustment:
			// La cantidad contada puede ser cero pero no negativa
			if it.Quantity.IsNegative() {
				return domain.ErrInvalidInput
			}
			if it.ToLocationID != "" {
				return domain.ErrInvalidInput
			}
		case DocumentKindTransfer:
			if !it.Quantity.GreaterThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			if it.ToLocationID == "" || it.ToLocationID == it.LocationID {
				return domain.ErrInvalidInput
			}
		default:
			if !it.Quantity.GreaterThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			if it.ToLocationID != "" {
				return domain.ErrInvalidInput
			}
		}
	}
	return nil
}

// RequiresCounterparty indica si el tipo exige proveedor o cliente.
func RequiresCounterparty(kind string) bool {
	return kind == DocumentKindReceipt || kind == DocumentKindDelivery
}
