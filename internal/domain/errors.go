package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
)

// InsufficientStockError indica qué producto y ubicación rechazaron un débito.
// Se expone completo al caller para que corrija cantidades o ubicaciones;
// errors.Is contra ErrInsufficientStock sigue funcionando vía Unwrap.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s en ubicación %s (disponible %s, solicitado %s)",
		e.ProductID, e.LocationID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidTransitionError indica una transición rechazada por la máquina de estados.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de estado inválida: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
