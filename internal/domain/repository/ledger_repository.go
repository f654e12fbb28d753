package repository

import (
	"time"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// LedgerFilter filtros para consultar el historial del ledger.
type LedgerFilter struct {
	ProductID string
	Kind      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// LedgerRepository define el puerto del libro de movimientos. El puerto es
// deliberadamente append-only: no existen métodos de actualización ni borrado.
type LedgerRepository interface {
	// Create persiste un asiento y asigna su ID secuencial.
	Create(entry *entity.LedgerEntry) error
	// ExistsByRef indica si ya hay asientos para un documento (idempotencia).
	ExistsByRef(refID string) (bool, error)
	// List devuelve asientos ordenados por created_at e id ascendente.
	List(filter LedgerFilter) ([]*entity.LedgerEntry, error)
}
