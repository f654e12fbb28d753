package inventory

import (
	"context"

	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de posteo:
// si fn devuelve error, nada de lo escrito queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		docRepo repository.DocumentRepository,
		stockRepo repository.StockRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}
