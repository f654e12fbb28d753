package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// lock_timeout acota la espera por filas bloqueadas (SELECT FOR UPDATE de
// posteos concurrentes); al vencer, el error se traduce a ErrConflict para
// que el caller reintente la transición completa.
type TxRunner struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

// NewTxRunner construye el runner con el pool. lockTimeoutMS <= 0 usa 3000.
func NewTxRunner(pool *pgxpool.Pool, lockTimeoutMS int) *TxRunner {
	if lockTimeoutMS <= 0 {
		lockTimeoutMS = 3000
	}
	return &TxRunner{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	docRepo repository.DocumentRepository,
	stockRepo repository.StockRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL no acepta parámetros; el valor viene de configuración propia.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeoutMS)); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	docRepo := NewDocumentRepository(tx)
	stockRepo := NewStockRepository(tx)
	ledgerRepo := NewLedgerRepository(tx)

	if err := fn(docRepo, stockRepo, ledgerRepo); err != nil {
		if isLockContention(err) {
			return fmt.Errorf("contención de filas de stock: %w", domain.ErrConflict)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isLockContention(err) {
			return fmt.Errorf("contención de filas de stock: %w", domain.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
