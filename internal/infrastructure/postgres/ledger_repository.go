package postgres

import (
	"context"
	"fmt"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación append-only del ledger sobre PostgreSQL.
// No hay UPDATE ni DELETE: los asientos son inmutables.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Create persiste un asiento; el ID secuencial lo asigna la BD (BIGSERIAL).
func (r *LedgerRepo) Create(entry *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger (kind, ref_id, product_id, from_location_id, to_location_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		entry.Kind, entry.RefID, entry.ProductID,
		nullable(entry.FromLocationID), nullable(entry.ToLocationID),
		entry.Quantity, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// ExistsByRef indica si el documento ya tiene asientos (chequeo de idempotencia).
func (r *LedgerRepo) ExistsByRef(refID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM ledger WHERE ref_id = $1)`, refID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by ref: %w", err)
	}
	return exists, nil
}

// List devuelve asientos filtrados, ordenados por created_at e id ascendente.
func (r *LedgerRepo) List(filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT id, kind, ref_id, product_id, from_location_id, to_location_id, quantity, created_at
		FROM ledger WHERE 1=1`
	var args []any
	pos := 1
	if filter.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, filter.ProductID)
		pos++
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, filter.Kind)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		var from, to *string
		if err := rows.Scan(&e.ID, &e.Kind, &e.RefID, &e.ProductID, &from, &to, &e.Quantity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if from != nil {
			e.FromLocationID = *from
		}
		if to != nil {
			e.ToLocationID = *to
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// nullable convierte string vacío en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
