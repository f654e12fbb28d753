package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación sobre PostgreSQL para documentos de movimiento
// y sus líneas (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create persiste el documento y sus líneas.
func (r *DocumentRepo) Create(doc *entity.MovementDocument) error {
	query := `
		INSERT INTO movement_documents (id, kind, status, counterparty, reason, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	createdBy := nullable(doc.CreatedBy)
	_, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.Kind, string(doc.Status), doc.Counterparty, doc.Reason,
		createdBy, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return r.insertItems(doc.ID, doc.Items)
}

// GetByID obtiene el documento con sus líneas; nil si no existe.
func (r *DocumentRepo) GetByID(id string) (*entity.MovementDocument, error) {
	return r.get(id, false)
}

// GetForUpdate obtiene el documento con líneas y bloquea la fila del documento
// (SELECT FOR UPDATE), serializando transiciones concurrentes sobre el mismo ID.
func (r *DocumentRepo) GetForUpdate(id string) (*entity.MovementDocument, error) {
	return r.get(id, true)
}

func (r *DocumentRepo) get(id string, forUpdate bool) (*entity.MovementDocument, error) {
	query := `
		SELECT id, kind, status, counterparty, reason, created_by, created_at, updated_at
		FROM movement_documents WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var d entity.MovementDocument
	var status string
	var createdBy *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&d.ID, &d.Kind, &status, &d.Counterparty, &d.Reason, &createdBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	d.Status = entity.DocumentStatus(status)
	if createdBy != nil {
		d.CreatedBy = *createdBy
	}
	items, err := r.listItems(id)
	if err != nil {
		return nil, err
	}
	d.Items = items
	return &d, nil
}

// UpdateStatus cambia el estado del documento.
func (r *DocumentRepo) UpdateStatus(id string, status entity.DocumentStatus) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE movement_documents SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update document status: documento %s no existe", id)
	}
	return nil
}

// ReplaceItems reemplaza las líneas del documento.
func (r *DocumentRepo) ReplaceItems(id string, items []entity.MovementItem) error {
	if _, err := r.q.Exec(context.Background(),
		`DELETE FROM movement_items WHERE document_id = $1`, id,
	); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if err := r.insertItems(id, items); err != nil {
		return err
	}
	if _, err := r.q.Exec(context.Background(),
		`UPDATE movement_documents SET updated_at = now() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	return nil
}

// List lista documentos filtrando por tipo y/o estado (vacío = sin filtro).
// Las líneas se cargan por documento (listados cortos, paginados).
func (r *DocumentRepo) List(kind, status string, limit, offset int) ([]*entity.MovementDocument, error) {
	query := `
		SELECT id, kind, status, counterparty, reason, created_by, created_at, updated_at
		FROM movement_documents WHERE 1=1`
	var args []any
	pos := 1
	if kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, kind)
		pos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovementDocument
	for rows.Next() {
		var d entity.MovementDocument
		var status string
		var createdBy *string
		if err := rows.Scan(&d.ID, &d.Kind, &status, &d.Counterparty, &d.Reason, &createdBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Status = entity.DocumentStatus(status)
		if createdBy != nil {
			d.CreatedBy = *createdBy
		}
		list = append(list, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, d := range list {
		items, err := r.listItems(d.ID)
		if err != nil {
			return nil, err
		}
		d.Items = items
	}
	return list, nil
}

// CountByKindAndStatus cuenta documentos por tipo y estado.
func (r *DocumentRepo) CountByKindAndStatus(kind string, status entity.DocumentStatus) (int, error) {
	var count int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM movement_documents WHERE kind = $1 AND status = $2`,
		kind, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func (r *DocumentRepo) insertItems(documentID string, items []entity.MovementItem) error {
	query := `
		INSERT INTO movement_items (id, document_id, product_id, location_id, to_location_id, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, it := range items {
		_, err := r.q.Exec(context.Background(), query,
			it.ID, documentID, it.ProductID, it.LocationID, nullable(it.ToLocationID), it.Quantity, i,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	return nil
}

// listItems carga las líneas en el orden original del documento.
func (r *DocumentRepo) listItems(documentID string) ([]entity.MovementItem, error) {
	query := `
		SELECT id, document_id, product_id, location_id, to_location_id, quantity
		FROM movement_items WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(context.Background(), query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var items []entity.MovementItem
	for rows.Next() {
		var it entity.MovementItem
		var toLoc *string
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.ProductID, &it.LocationID, &toLoc, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if toLoc != nil {
			it.ToLocationID = *toLoc
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
