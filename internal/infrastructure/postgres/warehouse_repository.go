package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)
var _ repository.LocationRepository = (*LocationRepo)(nil)

// WarehouseRepo implementación de WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una bodega.
func (r *WarehouseRepo) Create(warehouse *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, name, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		warehouse.ID, warehouse.Name, warehouse.Location, warehouse.CreatedAt, warehouse.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	query := `SELECT id, name, location, created_at, updated_at FROM warehouses WHERE id = $1`
	var w entity.Warehouse
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&w.ID, &w.Name, &w.Location, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// List lista todas las bodegas.
func (r *WarehouseRepo) List() ([]*entity.Warehouse, error) {
	query := `SELECT id, name, location, created_at, updated_at FROM warehouses ORDER BY name`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

// LocationRepo implementación de LocationRepository sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste una ubicación.
func (r *LocationRepo) Create(location *entity.StockLocation) error {
	query := `
		INSERT INTO stock_locations (id, warehouse_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		location.ID, location.WarehouseID, location.Name, location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(id string) (*entity.StockLocation, error) {
	query := `SELECT id, warehouse_id, name, created_at, updated_at FROM stock_locations WHERE id = $1`
	var l entity.StockLocation
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&l.ID, &l.WarehouseID, &l.Name, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ListByWarehouse lista ubicaciones de una bodega.
func (r *LocationRepo) ListByWarehouse(warehouseID string) ([]*entity.StockLocation, error) {
	return r.list(`SELECT id, warehouse_id, name, created_at, updated_at FROM stock_locations WHERE warehouse_id = $1 ORDER BY name`, warehouseID)
}

// List lista todas las ubicaciones.
func (r *LocationRepo) List() ([]*entity.StockLocation, error) {
	return r.list(`SELECT id, warehouse_id, name, created_at, updated_at FROM stock_locations ORDER BY name`)
}

func (r *LocationRepo) list(query string, args ...any) ([]*entity.StockLocation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLocation
	for rows.Next() {
		var l entity.StockLocation
		if err := rows.Scan(&l.ID, &l.WarehouseID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
