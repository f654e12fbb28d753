package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el balance actual de un producto en una ubicación.
// Si el par nunca fue tocado devuelve cantidad cero (creación perezosa).
func (r *StockRepo) Get(productID, locationID string) (*entity.StockBalance, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_balances WHERE product_id = $1 AND location_id = $2`
	var b entity.StockBalance
	err := r.q.QueryRow(context.Background(), query, productID, locationID).Scan(
		&b.ProductID, &b.LocationID, &b.Quantity, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}

// GetForUpdate obtiene el balance y bloquea la fila (SELECT FOR UPDATE).
// La espera está acotada por el lock_timeout de la transacción.
//
// FOR UPDATE no puede bloquear una fila que no existe, así que un par nunca
// tocado se materializa primero en cero (ON CONFLICT DO NOTHING absorbe la
// carrera con otro posteo que materialice el mismo par) y se reintenta el
// SELECT, que ahora sí toma el lock.
func (r *StockRepo) GetForUpdate(productID, locationID string) (*entity.StockBalance, error) {
	ctx := context.Background()
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_balances WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`
	var b entity.StockBalance
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(
		&b.ProductID, &b.LocationID, &b.Quantity, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		insert := `
			INSERT INTO stock_balances (product_id, location_id, quantity, updated_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (product_id, location_id) DO NOTHING`
		if _, err := r.q.Exec(ctx, insert, productID, locationID); err != nil {
			return nil, fmt.Errorf("materializar balance: %w", err)
		}
		err = r.q.QueryRow(ctx, query, productID, locationID).Scan(
			&b.ProductID, &b.LocationID, &b.Quantity, &b.UpdatedAt,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get balance for update: %w", err)
	}
	return &b, nil
}

// Upsert inserta o actualiza la cantidad del balance (por producto y ubicación).
// La tabla lleva CHECK (quantity >= 0) como última línea de defensa.
func (r *StockRepo) Upsert(balance *entity.StockBalance) error {
	query := `
		INSERT INTO stock_balances (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, balance.ProductID, balance.LocationID, balance.Quantity)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// SumByProduct suma el balance del producto en todas las ubicaciones.
func (r *StockRepo) SumByProduct(productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_balances WHERE product_id = $1`,
		productID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum by product: %w", err)
	}
	return total, nil
}

// ListByProduct devuelve los balances del producto por ubicación.
func (r *StockRepo) ListByProduct(productID string) ([]*entity.StockBalance, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_balances WHERE product_id = $1 ORDER BY location_id`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockBalance
	for rows.Next() {
		var b entity.StockBalance
		if err := rows.Scan(&b.ProductID, &b.LocationID, &b.Quantity, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// TotalQuantity suma todo el stock registrado.
func (r *StockRepo) TotalQuantity() (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_balances`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total quantity: %w", err)
	}
	return total, nil
}

// ListBelowReorder devuelve los productos cuyo stock agregado está por debajo
// de su umbral de reposición. Productos sin balances cuentan como cero.
func (r *StockRepo) ListBelowReorder() ([]repository.LowStockRow, error) {
	query := `
		SELECT p.id, p.sku, p.name, COALESCE(SUM(b.quantity), 0) AS balance, p.reorder_level
		FROM products p
		LEFT JOIN stock_balances b ON b.product_id = p.id
		GROUP BY p.id, p.sku, p.name, p.reorder_level
		HAVING COALESCE(SUM(b.quantity), 0) < p.reorder_level
		ORDER BY p.sku`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list below reorder: %w", err)
	}
	defer rows.Close()
	var list []repository.LowStockRow
	for rows.Next() {
		var row repository.LowStockRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.Balance, &row.ReorderLevel); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
