package entity

import "time"

// Warehouse representa una bodega física.
type Warehouse struct {
	ID        string
	Name      string
	Location  string // dirección o referencia geográfica
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockLocation ubicación de almacenamiento dentro de una bodega.
// Pertenece exactamente a una Warehouse.
type StockLocation struct {
	ID          string
	WarehouseID string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
