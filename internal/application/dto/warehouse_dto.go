package dto

import "time"

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// WarehouseResponse bodega en respuestas.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateLocationRequest body para POST /api/locations.
type CreateLocationRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Name        string `json:"name"`
}

// LocationResponse ubicación en respuestas.
type LocationResponse struct {
	ID          string    `json:"id"`
	WarehouseID string    `json:"warehouse_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}
