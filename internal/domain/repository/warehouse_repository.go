package repository

import "github.com/almacen-io/almacen-api/internal/domain/entity"

// WarehouseRepository define el puerto de persistencia para bodegas.
type WarehouseRepository interface {
	Create(warehouse *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	List() ([]*entity.Warehouse, error)
}

// LocationRepository define el puerto para ubicaciones de almacenamiento.
type LocationRepository interface {
	Create(location *entity.StockLocation) error
	GetByID(id string) (*entity.StockLocation, error)
	ListByWarehouse(warehouseID string) ([]*entity.StockLocation, error)
	List() ([]*entity.StockLocation, error)
}
