package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// WarehouseUseCase CRUD de bodegas y ubicaciones de almacenamiento.
type WarehouseUseCase struct {
	warehouseRepo repository.WarehouseRepository
	locationRepo  repository.LocationRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(warehouseRepo repository.WarehouseRepository, locationRepo repository.LocationRepository) *WarehouseUseCase {
	return &WarehouseUseCase{warehouseRepo: warehouseRepo, locationRepo: locationRepo}
}

// CreateWarehouse valida y persiste una bodega.
func (uc *WarehouseUseCase) CreateWarehouse(in dto.CreateWarehouseRequest) (*entity.Warehouse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	wh := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Location:  in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.warehouseRepo.Create(wh); err != nil {
		return nil, err
	}
	return wh, nil
}

// ListWarehouses lista todas las bodegas.
func (uc *WarehouseUseCase) ListWarehouses() ([]*entity.Warehouse, error) {
	return uc.warehouseRepo.List()
}

// CreateLocation valida y persiste una ubicación dentro de una bodega existente.
func (uc *WarehouseUseCase) CreateLocation(in dto.CreateLocationRequest) (*entity.StockLocation, error) {
	if in.Name == "" || in.WarehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	wh, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	loc := &entity.StockLocation{
		ID:          uuid.New().String(),
		WarehouseID: in.WarehouseID,
		Name:        in.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.locationRepo.Create(loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// ListLocations lista ubicaciones, opcionalmente filtradas por bodega.
func (uc *WarehouseUseCase) ListLocations(warehouseID string) ([]*entity.StockLocation, error) {
	if warehouseID != "" {
		return uc.locationRepo.ListByWarehouse(warehouseID)
	}
	return uc.locationRepo.List()
}
