package usecase

import (
	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// DashboardUseCase agrega los KPIs del panel: totales de productos y stock,
// documentos pendientes y productos bajo punto de reorden. Solo lecturas.
type DashboardUseCase struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	docRepo     repository.DocumentRepository
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	docRepo repository.DocumentRepository,
) *DashboardUseCase {
	return &DashboardUseCase{productRepo: productRepo, stockRepo: stockRepo, docRepo: docRepo}
}

// GetKPIs calcula los indicadores del dashboard.
func (uc *DashboardUseCase) GetKPIs() (*dto.KPIResponse, error) {
	totalProducts, err := uc.productRepo.Count()
	if err != nil {
		return nil, err
	}
	totalStock, err := uc.stockRepo.TotalQuantity()
	if err != nil {
		return nil, err
	}
	pendingReceipts, err := uc.docRepo.CountByKindAndStatus(entity.DocumentKindReceipt, entity.StatusWaiting)
	if err != nil {
		return nil, err
	}
	pendingDeliveries, err := uc.docRepo.CountByKindAndStatus(entity.DocumentKindDelivery, entity.StatusWaiting)
	if err != nil {
		return nil, err
	}
	lowStock, err := uc.stockRepo.ListBelowReorder()
	if err != nil {
		return nil, err
	}

	low := make([]dto.LowStockResponse, 0, len(lowStock))
	for _, row := range lowStock {
		low = append(low, dto.LowStockResponse{
			ProductID:    row.ProductID,
			SKU:          row.SKU,
			Name:         row.Name,
			Balance:      row.Balance,
			ReorderLevel: row.ReorderLevel,
		})
	}
	return &dto.KPIResponse{
		TotalProducts:     totalProducts,
		TotalStock:        totalStock,
		PendingReceipts:   pendingReceipts,
		PendingDeliveries: pendingDeliveries,
		LowStockProducts:  low,
	}, nil
}
