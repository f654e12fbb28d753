package dto

import "github.com/shopspring/decimal"

// KPIResponse indicadores del dashboard.
type KPIResponse struct {
	TotalProducts     int                `json:"total_products"`
	TotalStock        decimal.Decimal    `json:"total_stock"`
	PendingReceipts   int                `json:"pending_receipts"`
	PendingDeliveries int                `json:"pending_deliveries"`
	LowStockProducts  []LowStockResponse `json:"low_stock_products"`
}
