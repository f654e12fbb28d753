package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/domain"
)

// StockHandler maneja las consultas de stock: balances, punto de reorden e
// historial del ledger.
type StockHandler struct {
	uc *inventory.StockQueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockQueryUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetBalance godoc
// @Summary      Balance de un producto en una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true  "UUID del producto"
// @Param        location_id  query  string  true  "UUID de la ubicación"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/balance [get]
func (h *StockHandler) GetBalance(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	locationID := c.Query("location_id")
	qty, err := h.uc.GetBalance(productID, locationID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y location_id son requeridos"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.BalanceResponse{ProductID: productID, LocationID: locationID, Quantity: qty})
}

// ProductStock godoc
// @Summary      Balances de un producto por ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "UUID del producto"
// @Success      200  {array}   dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *StockHandler) ProductStock(c *fiber.Ctx) error {
	balances, err := h.uc.ProductStock(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.BalanceResponse{ProductID: b.ProductID, LocationID: b.LocationID, Quantity: b.Quantity})
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Productos bajo su punto de reorden
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockResponse
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	rows, err := h.uc.LowStock()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.LowStockResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.LowStockResponse{
			ProductID:    row.ProductID,
			SKU:          row.SKU,
			Name:         row.Name,
			Balance:      row.Balance,
			ReorderLevel: row.ReorderLevel,
		})
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de asientos del ledger
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        kind        query  string  false  "receipt | delivery | transfer | adjustment"
// @Param        from        query  string  false  "RFC3339, inclusive"
// @Param        to          query  string  false  "RFC3339, exclusivo"
// @Param        limit       query  int     false  "por defecto 100, máximo 500"
// @Param        offset      query  int     false  "por defecto 0"
// @Success      200  {array}   dto.LedgerEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	filter := inventory.HistoryFilter{
		ProductID: c.Query("product_id"),
		Kind:      c.Query("kind"),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
		}
		filter.To = &t
	}
	entries, err := h.uc.History(filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "kind inválido"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryResponse{
			ID:             e.ID,
			Kind:           e.Kind,
			RefID:          e.RefID,
			ProductID:      e.ProductID,
			FromLocationID: e.FromLocationID,
			ToLocationID:   e.ToLocationID,
			Quantity:       e.Quantity,
			CreatedAt:      e.CreatedAt,
		})
	}
	return c.JSON(out)
}
