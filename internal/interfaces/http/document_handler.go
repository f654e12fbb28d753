package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// DocumentHandler maneja las peticiones HTTP de documentos de movimiento
// (creación, edición de líneas, transiciones de estado y consulta).
type DocumentHandler struct {
	uc *inventory.DocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *inventory.DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Create godoc
// @Summary      Crear documento de movimiento en draft
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "kind, counterparty, reason, items"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.CreateFromRequest(c.Context(), userID, in)
	if err != nil {
		return documentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(doc))
}

// Transition godoc
// @Summary      Transicionar el estado de un documento
// @Description  Al pasar a done se postean todas las líneas de forma atómica;
//
//	si alguna falla (stock insuficiente, contención de bloqueos) el
//	documento conserva su estado anterior.
//
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del documento"
// @Param        body  body  dto.TransitionRequest  true  "status destino"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/transition [post]
func (h *DocumentHandler) Transition(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.Transition(c.Context(), id, in.Status)
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// UpdateItems godoc
// @Summary      Reemplazar las líneas de un documento (draft/waiting)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del documento"
// @Param        body  body  dto.UpdateItemsRequest  true  "items"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/items [put]
func (h *DocumentHandler) UpdateItems(c *fiber.Ctx) error {
	id := c.Params("id")
	var in dto.UpdateItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.UpdateItemsFromRequest(c.Context(), id, in)
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// GetByID godoc
// @Summary      Obtener un documento con sus líneas
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind    query  string  false  "receipt | delivery | transfer | adjustment"
// @Param        status  query  string  false  "draft | waiting | ready | done | canceled"
// @Param        limit   query  int     false  "por defecto 20"
// @Param        offset  query  int     false  "por defecto 0"
// @Success      200  {array}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	docs, err := h.uc.List(c.Query("kind"), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return documentError(c, err)
	}
	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return c.JSON(out)
}

// documentError traduce errores de dominio a respuestas HTTP. Los errores
// tipados (stock insuficiente, transición inválida) llevan el detalle en el
// mensaje para que el cliente sepa qué línea rechazar.
func documentError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK",
			Message: fmt.Sprintf("stock insuficiente: producto %s en ubicación %s (disponible %s, solicitado %s)",
				insufficient.ProductID, insufficient.LocationID,
				insufficient.Available.String(), insufficient.Requested.String()),
		})
	}
	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("transición inválida: %s -> %s", transition.From, transition.To),
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documento, producto o ubicación no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia o documento ya posteado; reintentar"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toDocumentResponse(doc *entity.MovementDocument) dto.DocumentResponse {
	items := make([]dto.DocumentItemResponse, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, dto.DocumentItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			LocationID:   it.LocationID,
			ToLocationID: it.ToLocationID,
			Quantity:     it.Quantity,
		})
	}
	return dto.DocumentResponse{
		ID:           doc.ID,
		Kind:         doc.Kind,
		Status:       string(doc.Status),
		Counterparty: doc.Counterparty,
		Reason:       doc.Reason,
		CreatedBy:    doc.CreatedBy,
		Items:        items,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
