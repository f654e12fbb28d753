package repository

import (
	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para documentos de
// movimiento y sus líneas.
type DocumentRepository interface {
	// Create persiste el documento con sus líneas.
	Create(doc *entity.MovementDocument) error
	// GetByID obtiene el documento con líneas; nil si no existe.
	GetByID(id string) (*entity.MovementDocument, error)
	// GetForUpdate obtiene el documento con líneas y bloquea la fila del
	// documento, serializando transiciones concurrentes sobre el mismo ID.
	GetForUpdate(id string) (*entity.MovementDocument, error)
	// UpdateStatus cambia el estado del documento.
	UpdateStatus(id string, status entity.DocumentStatus) error
	// ReplaceItems reemplaza las líneas del documento (solo draft/waiting).
	ReplaceItems(id string, items []entity.MovementItem) error
	// List lista documentos por tipo y/o estado (vacío = sin filtro).
	List(kind string, status string, limit, offset int) ([]*entity.MovementDocument, error)
	// CountByKindAndStatus cuenta documentos (KPIs de dashboard).
	CountByKindAndStatus(kind string, status entity.DocumentStatus) (int, error)
}
