package repository

import "github.com/almacen-io/almacen-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para productos.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	// Update actualiza campos no identitarios (nunca el SKU una vez referenciado).
	Update(product *entity.Product) error
	List(limit, offset int) ([]*entity.Product, error)
	Count() (int, error)
}
