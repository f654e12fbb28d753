package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/application/usecase"
	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
)

// stubProductRepo fake mínimo de ProductRepository para el caso de uso.
type stubProductRepo struct {
	products map[string]*entity.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*entity.Product)}
}

func (r *stubProductRepo) Create(p *entity.Product) error { r.products[p.ID] = p; return nil }

func (r *stubProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *stubProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r *stubProductRepo) Update(p *entity.Product) error { r.products[p.ID] = p; return nil }

func (r *stubProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubProductRepo) Count() (int, error) { return len(r.products), nil }

func decPtr(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func seedProduct(repo *stubProductRepo) *entity.Product {
	p := &entity.Product{
		ID:           "prod-1",
		SKU:          "SKU-001",
		Name:         "Tornillo",
		Category:     "ferretería",
		UnitMeasure:  "pcs",
		ReorderLevel: decimal.NewFromInt(20),
	}
	repo.products[p.ID] = p
	return p
}

// Una actualización parcial que omite reorder_level no debe resetear el umbral.
func TestProductUpdate_OmitirReorderLevelConservaElUmbral(t *testing.T) {
	repo := newStubProductRepo()
	seedProduct(repo)
	uc := usecase.NewProductUseCase(repo, nil)

	updated, err := uc.Update("prod-1", dto.UpdateProductRequest{Name: "Tornillo M6"})
	require.NoError(t, err)

	assert.Equal(t, "Tornillo M6", updated.Name)
	assert.True(t, updated.ReorderLevel.Equal(decimal.NewFromInt(20)),
		"el umbral de reposición debe conservarse si el body no lo trae")
}

func TestProductUpdate_ReorderLevelExplicito(t *testing.T) {
	repo := newStubProductRepo()
	seedProduct(repo)
	uc := usecase.NewProductUseCase(repo, nil)

	updated, err := uc.Update("prod-1", dto.UpdateProductRequest{ReorderLevel: decPtr(5)})
	require.NoError(t, err)
	assert.True(t, updated.ReorderLevel.Equal(decimal.NewFromInt(5)))

	// Cero explícito también es un valor válido, distinto de omitirlo.
	updated, err = uc.Update("prod-1", dto.UpdateProductRequest{ReorderLevel: decPtr(0)})
	require.NoError(t, err)
	assert.True(t, updated.ReorderLevel.IsZero())
}

func TestProductUpdate_ReorderLevelNegativoRechazado(t *testing.T) {
	repo := newStubProductRepo()
	seedProduct(repo)
	uc := usecase.NewProductUseCase(repo, nil)

	_, err := uc.Update("prod-1", dto.UpdateProductRequest{ReorderLevel: decPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	kept, err := uc.GetByID("prod-1")
	require.NoError(t, err)
	assert.True(t, kept.ReorderLevel.Equal(decimal.NewFromInt(20)))
}

func TestProductUpdate_ProductoInexistente(t *testing.T) {
	uc := usecase.NewProductUseCase(newStubProductRepo(), nil)
	_, err := uc.Update("no-existe", dto.UpdateProductRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
