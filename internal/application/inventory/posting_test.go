package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almacen-io/almacen-api/internal/application/inventory"
	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// newDocumentUseCase arma el caso de uso sobre los fakes en memoria.
func newDocumentUseCase(store *fakeStore) *inventory.DocumentUseCase {
	return inventory.NewDocumentUseCase(
		&fakeTxRunner{store: store},
		&fakeDocRepo{s: store},
		&fakeProductRepo{s: store},
		&fakeLocationRepo{s: store},
		inventory.NewPostingEngine(),
	)
}

// postDocument crea el documento y lo lleva por la cadena completa hasta done.
func postDocument(t *testing.T, uc *inventory.DocumentUseCase, input inventory.DocumentInput) *entity.MovementDocument {
	t.Helper()
	ctx := context.Background()
	doc, err := uc.Create(ctx, input)
	require.NoError(t, err)
	for _, status := range []string{"waiting", "ready", "done"} {
		doc, err = uc.Transition(ctx, doc.ID, status)
		require.NoError(t, err)
	}
	return doc
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func basicStore() *fakeStore {
	store := newFakeStore()
	store.addProduct("prod-1", qty(0))
	store.addProduct("prod-2", qty(0))
	store.addLocation("loc-a")
	store.addLocation("loc-b")
	return store
}

// ──────────────────────────────────────────────────────────────────────────────
// Posteo por tipo de documento
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_ReceiptAcreditaBalanceYEscribeAsiento(t *testing.T) {
	store := basicStore()
	uc := newDocumentUseCase(store)

	doc := postDocument(t, uc, inventory.DocumentInput{
		Kind:         entity.DocumentKindReceipt,
		Counterparty: "Proveedor SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(10)}},
	})

	assert.Equal(t, entity.StatusDone, doc.Status)
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(10)))

	require.Len(t, store.ledger, 1)
	entry := store.ledger[0]
	assert.Equal(t, doc.ID, entry.RefID)
	assert.Equal(t, entity.DocumentKindReceipt, entry.Kind)
	assert.Equal(t, "loc-a", entry.ToLocationID)
	assert.Empty(t, entry.FromLocationID)
	assert.True(t, entry.Quantity.Equal(qty(10)), "el asiento de crédito lleva delta positivo")
}

func TestPost_DeliveryDebitaBalance(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	uc := newDocumentUseCase(store)

	postDocument(t, uc, inventory.DocumentInput{
		Kind:         entity.DocumentKindDelivery,
		Counterparty: "Cliente SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(7)}},
	})

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(3)))
	require.Len(t, store.ledger, 1)
	assert.True(t, store.ledger[0].Quantity.Equal(qty(-7)), "el asiento de débito lleva delta negativo")
	assert.Equal(t, "loc-a", store.ledger[0].FromLocationID)
}

func TestPost_DeliverySinStockRechazaYNoEscribeNada(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(5))
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	doc, err := uc.Create(ctx, inventory.DocumentInput{
		Kind:         entity.DocumentKindDelivery,
		Counterparty: "Cliente SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(7)}},
	})
	require.NoError(t, err)
	_, err = uc.Transition(ctx, doc.ID, "waiting")
	require.NoError(t, err)
	_, err = uc.Transition(ctx, doc.ID, "ready")
	require.NoError(t, err)

	_, err = uc.Transition(ctx, doc.ID, "done")
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient, "el error debe llevar el detalle de la línea rechazada")
	assert.Equal(t, "prod-1", insufficient.ProductID)
	assert.Equal(t, "loc-a", insufficient.LocationID)
	assert.True(t, insufficient.Available.Equal(qty(5)))
	assert.True(t, insufficient.Requested.Equal(qty(7)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// El documento conserva su estado y no hay escrituras parciales.
	kept, err := uc.Get(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, kept.Status)
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(5)))
	assert.Empty(t, store.ledger)
}

func TestPost_LoteMultilinea_TodoONada(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	store.setBalance("prod-2", "loc-a", qty(1))
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	// La primera línea alcanza; la segunda no. El lote completo debe rechazarse.
	doc, err := uc.Create(ctx, inventory.DocumentInput{
		Kind:         entity.DocumentKindDelivery,
		Counterparty: "Cliente SA",
		Items: []inventory.ItemInput{
			{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(4)},
			{ProductID: "prod-2", LocationID: "loc-a", Quantity: qty(2)},
		},
	})
	require.NoError(t, err)
	for _, status := range []string{"waiting", "ready"} {
		_, err = uc.Transition(ctx, doc.ID, status)
		require.NoError(t, err)
	}
	_, err = uc.Transition(ctx, doc.ID, "done")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(10)), "la línea válida no debe aplicarse sola")
	assert.True(t, store.balance("prod-2", "loc-a").Equal(qty(1)))
	assert.Empty(t, store.ledger)
}

func TestPost_TransferMueveEntreUbicaciones(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(8))
	uc := newDocumentUseCase(store)

	doc := postDocument(t, uc, inventory.DocumentInput{
		Kind: entity.DocumentKindTransfer,
		Items: []inventory.ItemInput{
			{ProductID: "prod-1", LocationID: "loc-a", ToLocationID: "loc-b", Quantity: qty(5)},
		},
	})

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(3)))
	assert.True(t, store.balance("prod-1", "loc-b").Equal(qty(5)))

	// Dos asientos: débito en origen y crédito en destino, suma neta cero.
	require.Len(t, store.ledger, 2)
	net := store.ledger[0].Quantity.Add(store.ledger[1].Quantity)
	assert.True(t, net.IsZero(), "un transfer conserva la cantidad total")
	for _, e := range store.ledger {
		assert.Equal(t, doc.ID, e.RefID)
	}
}

func TestPost_TransferSinStockNoTocaDestino(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(2))
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	doc, err := uc.Create(ctx, inventory.DocumentInput{
		Kind: entity.DocumentKindTransfer,
		Items: []inventory.ItemInput{
			{ProductID: "prod-1", LocationID: "loc-a", ToLocationID: "loc-b", Quantity: qty(5)},
		},
	})
	require.NoError(t, err)
	for _, status := range []string{"waiting", "ready"} {
		_, err = uc.Transition(ctx, doc.ID, status)
		require.NoError(t, err)
	}
	_, err = uc.Transition(ctx, doc.ID, "done")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(2)))
	assert.True(t, store.balance("prod-1", "loc-b").IsZero())
	assert.Empty(t, store.ledger)
}

func TestPost_AdjustmentEscribeSoloElDelta(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	uc := newDocumentUseCase(store)

	// Conteo físico de 4 con balance 10: delta -6.
	postDocument(t, uc, inventory.DocumentInput{
		Kind:   entity.DocumentKindAdjustment,
		Reason: "conteo físico",
		Items:  []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(4)}},
	})

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(4)))
	require.Len(t, store.ledger, 1)
	assert.True(t, store.ledger[0].Quantity.Equal(qty(-6)), "el asiento registra el delta, no la cantidad contada")
}

func TestPost_AdjustmentSinDiferenciaNoEscribeAsiento(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	uc := newDocumentUseCase(store)

	doc := postDocument(t, uc, inventory.DocumentInput{
		Kind:   entity.DocumentKindAdjustment,
		Reason: "conteo sin novedades",
		Items:  []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(10)}},
	})

	assert.Equal(t, entity.StatusDone, doc.Status, "el documento cierra aunque no haya delta")
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(10)))
	assert.Empty(t, store.ledger, "delta cero no genera asiento")
}

func TestPost_AdjustmentSobreParNuncaTocado(t *testing.T) {
	store := basicStore()
	uc := newDocumentUseCase(store)

	// Sin balance previo el conteo es un crédito completo.
	postDocument(t, uc, inventory.DocumentInput{
		Kind:   entity.DocumentKindAdjustment,
		Reason: "stock inicial",
		Items:  []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(15)}},
	})

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(15)))
	require.Len(t, store.ledger, 1)
	assert.True(t, store.ledger[0].Quantity.Equal(qty(15)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y auditoría
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_DocumentoDoneNoSePosteaDosVeces(t *testing.T) {
	store := basicStore()
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	doc := postDocument(t, uc, inventory.DocumentInput{
		Kind:         entity.DocumentKindReceipt,
		Counterparty: "Proveedor SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(10)}},
	})

	// Reintentar la transición sobre un documento terminal se rechaza por la
	// máquina de estados y no duplica asientos.
	_, err := uc.Transition(ctx, doc.ID, "done")
	require.Error(t, err)
	var transition *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(10)))
	assert.Len(t, store.ledger, 1)
}

func TestPost_MotorRechazaRefConAsientosPrevios(t *testing.T) {
	store := basicStore()
	engine := inventory.NewPostingEngine()
	runner := &fakeTxRunner{store: store}

	doc := &entity.MovementDocument{
		ID:     "doc-repetido",
		Kind:   entity.DocumentKindReceipt,
		Status: entity.StatusReady,
		Items:  []entity.MovementItem{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(3)}},
	}

	post := func() error {
		return runner.Run(context.Background(), func(
			_ repository.DocumentRepository,
			stockRepo repository.StockRepository,
			ledgerRepo repository.LedgerRepository,
		) error {
			_, err := engine.Post(doc, stockRepo, ledgerRepo)
			return err
		})
	}

	require.NoError(t, post())
	// Segundo posteo del mismo RefID: rechazado por los asientos existentes.
	err := post()
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(3)), "el reintento no duplica el crédito")
	assert.Len(t, store.ledger, 1)
}

func TestPost_CancelarNuncaTocaBalancesNiLedger(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	doc, err := uc.Create(ctx, inventory.DocumentInput{
		Kind:         entity.DocumentKindDelivery,
		Counterparty: "Cliente SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(7)}},
	})
	require.NoError(t, err)
	_, err = uc.Transition(ctx, doc.ID, "waiting")
	require.NoError(t, err)

	canceled, err := uc.Transition(ctx, doc.ID, "canceled")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCanceled, canceled.Status)

	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(10)))
	assert.Empty(t, store.ledger)

	// canceled es terminal: no se puede revivir.
	_, err = uc.Transition(ctx, doc.ID, "done")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestPost_BalanceSiempreIgualASumaDelLedger(t *testing.T) {
	store := basicStore()
	uc := newDocumentUseCase(store)

	postDocument(t, uc, inventory.DocumentInput{
		Kind:         entity.DocumentKindReceipt,
		Counterparty: "Proveedor SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(20)}},
	})
	postDocument(t, uc, inventory.DocumentInput{
		Kind: entity.DocumentKindTransfer,
		Items: []inventory.ItemInput{
			{ProductID: "prod-1", LocationID: "loc-a", ToLocationID: "loc-b", Quantity: qty(6)},
		},
	})
	postDocument(t, uc, inventory.DocumentInput{
		Kind:         entity.DocumentKindDelivery,
		Counterparty: "Cliente SA",
		Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-b", Quantity: qty(2)}},
	})
	postDocument(t, uc, inventory.DocumentInput{
		Kind:   entity.DocumentKindAdjustment,
		Reason: "conteo físico",
		Items:  []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(11)}},
	})

	for _, loc := range []string{"loc-a", "loc-b"} {
		bal := store.balance("prod-1", loc)
		sum := store.ledgerSum("prod-1", loc)
		assert.True(t, bal.Equal(sum),
			"el balance de %s (%s) debe igualar la suma del ledger (%s)", loc, bal, sum)
	}
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(11)))
	assert.True(t, store.balance("prod-1", "loc-b").Equal(qty(4)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos deliveries de 7 compiten por un balance de 10: exactamente uno gana.
func TestPost_DeliveriesConcurrentesSobreElMismoBalance(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	prepare := func() string {
		doc, err := uc.Create(ctx, inventory.DocumentInput{
			Kind:         entity.DocumentKindDelivery,
			Counterparty: "Cliente SA",
			Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: qty(7)}},
		})
		require.NoError(t, err)
		for _, status := range []string{"waiting", "ready"} {
			_, err = uc.Transition(ctx, doc.ID, status)
			require.NoError(t, err)
		}
		return doc.ID
	}
	ids := []string{prepare(), prepare()}

	results := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, err := uc.Transition(ctx, id, "done")
			results[i] = err
		}(i, id)
	}
	wg.Wait()

	var okCount, insufficientCount int
	for _, err := range results {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficientCount++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, okCount, "exactamente un posteo debe ganar")
	assert.Equal(t, 1, insufficientCount, "el otro debe rechazarse por stock insuficiente")
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(3)))
	assert.Len(t, store.ledger, 1)
	// Auditoría: balance final = balance inicial + suma de deltas del ledger.
	expected := qty(10).Add(store.ledgerSum("prod-1", "loc-a"))
	assert.True(t, store.balance("prod-1", "loc-a").Equal(expected))
}

// Dos receipts compiten por un par que nunca tuvo fila de balance: el lock de
// fila debe existir igual (el repo real materializa el par en cero antes de
// bloquear), de modo que el segundo posteo lea el crédito del primero en vez
// de pisarlo con su cantidad absoluta.
func TestPost_ReceiptsConcurrentesSobreParNuncaTocado(t *testing.T) {
	store := basicStore()
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	prepare := func(quantity decimal.Decimal) string {
		doc, err := uc.Create(ctx, inventory.DocumentInput{
			Kind:         entity.DocumentKindReceipt,
			Counterparty: "Proveedor SA",
			Items:        []inventory.ItemInput{{ProductID: "prod-1", LocationID: "loc-a", Quantity: quantity}},
		})
		require.NoError(t, err)
		for _, status := range []string{"waiting", "ready"} {
			_, err = uc.Transition(ctx, doc.ID, status)
			require.NoError(t, err)
		}
		return doc.ID
	}
	ids := []string{prepare(qty(50)), prepare(qty(30))}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := uc.Transition(ctx, id, "done")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	require.Len(t, store.ledger, 2)
	assert.True(t, store.balance("prod-1", "loc-a").Equal(qty(80)),
		"ningún crédito se pierde: %s", store.balance("prod-1", "loc-a"))
	assert.True(t, store.balance("prod-1", "loc-a").Equal(store.ledgerSum("prod-1", "loc-a")),
		"el balance debe igualar la suma de deltas del ledger")
}

// Transfers cruzados entre dos ubicaciones no se pierden escrituras: el total
// global se conserva sea cual sea el orden de ejecución.
func TestPost_TransfersCruzadosConservanElTotal(t *testing.T) {
	store := basicStore()
	store.setBalance("prod-1", "loc-a", qty(10))
	store.setBalance("prod-1", "loc-b", qty(10))
	uc := newDocumentUseCase(store)
	ctx := context.Background()

	prepare := func(from, to string) string {
		doc, err := uc.Create(ctx, inventory.DocumentInput{
			Kind: entity.DocumentKindTransfer,
			Items: []inventory.ItemInput{
				{ProductID: "prod-1", LocationID: from, ToLocationID: to, Quantity: qty(4)},
			},
		})
		require.NoError(t, err)
		for _, status := range []string{"waiting", "ready"} {
			_, err = uc.Transition(ctx, doc.ID, status)
			require.NoError(t, err)
		}
		return doc.ID
	}
	ids := []string{prepare("loc-a", "loc-b"), prepare("loc-b", "loc-a")}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := uc.Transition(ctx, id, "done")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	total := store.balance("prod-1", "loc-a").Add(store.balance("prod-1", "loc-b"))
	assert.True(t, total.Equal(qty(20)), "el stock global se conserva: %s", total)
	assert.Len(t, store.ledger, 4)
}
