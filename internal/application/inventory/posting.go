package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain"
	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// pairKey identifica el recurso en disputa: un balance por (producto, ubicación).
type pairKey struct {
	productID  string
	locationID string
}

// PostingEngine aplica las líneas de un documento sobre balances y ledger,
// todo-o-nada, dentro de la transacción del caller.
//
// Algoritmo: bloquea cada par (producto, ubicación) tocado en orden
// determinista (producto, luego ubicación) para evitar deadlocks entre posteos
// concurrentes que comparten filas; valida cada débito contra el balance en
// memoria; y solo si todo el lote pasa escribe balances y asientos. Ningún
// camino de fallo deja escrituras parciales: el Rollback del TxRunner las
// descarta.
type PostingEngine struct{}

// NewPostingEngine construye el motor.
func NewPostingEngine() *PostingEngine {
	return &PostingEngine{}
}

// Post postea las líneas del documento. Los repositorios deben venir atados a
// la transacción en curso. Devuelve los asientos creados.
//
// Idempotencia por documento: además del chequeo de estado terminal del ciclo
// de vida, el motor rechaza un RefID que ya tenga asientos en el ledger.
func (e *PostingEngine) Post(
	doc *entity.MovementDocument,
	stockRepo repository.StockRepository,
	ledgerRepo repository.LedgerRepository,
) ([]*entity.LedgerEntry, error) {
	posted, err := ledgerRepo.ExistsByRef(doc.ID)
	if err != nil {
		return nil, err
	}
	if posted {
		return nil, fmt.Errorf("documento %s ya tiene asientos en el ledger: %w", doc.ID, domain.ErrConflict)
	}

	balances, order, err := e.lockBalances(doc, stockRepo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var entries []*entity.LedgerEntry
	for _, it := range doc.Items {
		switch doc.Kind {
		case entity.DocumentKindReceipt:
			entries = append(entries, e.credit(balances, doc, it.ProductID, it.LocationID, it.Quantity))
		case entity.DocumentKindDelivery:
			entry, err := e.debit(balances, doc, it.ProductID, it.LocationID, it.Quantity)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		case entity.DocumentKindTransfer:
			entry, err := e.debit(balances, doc, it.ProductID, it.LocationID, it.Quantity)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry, e.credit(balances, doc, it.ProductID, it.ToLocationID, it.Quantity))
		case entity.DocumentKindAdjustment:
			// Delta = cantidad contada - balance actual; puede debitar o acreditar.
			bal := balances[pairKey{it.ProductID, it.LocationID}]
			delta := it.Quantity.Sub(bal.Quantity)
			if delta.IsZero() {
				// Un ajuste sin diferencia valida pero no escribe asiento
				continue
			}
			if delta.IsNegative() {
				entry, err := e.debit(balances, doc, it.ProductID, it.LocationID, delta.Neg())
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			} else {
				entries = append(entries, e.credit(balances, doc, it.ProductID, it.LocationID, delta))
			}
		default:
			return nil, domain.ErrInvalidInput
		}
	}

	for _, key := range order {
		bal := balances[key]
		bal.UpdatedAt = now
		if err := stockRepo.Upsert(bal); err != nil {
			return nil, err
		}
	}
	for _, entry := range entries {
		entry.CreatedAt = now
		if err := ledgerRepo.Create(entry); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// lockBalances bloquea cada par distinto tocado por el documento, en orden
// (producto, ubicación) ascendente, y devuelve los balances cargados.
func (e *PostingEngine) lockBalances(
	doc *entity.MovementDocument,
	stockRepo repository.StockRepository,
) (map[pairKey]*entity.StockBalance, []pairKey, error) {
	seen := make(map[pairKey]struct{})
	var order []pairKey
	add := func(productID, locationID string) {
		key := pairKey{productID, locationID}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			order = append(order, key)
		}
	}
	for _, it := range doc.Items {
		add(it.ProductID, it.LocationID)
		if doc.Kind == entity.DocumentKindTransfer {
			add(it.ProductID, it.ToLocationID)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].productID != order[j].productID {
			return order[i].productID < order[j].productID
		}
		return order[i].locationID < order[j].locationID
	})

	balances := make(map[pairKey]*entity.StockBalance, len(order))
	for _, key := range order {
		bal, err := stockRepo.GetForUpdate(key.productID, key.locationID)
		if err != nil {
			return nil, nil, err
		}
		balances[key] = bal
	}
	return balances, order, nil
}

// debit resta quantity del balance; rechaza el lote completo si quedaría negativo.
func (e *PostingEngine) debit(
	balances map[pairKey]*entity.StockBalance,
	doc *entity.MovementDocument,
	productID, locationID string,
	quantity decimal.Decimal,
) (*entity.LedgerEntry, error) {
	bal := balances[pairKey{productID, locationID}]
	if bal.Quantity.LessThan(quantity) {
		return nil, &domain.InsufficientStockError{
			ProductID:  productID,
			LocationID: locationID,
			Available:  bal.Quantity,
			Requested:  quantity,
		}
	}
	bal.Quantity = bal.Quantity.Sub(quantity)
	return &entity.LedgerEntry{
		Kind:           doc.Kind,
		RefID:          doc.ID,
		ProductID:      productID,
		FromLocationID: locationID,
		Quantity:       quantity.Neg(),
	}, nil
}

// credit suma quantity al balance.
func (e *PostingEngine) credit(
	balances map[pairKey]*entity.StockBalance,
	doc *entity.MovementDocument,
	productID, locationID string,
	quantity decimal.Decimal,
) *entity.LedgerEntry {
	bal := balances[pairKey{productID, locationID}]
	bal.Quantity = bal.Quantity.Add(quantity)
	return &entity.LedgerEntry{
		Kind:         doc.Kind,
		RefID:        doc.ID,
		ProductID:    productID,
		ToLocationID: locationID,
		Quantity:     quantity,
	}
}
