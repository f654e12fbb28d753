package inventory_test

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/almacen-io/almacen-api/internal/domain/entity"
	"github.com/almacen-io/almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia. El runner reproduce la
// semántica transaccional del adaptador real: GetForUpdate toma un lock por
// fila (el lock existe aunque el par nunca haya sido tocado, igual que la
// materialización en cero del repo de Postgres), las escrituras quedan en un
// buffer y recién al commit se aplican al estado compartido; si el callback
// falla se descartan. Dos transacciones sobre pares disjuntos corren en
// paralelo; sobre el mismo par se serializan en el lock de la fila.
// ──────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	mu        sync.Mutex
	rowLocks  map[string]*sync.Mutex
	balances  map[string]entity.StockBalance // "productID|locationID"
	ledger    []entity.LedgerEntry
	nextLedID int64
	docs      map[string]*entity.MovementDocument
	products  map[string]*entity.Product
	locations map[string]*entity.StockLocation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rowLocks:  make(map[string]*sync.Mutex),
		balances:  make(map[string]entity.StockBalance),
		nextLedID: 1,
		docs:      make(map[string]*entity.MovementDocument),
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.StockLocation),
	}
}

func (s *fakeStore) addProduct(id string, reorder decimal.Decimal) {
	s.products[id] = &entity.Product{ID: id, SKU: "SKU-" + id, Name: id, ReorderLevel: reorder}
}

func (s *fakeStore) addLocation(id string) {
	s.locations[id] = &entity.StockLocation{ID: id, WarehouseID: "wh-1", Name: id}
}

func (s *fakeStore) setBalance(productID, locationID string, qty decimal.Decimal) {
	s.balances[productID+"|"+locationID] = entity.StockBalance{
		ProductID: productID, LocationID: locationID, Quantity: qty,
	}
}

func (s *fakeStore) balance(productID, locationID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[productID+"|"+locationID]; ok {
		return b.Quantity
	}
	return decimal.Zero
}

// ledgerSum suma los deltas firmados del ledger para un par producto+ubicación.
// El balance de cada par debe ser siempre igual a esta suma.
func (s *fakeStore) ledgerSum(productID, locationID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, e := range s.ledger {
		if e.ProductID != productID {
			continue
		}
		if e.Quantity.IsNegative() && e.FromLocationID == locationID {
			total = total.Add(e.Quantity)
		}
		if !e.Quantity.IsNegative() && e.ToLocationID == locationID {
			total = total.Add(e.Quantity)
		}
	}
	return total
}

func cloneDoc(doc *entity.MovementDocument) *entity.MovementDocument {
	cp := *doc
	cp.Items = append([]entity.MovementItem(nil), doc.Items...)
	return &cp
}

// ── Transacción fake: locks por fila + escrituras diferidas ──────────────────

type fakeTx struct {
	s        *fakeStore
	heldKeys map[string]struct{}
	held     []*sync.Mutex
	balances map[string]entity.StockBalance
	entries  []entity.LedgerEntry
	status   map[string]entity.DocumentStatus
	items    map[string][]entity.MovementItem
	newDocs  []*entity.MovementDocument
}

func newFakeTx(s *fakeStore) *fakeTx {
	return &fakeTx{
		s:        s,
		heldKeys: make(map[string]struct{}),
		balances: make(map[string]entity.StockBalance),
		status:   make(map[string]entity.DocumentStatus),
		items:    make(map[string][]entity.MovementItem),
	}
}

// lockRow toma el lock de la fila identificada por key, creándolo si nunca
// existió: así un par sin balance previo también es bloqueable.
func (tx *fakeTx) lockRow(key string) {
	if _, ok := tx.heldKeys[key]; ok {
		return
	}
	tx.s.mu.Lock()
	m, ok := tx.s.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		tx.s.rowLocks[key] = m
	}
	tx.s.mu.Unlock()
	m.Lock()
	tx.heldKeys[key] = struct{}{}
	tx.held = append(tx.held, m)
}

// commit aplica el buffer de escrituras al estado compartido.
func (tx *fakeTx) commit() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for key, b := range tx.balances {
		tx.s.balances[key] = b
	}
	tx.s.ledger = append(tx.s.ledger, tx.entries...)
	for _, doc := range tx.newDocs {
		tx.s.docs[doc.ID] = doc
	}
	for id, status := range tx.status {
		tx.s.docs[id].Status = status
	}
	for id, items := range tx.items {
		tx.s.docs[id].Items = append([]entity.MovementItem(nil), items...)
	}
}

func (tx *fakeTx) unlockAll() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
	tx.held = nil
}

// fakeTxRunner abre una transacción fake por llamada: commit si el callback
// termina bien, descarte del buffer si devuelve error.
type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	docRepo repository.DocumentRepository,
	stockRepo repository.StockRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	tx := newFakeTx(r.store)
	defer tx.unlockAll()
	err := fn(
		&fakeDocRepo{s: r.store, tx: tx},
		&fakeStockRepo{s: r.store, tx: tx},
		&fakeLedgerRepo{s: r.store, tx: tx},
	)
	if err == nil {
		tx.commit()
	}
	return err
}

// ── DocumentRepository ────────────────────────────────────────────────────────

type fakeDocRepo struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeDocRepo) Create(doc *entity.MovementDocument) error {
	cp := cloneDoc(doc)
	if r.tx != nil {
		r.tx.newDocs = append(r.tx.newDocs, cp)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.docs[doc.ID] = cp
	return nil
}

func (r *fakeDocRepo) GetByID(id string) (*entity.MovementDocument, error) {
	r.s.mu.Lock()
	doc, ok := r.s.docs[id]
	if ok {
		doc = cloneDoc(doc)
	}
	r.s.mu.Unlock()
	if !ok {
		if r.tx != nil {
			for _, d := range r.tx.newDocs {
				if d.ID == id {
					return cloneDoc(d), nil
				}
			}
		}
		return nil, nil
	}
	if r.tx != nil {
		if status, ok := r.tx.status[id]; ok {
			doc.Status = status
		}
		if items, ok := r.tx.items[id]; ok {
			doc.Items = append([]entity.MovementItem(nil), items...)
		}
	}
	return doc, nil
}

func (r *fakeDocRepo) GetForUpdate(id string) (*entity.MovementDocument, error) {
	if r.tx != nil {
		r.tx.lockRow("doc|" + id)
	}
	return r.GetByID(id)
}

func (r *fakeDocRepo) UpdateStatus(id string, status entity.DocumentStatus) error {
	if r.tx != nil {
		r.tx.status[id] = status
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.docs[id].Status = status
	return nil
}

func (r *fakeDocRepo) ReplaceItems(id string, items []entity.MovementItem) error {
	cp := append([]entity.MovementItem(nil), items...)
	if r.tx != nil {
		r.tx.items[id] = cp
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.docs[id].Items = cp
	return nil
}

func (r *fakeDocRepo) List(kind, status string, limit, offset int) ([]*entity.MovementDocument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MovementDocument
	for _, doc := range r.s.docs {
		if kind != "" && doc.Kind != kind {
			continue
		}
		if status != "" && string(doc.Status) != status {
			continue
		}
		out = append(out, cloneDoc(doc))
	}
	return out, nil
}

func (r *fakeDocRepo) CountByKindAndStatus(kind string, status entity.DocumentStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, doc := range r.s.docs {
		if doc.Kind == kind && doc.Status == status {
			count++
		}
	}
	return count, nil
}

// ── StockRepository ───────────────────────────────────────────────────────────

type fakeStockRepo struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeStockRepo) Get(productID, locationID string) (*entity.StockBalance, error) {
	key := productID + "|" + locationID
	if r.tx != nil {
		if b, ok := r.tx.balances[key]; ok {
			cp := b
			return &cp, nil
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.balances[key]; ok {
		cp := b
		return &cp, nil
	}
	return &entity.StockBalance{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
}

func (r *fakeStockRepo) GetForUpdate(productID, locationID string) (*entity.StockBalance, error) {
	if r.tx != nil {
		r.tx.lockRow("bal|" + productID + "|" + locationID)
	}
	return r.Get(productID, locationID)
}

func (r *fakeStockRepo) Upsert(balance *entity.StockBalance) error {
	key := balance.ProductID + "|" + balance.LocationID
	if r.tx != nil {
		r.tx.balances[key] = *balance
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.balances[key] = *balance
	return nil
}

func (r *fakeStockRepo) SumByProduct(productID string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sumByProductLocked(productID), nil
}

func (r *fakeStockRepo) sumByProductLocked(productID string) decimal.Decimal {
	total := decimal.Zero
	for key, b := range r.s.balances {
		if strings.HasPrefix(key, productID+"|") {
			total = total.Add(b.Quantity)
		}
	}
	return total
}

func (r *fakeStockRepo) ListByProduct(productID string) ([]*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockBalance
	for key, b := range r.s.balances {
		if strings.HasPrefix(key, productID+"|") {
			cp := b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) TotalQuantity() (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, b := range r.s.balances {
		total = total.Add(b.Quantity)
	}
	return total, nil
}

func (r *fakeStockRepo) ListBelowReorder() ([]repository.LowStockRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repository.LowStockRow
	for _, p := range r.s.products {
		sum := r.sumByProductLocked(p.ID)
		if sum.LessThan(p.ReorderLevel) {
			out = append(out, repository.LowStockRow{
				ProductID: p.ID, SKU: p.SKU, Name: p.Name,
				Balance: sum, ReorderLevel: p.ReorderLevel,
			})
		}
	}
	return out, nil
}

// ── LedgerRepository ──────────────────────────────────────────────────────────

type fakeLedgerRepo struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeLedgerRepo) Create(entry *entity.LedgerEntry) error {
	r.s.mu.Lock()
	entry.ID = r.s.nextLedID
	r.s.nextLedID++
	r.s.mu.Unlock()
	if r.tx != nil {
		r.tx.entries = append(r.tx.entries, *entry)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ledger = append(r.s.ledger, *entry)
	return nil
}

func (r *fakeLedgerRepo) ExistsByRef(refID string) (bool, error) {
	if r.tx != nil {
		for _, e := range r.tx.entries {
			if e.RefID == refID {
				return true, nil
			}
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.ledger {
		if e.RefID == refID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) List(filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.LedgerEntry
	for i := range r.s.ledger {
		e := r.s.ledger[i]
		if filter.ProductID != "" && e.ProductID != filter.ProductID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.From != nil && e.CreatedAt.Before(*filter.From) {
			continue
		}
		// El corte superior es inclusivo, igual que el created_at <= $n del SQL.
		if filter.To != nil && e.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, &e)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ── ProductRepository / LocationRepository ────────────────────────────────────

type fakeProductRepo struct {
	s *fakeStore
}

func (r *fakeProductRepo) Create(p *entity.Product) error { r.s.products[p.ID] = p; return nil }

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.s.products[id], nil
}

func (r *fakeProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error { r.s.products[p.ID] = p; return nil }

func (r *fakeProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) Count() (int, error) { return len(r.s.products), nil }

type fakeLocationRepo struct {
	s *fakeStore
}

func (r *fakeLocationRepo) Create(l *entity.StockLocation) error {
	r.s.locations[l.ID] = l
	return nil
}

func (r *fakeLocationRepo) GetByID(id string) (*entity.StockLocation, error) {
	return r.s.locations[id], nil
}

func (r *fakeLocationRepo) ListByWarehouse(warehouseID string) ([]*entity.StockLocation, error) {
	var out []*entity.StockLocation
	for _, l := range r.s.locations {
		if l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) List() ([]*entity.StockLocation, error) {
	var out []*entity.StockLocation
	for _, l := range r.s.locations {
		out = append(out, l)
	}
	return out, nil
}
