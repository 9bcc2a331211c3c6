// Package memstore implementa los puertos de repository en memoria.
// TxRunner reproduce la semántica que el resto del sistema espera de postgres:
// bloqueo por fila de producto hasta el fin de la transacción y escrituras
// preparadas que se descartan completas ante cualquier error.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Store estado confirmado compartido por todos los repositorios.
type Store struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	ledger    []entity.LedgerEntry
	counters  map[string]int64
	users     map[string]*entity.User
	trainings map[string]*entity.Training

	locksMu sync.Mutex
	rowLock map[string]*sync.Mutex

	// FailAppend, si no es nil, hace fallar Append dentro de transacciones.
	FailAppend error
	// FailLowStock, si no es nil, hace fallar ReportRepository.LowStock.
	FailLowStock error
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		products:  make(map[string]*entity.Product),
		counters:  make(map[string]int64),
		users:     make(map[string]*entity.User),
		trainings: make(map[string]*entity.Training),
		rowLock:   make(map[string]*sync.Mutex),
	}
}

// Products repositorio sin transacción (lecturas y catálogo).
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Ledger repositorio de solo lectura fuera de transacción.
func (s *Store) Ledger() repository.LedgerRepository { return &ledgerRepo{s: s} }

// Counters contador atómico.
func (s *Store) Counters() repository.CounterRepository { return &counterRepo{s: s} }

// Reports consultas de reporte sobre el estado confirmado.
func (s *Store) Reports() repository.ReportRepository { return &reportRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Trainings repositorio de capacitaciones.
func (s *Store) Trainings() repository.TrainingRepository { return &trainingRepo{s: s} }

// TxRunner devuelve el ejecutor transaccional en memoria.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// LedgerLen cantidad de entradas confirmadas.
func (s *Store) LedgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.rowLock[id]
	if !ok {
		m = &sync.Mutex{}
		s.rowLock[id] = m
	}
	return m
}

func (s *Store) committedProduct(id string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Clone()
}

func (s *Store) itemIDTaken(itemID, exceptID string) bool {
	for _, p := range s.products {
		if p.ItemID == itemID && p.ID != exceptID {
			return true
		}
	}
	return false
}

// view resuelve producto y usuario de una entrada. Requiere s.mu tomado.
func (s *Store) view(e entity.LedgerEntry) entity.LedgerEntryView {
	v := entity.LedgerEntryView{LedgerEntry: e}
	if p, ok := s.products[e.ProductID]; ok {
		v.ProductItemID = p.ItemID
		v.ProductName = p.Name
	}
	if u, ok := s.users[e.PerformedBy]; ok {
		v.PerformerName = u.Name
		v.PerformerEmail = u.Email
	}
	return v
}

// TxRunner ejecuta fn con repositorios atados a una transacción en memoria.
type TxRunner struct {
	s *Store
}

// Run abre la transacción, ejecuta fn y confirma solo si fn retorna nil.
// Los bloqueos de fila tomados por GetForUpdate se liberan al terminar.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{s: r.s, staged: make(map[string]*entity.Product), locked: make(map[string]*sync.Mutex)}
	defer tx.release()

	if err := fn(&txProductRepo{tx: tx}, &txLedgerRepo{tx: tx}); err != nil {
		return err
	}
	return tx.commit()
}

type memTx struct {
	s       *Store
	staged  map[string]*entity.Product
	created map[string]bool
	entries []entity.LedgerEntry
	locked  map[string]*sync.Mutex
}

func (tx *memTx) lock(id string) {
	if _, ok := tx.locked[id]; ok {
		return
	}
	m := tx.s.lockFor(id)
	m.Lock()
	tx.locked[id] = m
}

func (tx *memTx) release() {
	for _, m := range tx.locked {
		m.Unlock()
	}
	tx.locked = nil
}

func (tx *memTx) current(id string) *entity.Product {
	if p, ok := tx.staged[id]; ok {
		return p.Clone()
	}
	return tx.s.committedProduct(id)
}

func (tx *memTx) commit() error {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range tx.staged {
		if tx.created[id] && s.itemIDTaken(p.ItemID, id) {
			return domain.ErrDuplicate
		}
	}
	for id, p := range tx.staged {
		s.products[id] = p
	}
	s.ledger = append(s.ledger, tx.entries...)
	return nil
}

type txProductRepo struct {
	tx *memTx
}

var _ repository.ProductRepository = (*txProductRepo)(nil)

func (r *txProductRepo) Create(_ context.Context, p *entity.Product) error {
	s := r.tx.s
	s.mu.Lock()
	taken := s.itemIDTaken(p.ItemID, p.ID)
	s.mu.Unlock()
	if taken {
		return domain.ErrDuplicate
	}
	for id, sp := range r.tx.staged {
		if sp.ItemID == p.ItemID && id != p.ID {
			return domain.ErrDuplicate
		}
	}
	if r.tx.created == nil {
		r.tx.created = make(map[string]bool)
	}
	r.tx.lock(p.ID)
	r.tx.staged[p.ID] = p.Clone()
	r.tx.created[p.ID] = true
	return nil
}

func (r *txProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.tx.current(id), nil
}

func (r *txProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.tx.lock(id)
	return r.tx.current(id), nil
}

func (r *txProductRepo) GetByItemID(ctx context.Context, itemID string) (*entity.Product, error) {
	for _, p := range r.tx.staged {
		if p.ItemID == itemID {
			return p.Clone(), nil
		}
	}
	return (&productRepo{s: r.tx.s}).GetByItemID(ctx, itemID)
}

func (r *txProductRepo) UpdateCatalog(_ context.Context, p *entity.Product) error {
	cur := r.tx.current(p.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	cur.Name, cur.Category, cur.Description, cur.Unit = p.Name, p.Category, p.Description, p.Unit
	cur.ReorderLevel, cur.Metadata, cur.UpdatedAt = p.ReorderLevel, p.Metadata, p.UpdatedAt
	r.tx.staged[p.ID] = cur
	return nil
}

func (r *txProductRepo) UpdateStock(_ context.Context, p *entity.Product) error {
	if p.CurrentStock < 0 {
		return domain.ErrInsufficientStock
	}
	cur := r.tx.current(p.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	cur.CurrentStock = p.CurrentStock
	cur.StockByWarehouse = append([]entity.WarehouseStock(nil), p.StockByWarehouse...)
	cur.UpdatedAt = p.UpdatedAt
	r.tx.staged[p.ID] = cur
	return nil
}

func (r *txProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	return (&productRepo{s: r.tx.s}).List(ctx, f)
}

func (r *txProductRepo) Delete(ctx context.Context, id string) error {
	return (&productRepo{s: r.tx.s}).Delete(ctx, id)
}

type txLedgerRepo struct {
	tx *memTx
}

var _ repository.LedgerRepository = (*txLedgerRepo)(nil)

func (r *txLedgerRepo) Append(_ context.Context, e *entity.LedgerEntry) error {
	if r.tx.s.FailAppend != nil {
		return r.tx.s.FailAppend
	}
	if e.Quantity < 0 || e.BalanceAfter < 0 || !e.Kind.Valid() {
		return domain.ErrInvalidInput
	}
	r.tx.entries = append(r.tx.entries, *e)
	return nil
}

func (r *txLedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntryView, error) {
	return (&ledgerRepo{s: r.tx.s}).GetByID(ctx, id)
}

func (r *txLedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]entity.LedgerEntryView, error) {
	return (&ledgerRepo{s: r.tx.s}).List(ctx, f)
}

func (r *txLedgerRepo) History(ctx context.Context, productID string) ([]entity.LedgerEntry, error) {
	return (&ledgerRepo{s: r.tx.s}).History(ctx, productID)
}

type productRepo struct {
	s *Store
}

var _ repository.ProductRepository = (*productRepo)(nil)

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.itemIDTaken(p.ItemID, p.ID) {
		return domain.ErrDuplicate
	}
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.s.committedProduct(id), nil
}

// GetForUpdate fuera de transacción no bloquea.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) GetByItemID(_ context.Context, itemID string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.ItemID == itemID {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

func (r *productRepo) UpdateCatalog(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name, cur.Category, cur.Description, cur.Unit = p.Name, p.Category, p.Description, p.Unit
	cur.ReorderLevel, cur.UpdatedAt = p.ReorderLevel, p.UpdatedAt
	cur.Metadata = append([]byte(nil), p.Metadata...)
	return nil
}

func (r *productRepo) UpdateStock(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.CurrentStock = p.CurrentStock
	cur.StockByWarehouse = append([]entity.WarehouseStock(nil), p.StockByWarehouse...)
	return nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(f.Query)
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return page(out, f.Limit, f.Offset), nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

type ledgerRepo struct {
	s *Store
}

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

// Append fuera de transacción no está permitido: toda entrada nace en el protocolo.
func (r *ledgerRepo) Append(context.Context, *entity.LedgerEntry) error {
	return domain.ErrForbidden
}

func (r *ledgerRepo) GetByID(_ context.Context, id string) (*entity.LedgerEntryView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.ledger {
		if e.ID == id {
			v := r.s.view(e)
			return &v, nil
		}
	}
	return nil, nil
}

func (r *ledgerRepo) List(_ context.Context, f repository.LedgerFilter) ([]entity.LedgerEntryView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.LedgerEntryView, 0)
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		e := r.s.ledger[i]
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, r.s.view(e))
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *ledgerRepo) History(_ context.Context, productID string) ([]entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.LedgerEntry, 0)
	for _, e := range r.s.ledger {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

type counterRepo struct {
	s *Store
}

func (r *counterRepo) Next(_ context.Context, key string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.counters[key]++
	return r.s.counters[key], nil
}

type reportRepo struct {
	s *Store
}

func (r *reportRepo) SumByKind(_ context.Context, kind entity.LedgerKind, from, to time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, e := range r.s.ledger {
		if e.Kind == kind && !e.CreatedAt.Before(from) && !e.CreatedAt.After(to) {
			total += e.Quantity
		}
	}
	return total, nil
}

func (r *reportRepo) LowStock(_ context.Context, limit int) ([]*entity.Product, error) {
	if r.s.FailLowStock != nil {
		return nil, r.s.FailLowStock
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if p.CurrentStock <= p.ReorderLevel {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentStock != out[j].CurrentStock {
			return out[i].CurrentStock < out[j].CurrentStock
		}
		return out[i].ItemID < out[j].ItemID
	})
	return page(out, limit, 0), nil
}

func (r *reportRepo) Recent(ctx context.Context, limit int) ([]entity.LedgerEntryView, error) {
	return (&ledgerRepo{s: r.s}).List(ctx, repository.LedgerFilter{Limit: limit})
}

type userRepo struct {
	s *Store
}

var _ repository.UserRepository = (*userRepo)(nil)

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

type trainingRepo struct {
	s *Store
}

var _ repository.TrainingRepository = (*trainingRepo)(nil)

func cloneTraining(t *entity.Training) *entity.Training {
	c := *t
	c.Versions = append([]entity.TrainingVersion(nil), t.Versions...)
	return &c
}

func (r *trainingRepo) Create(_ context.Context, t *entity.Training) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.trainings[t.ID] = cloneTraining(t)
	return nil
}

func (r *trainingRepo) GetByID(_ context.Context, id string) (*entity.Training, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trainings[id]
	if !ok {
		return nil, nil
	}
	return cloneTraining(t), nil
}

func (r *trainingRepo) Update(_ context.Context, t *entity.Training) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.trainings[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.trainings[t.ID] = cloneTraining(t)
	return nil
}

func (r *trainingRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.trainings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.trainings, id)
	return nil
}

func (r *trainingRepo) ListByOwner(_ context.Context, ownerID string) ([]*entity.Training, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Training, 0)
	for _, t := range r.s.trainings {
		if ownerID == "" || t.OwnerID == ownerID {
			out = append(out, cloneTraining(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *trainingRepo) Each(ctx context.Context, ownerID string, fn func(*entity.Training) error) error {
	list, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, t := range list {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
