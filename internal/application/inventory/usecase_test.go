package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memstore"
)

var admin = entity.Caller{ID: "u-admin", Role: entity.RoleAdmin}

type spyPublisher struct {
	mu     sync.Mutex
	kinds  []entity.LedgerKind
	failed bool
}

func (p *spyPublisher) PublishEntry(_ context.Context, _ *entity.Product, e *entity.LedgerEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, e.Kind)
	if p.failed {
		return errors.New("broker caído")
	}
	return nil
}

func seed(t *testing.T, store *memstore.Store, stock, reorder int64, wh ...entity.WarehouseStock) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:               "p-1",
		ItemID:           "PRD-GEN-2026-000001",
		Name:             "Guantes",
		Category:         "GEN",
		Unit:             entity.DefaultUnit,
		CurrentStock:     stock,
		ReorderLevel:     reorder,
		StockByWarehouse: wh,
	}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func newUseCase(store *memstore.Store, pub inventory.EventPublisher) *inventory.MutationUseCase {
	return inventory.NewMutationUseCase(store.TxRunner(), pub, nil, 3)
}

func stockOf(t *testing.T, store *memstore.Store, id string) int64 {
	t.Helper()
	p, err := store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.CurrentStock
}

func TestMutation_SecuenciaDeEjemplo(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 100, 20)
	pub := &spyPublisher{}
	uc := newUseCase(store, pub)

	price := decimal.RequireFromString("12.50")
	res, err := uc.Procure(ctx, admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 50, UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(150), res.Product.CurrentStock)
	assert.Equal(t, entity.KindProcure, res.Entry.Kind)
	assert.Equal(t, int64(50), res.Entry.Quantity)
	assert.Equal(t, int64(150), res.Entry.BalanceAfter)
	assert.Equal(t, admin.ID, res.Entry.PerformedBy)
	assert.Equal(t, admin.Role, res.Entry.PerformedByRole)
	require.NotNil(t, res.Entry.UnitPrice)
	assert.True(t, price.Equal(*res.Entry.UnitPrice))

	_, err = uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 180})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(150), stockOf(t, store, p.ID))

	res, err = uc.Adjust(ctx, admin, inventory.AdjustInput{ProductID: p.ID, NewStock: 120})
	require.NoError(t, err)
	assert.Equal(t, entity.KindAdjustment, res.Entry.Kind)
	assert.Equal(t, int64(30), res.Entry.Quantity)
	assert.Equal(t, int64(120), res.Entry.BalanceAfter)

	assert.Equal(t, 2, store.LedgerLen())
	assert.Equal(t, []entity.LedgerKind{entity.KindProcure, entity.KindAdjustment}, pub.kinds)
}

func TestMutation_ProcureYDistributeRestauranElStock(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 40, 0)
	uc := newUseCase(store, nil)

	_, err := uc.Procure(ctx, admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 7})
	require.NoError(t, err)
	_, err = uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 7})
	require.NoError(t, err)

	assert.Equal(t, int64(40), stockOf(t, store, p.ID))
	history, err := store.Ledger().History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(47), history[0].BalanceAfter)
	assert.Equal(t, int64(40), history[1].BalanceAfter)
}

func TestMutation_DistributeExactoDejaCero(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 9, 0)
	uc := newUseCase(store, nil)

	res, err := uc.Distribute(context.Background(), admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 9})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Product.CurrentStock)
	assert.Equal(t, int64(0), res.Entry.BalanceAfter)
}

func TestMutation_ValidacionAntesDeTocarAlmacenamiento(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 10, 0)
	uc := newUseCase(store, nil)
	negative := decimal.NewFromInt(-1)

	cases := []struct {
		name string
		run  func() error
	}{
		{"procure cero", func() error {
			_, err := uc.Procure(ctx, admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 0})
			return err
		}},
		{"distribute negativo", func() error {
			_, err := uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: -2})
			return err
		}},
		{"adjust negativo", func() error {
			_, err := uc.Adjust(ctx, admin, inventory.AdjustInput{ProductID: p.ID, NewStock: -1})
			return err
		}},
		{"precio negativo", func() error {
			_, err := uc.Procure(ctx, admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 1, UnitPrice: &negative})
			return err
		}},
		{"factura sin url", func() error {
			_, err := uc.Procure(ctx, admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 1, Invoice: &entity.InvoiceRef{FileName: "f.pdf"}})
			return err
		}},
		{"sin producto", func() error {
			_, err := uc.Procure(ctx, admin, inventory.ProcureInput{Quantity: 1})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, int64(10), stockOf(t, store, p.ID))
	assert.Equal(t, 0, store.LedgerLen())
}

func TestMutation_ProductoInexistente(t *testing.T) {
	uc := newUseCase(memstore.New(), nil)
	_, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMutation_FalloAlEscribirLedgerRevierteTodo(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 100, 0)
	store.FailAppend = domain.ErrStorage
	pub := &spyPublisher{}
	uc := newUseCase(store, pub)

	_, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, int64(100), stockOf(t, store, p.ID), "el stock no cambia si la entrada no se escribe")
	assert.Equal(t, 0, store.LedgerLen())
	assert.Empty(t, pub.kinds, "no se publica nada sin commit")
}

func TestMutation_FalloDePublicacionNoFallaLaMutacion(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 1, 0)
	uc := newUseCase(store, &spyPublisher{failed: true})

	res, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Product.CurrentStock)
}

// Stock = q1+q2-1: de dos salidas concurrentes como máximo una puede confirmarse.
func TestMutation_DistributeConcurrenteNuncaDejaStockNegativo(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 11, 0)
	uc := newUseCase(store, nil)

	var (
		wg           sync.WaitGroup
		ok, rejected atomic.Int32
	)
	for _, q := range []int64{6, 6} {
		wg.Add(1)
		go func(q int64) {
			defer wg.Done()
			_, err := uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: q})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			}
		}(q)
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(1), rejected.Load())
	assert.Equal(t, int64(5), stockOf(t, store, p.ID))
	assert.Equal(t, 1, store.LedgerLen())
}

func TestMutation_MuchasMutacionesConcurrentesEncadenanSaldos(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 100, 0)
	uc := newUseCase(store, nil)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 3}); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(33), successes.Load())
	assert.Equal(t, int64(1), stockOf(t, store, p.ID))

	history, err := store.Ledger().History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 33)
	prev := int64(100)
	for _, e := range history {
		assert.Equal(t, prev-3, e.BalanceAfter)
		prev = e.BalanceAfter
	}
}

func TestMutation_BodegaObligatoriaConDesglose(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 10, 0,
		entity.WarehouseStock{WarehouseCode: "BOG", Quantity: 6},
		entity.WarehouseStock{WarehouseCode: "MED", Quantity: 4},
	)
	uc := newUseCase(store, nil)

	_, err := uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 5, WarehouseCode: "med"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	res, err := uc.Distribute(ctx, admin, inventory.DistributeInput{ProductID: p.ID, Quantity: 5, WarehouseCode: "bog"})
	require.NoError(t, err)
	assert.Equal(t, "BOG", res.Entry.WarehouseCode)
	assert.Equal(t, int64(5), res.Product.CurrentStock)
	assert.Equal(t, res.Product.CurrentStock, res.Product.WarehouseTotal())
}

func TestMutation_DesgloseDescuadradoNoSeReintenta(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 10, 0, entity.WarehouseStock{WarehouseCode: "A", Quantity: 3})
	runner := &conflictRunner{inner: store.TxRunner()}
	uc := inventory.NewMutationUseCase(runner, nil, nil, 3)

	_, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 1, WarehouseCode: "A"})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, runner.calls, "un descuadre persistido no se resuelve reintentando")
	assert.Equal(t, int64(10), stockOf(t, store, p.ID))
	assert.Zero(t, store.LedgerLen())
}

func TestMutation_SetWarehouseBreakdownRegistraAjuste(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seed(t, store, 10, 0)
	uc := newUseCase(store, nil)

	res, err := uc.SetWarehouseBreakdown(ctx, admin, inventory.WarehouseBreakdownInput{
		ProductID: p.ID,
		Entries: []entity.WarehouseStock{
			{WarehouseCode: "bog", Quantity: 8},
			{WarehouseCode: "cal", Quantity: 4},
		},
		Notes: "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Product.CurrentStock)
	assert.Equal(t, entity.KindAdjustment, res.Entry.Kind)
	assert.Equal(t, int64(2), res.Entry.Quantity)
	assert.Equal(t, "conteo físico", res.Entry.Notes)

	saved, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.WarehouseStock{{WarehouseCode: "BOG", Quantity: 8}, {WarehouseCode: "CAL", Quantity: 4}}, saved.StockByWarehouse)

	_, err = uc.SetWarehouseBreakdown(ctx, admin, inventory.WarehouseBreakdownInput{
		ProductID: p.ID,
		Entries:   []entity.WarehouseStock{{WarehouseCode: "BOG", Quantity: 1}, {WarehouseCode: "bog", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// conflictRunner hace fallar las primeras n transacciones con ErrConflict.
type conflictRunner struct {
	inner inventory.TxRunner
	left  int
	calls int
}

func (r *conflictRunner) Run(ctx context.Context, fn func(repository.ProductRepository, repository.LedgerRepository) error) error {
	r.calls++
	if r.left > 0 {
		r.left--
		return domain.ErrConflict
	}
	return r.inner.Run(ctx, fn)
}

func TestMutation_ReintentaConflictos(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 1, 0)
	runner := &conflictRunner{inner: store.TxRunner(), left: 2}
	uc := inventory.NewMutationUseCase(runner, nil, nil, 3).
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) })

	res, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), res.Entry.CreatedAt)
}

func TestMutation_ConflictoPersistenteSeReporta(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 1, 0)
	runner := &conflictRunner{inner: store.TxRunner(), left: 10}
	uc := inventory.NewMutationUseCase(runner, nil, nil, 2)

	_, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, int64(1), stockOf(t, store, p.ID))
}

func TestMutation_AceptaItemIDComoReferencia(t *testing.T) {
	store := memstore.New()
	p := seed(t, store, 3, 0)
	uc := newUseCase(store, nil)

	res, err := uc.Procure(context.Background(), admin, inventory.ProcureInput{ProductID: " prd-gen-2026-000001 ", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, p.ID, res.Entry.ProductID)
	assert.Equal(t, int64(5), stockOf(t, store, p.ID))
}
