package catalog_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/catalog"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memstore"
)

var caller = entity.Caller{ID: "u-1", Role: entity.RoleUser}

func newUseCase(store *memstore.Store) *catalog.ProductUseCase {
	return catalog.NewProductUseCase(store.Products(), store.Counters(), store.TxRunner(), nil).
		WithClock(func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) })
}

func TestCreate_GeneraIdentificadorSecuencial(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memstore.New())

	a, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Cinta", Category: "ele"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Cable", Category: "ELE"})
	require.NoError(t, err)
	c, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Caja"})
	require.NoError(t, err)

	assert.Equal(t, "PRD-ELE-2026-000001", a.ItemID)
	assert.Equal(t, "PRD-ELE-2026-000002", b.ItemID)
	assert.Equal(t, "PRD-GEN-2026-000001", c.ItemID)
	assert.Equal(t, entity.DefaultUnit, c.Unit)
	assert.Equal(t, int64(0), c.CurrentStock)
}

func TestNextIdentifier_ConcurrenteNuncaDuplica(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memstore.New())

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := uc.NextIdentifier(ctx, "ele", 2026)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Strings(ids)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("PRD-ELE-2026-%06d", i+1), id)
	}
}

func TestCreate_StockInicialEscribeAjuste(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	p, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Tornillo", InitialStock: 25, ReorderLevel: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(25), p.CurrentStock)

	history, err := store.Ledger().History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.KindAdjustment, history[0].Kind)
	assert.Equal(t, int64(25), history[0].Quantity)
	assert.Equal(t, int64(25), history[0].BalanceAfter)
	assert.Equal(t, caller.ID, history[0].PerformedBy)
}

func TestCreate_IdentificadorExplicitoDuplicado(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)

	_, err := uc.Create(ctx, caller, dto.CreateProductRequest{ItemID: "sku-1", Name: "A"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, caller, dto.CreateProductRequest{ItemID: " SKU-1 ", Name: "B", InitialStock: 3})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, store.LedgerLen(), "la transacción fallida no deja entradas")
}

func TestCreate_GeneradoQueChocaConExplicitoSeRegenera(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memstore.New())

	_, err := uc.Create(ctx, caller, dto.CreateProductRequest{ItemID: "PRD-GEN-2026-000001", Name: "Manual"})
	require.NoError(t, err)
	p, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Auto"})
	require.NoError(t, err)
	assert.Equal(t, "PRD-GEN-2026-000002", p.ItemID)
}

func TestCreate_Validaciones(t *testing.T) {
	uc := newUseCase(memstore.New())
	ctx := context.Background()

	for name, in := range map[string]dto.CreateProductRequest{
		"sin nombre":          {Name: "  "},
		"reorden negativo":    {Name: "x", ReorderLevel: -1},
		"stock negativo":      {Name: "x", InitialStock: -4},
		"metadata no es json": {Name: "x", Metadata: []byte("{")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(ctx, caller, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestUpdate_NoTocaStockNiIdentificador(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memstore.New())
	p, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Pala", InitialStock: 4})
	require.NoError(t, err)

	name, level := "Pala grande", int64(2)
	updated, err := uc.Update(ctx, p.ItemID, dto.UpdateProductRequest{Name: &name, ReorderLevel: &level})
	require.NoError(t, err)
	assert.Equal(t, "Pala grande", updated.Name)
	assert.Equal(t, int64(2), updated.ReorderLevel)
	assert.Equal(t, int64(4), updated.CurrentStock)
	assert.Equal(t, p.ItemID, updated.ItemID)

	bad := int64(-1)
	_, err = uc.Update(ctx, p.ID, dto.UpdateProductRequest{ReorderLevel: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDelete_ConservaElLedger(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	uc := newUseCase(store)
	p, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: "Balde", InitialStock: 2})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, p.ID))
	_, err = uc.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, store.LedgerLen())

	assert.ErrorIs(t, uc.Delete(ctx, p.ID), domain.ErrNotFound)
}

func TestList_FiltraPorNombre(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(memstore.New())
	for _, n := range []string{"Guante nitrilo", "Guante látex", "Casco"} {
		_, err := uc.Create(ctx, caller, dto.CreateProductRequest{Name: n})
		require.NoError(t, err)
	}

	out, err := uc.List(ctx, "guante", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, dto.DefaultLimit, out.Page.Limit)

	out, err = uc.List(ctx, "", dto.PageRequest{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, out.Items, 3)
	assert.Equal(t, dto.MaxLimit, out.Page.Limit)
}
