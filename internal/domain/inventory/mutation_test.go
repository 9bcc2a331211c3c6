package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
)

func product(stock int64, wh ...entity.WarehouseStock) *entity.Product {
	return &entity.Product{ID: "p1", ItemID: "PRD-GEN-2026-000001", CurrentStock: stock, StockByWarehouse: wh}
}

// Ejemplo completo: 100 → Procure(50)=150 → Distribute(180) falla → Adjust(120) con quantity 30.
func TestSecuenciaDeEjemplo(t *testing.T) {
	p := product(100)

	ch, err := inventory.PlanProcure(p, 50, "")
	require.NoError(t, err)
	require.NoError(t, inventory.Apply(p, ch))
	assert.Equal(t, int64(150), p.CurrentStock)
	assert.Equal(t, int64(50), ch.Quantity)
	assert.Equal(t, entity.KindProcure, ch.Kind)

	_, err = inventory.PlanDistribute(p, 180, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(150), p.CurrentStock, "un plan rechazado no modifica el producto")

	ch, err = inventory.PlanAdjustment(p, 120, "")
	require.NoError(t, err)
	require.NoError(t, inventory.Apply(p, ch))
	assert.Equal(t, int64(120), p.CurrentStock)
	assert.Equal(t, int64(30), ch.Quantity)
	assert.Equal(t, int64(-30), ch.Delta())
}

func TestPlanProcure_CantidadInvalida(t *testing.T) {
	for _, q := range []int64{0, -5} {
		_, err := inventory.PlanProcure(product(10), q, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "quantity=%d", q)
		assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
	}
}

func TestPlanDistribute_ExactamenteElStock(t *testing.T) {
	p := product(7)
	ch, err := inventory.PlanDistribute(p, 7, "")
	require.NoError(t, err)
	require.NoError(t, inventory.Apply(p, ch))
	assert.Equal(t, int64(0), p.CurrentStock)
}

func TestPlanDistribute_CantidadCeroEsValidacion(t *testing.T) {
	_, err := inventory.PlanDistribute(product(7), 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPlanAdjustment_CantidadEsValorAbsoluto(t *testing.T) {
	up, err := inventory.PlanAdjustment(product(10), 25, "")
	require.NoError(t, err)
	assert.Equal(t, int64(15), up.Quantity)
	assert.Equal(t, int64(25), up.NewStock)

	down, err := inventory.PlanAdjustment(product(10), 4, "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), down.Quantity)

	same, err := inventory.PlanAdjustment(product(10), 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), same.Quantity)

	_, err = inventory.PlanAdjustment(product(10), -1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_EstadoObsoletoEsConflicto(t *testing.T) {
	p := product(10)
	ch, err := inventory.PlanDistribute(p, 5, "")
	require.NoError(t, err)

	p.CurrentStock = 3 // otra transacción lo cambió
	assert.ErrorIs(t, inventory.Apply(p, ch), domain.ErrConflict)
}

func TestBodegas_ProductoConDesgloseExigeBodega(t *testing.T) {
	p := product(10, entity.WarehouseStock{WarehouseCode: "BOG", Quantity: 10})
	_, err := inventory.PlanProcure(p, 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = inventory.PlanProcure(product(10), 1, "BOG")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin desglose no se acepta bodega")
}

func TestBodegas_MutacionMantieneLaSuma(t *testing.T) {
	p := product(10,
		entity.WarehouseStock{WarehouseCode: "BOG", Quantity: 6},
		entity.WarehouseStock{WarehouseCode: "MED", Quantity: 4},
	)

	ch, err := inventory.PlanProcure(p, 5, " cal ")
	require.NoError(t, err)
	assert.Equal(t, "CAL", ch.WarehouseCode)
	require.NoError(t, inventory.Apply(p, ch))
	assert.Equal(t, int64(15), p.CurrentStock)
	assert.Equal(t, p.CurrentStock, p.WarehouseTotal())

	_, err = inventory.PlanDistribute(p, 5, "MED")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "MED solo tiene 4 aunque el total alcance")

	ch, err = inventory.PlanAdjustment(p, 11, "BOG")
	require.NoError(t, err)
	require.NoError(t, inventory.Apply(p, ch))
	assert.Equal(t, int64(2), p.StockByWarehouse[0].Quantity)
	assert.Equal(t, p.CurrentStock, p.WarehouseTotal())

	_, err = inventory.PlanAdjustment(p, 0, "BOG")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "BOG quedaría en negativo")
}

func TestPlanWarehouseBreakdown(t *testing.T) {
	p := product(10)
	entries, ch, err := inventory.PlanWarehouseBreakdown(p, []entity.WarehouseStock{
		{WarehouseCode: "bog", Quantity: 7},
		{WarehouseCode: "MED", Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), ch.NewStock)
	assert.Equal(t, int64(2), ch.Quantity)
	assert.Equal(t, entity.KindAdjustment, ch.Kind)
	require.NoError(t, inventory.ApplyBreakdown(p, entries, ch))
	assert.Equal(t, int64(12), p.CurrentStock)
	assert.Equal(t, "BOG", p.StockByWarehouse[0].WarehouseCode)

	_, _, err = inventory.PlanWarehouseBreakdown(p, []entity.WarehouseStock{
		{WarehouseCode: "BOG", Quantity: 1}, {WarehouseCode: "bog", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	entries, ch, err = inventory.PlanWarehouseBreakdown(p, nil)
	require.NoError(t, err)
	require.NoError(t, inventory.ApplyBreakdown(p, entries, ch))
	assert.Equal(t, int64(12), p.CurrentStock, "desglose vacío conserva el stock")
	assert.False(t, p.TracksWarehouses())
}

func TestCheckBreakdown_Descuadre(t *testing.T) {
	p := product(10, entity.WarehouseStock{WarehouseCode: "BOG", Quantity: 9})
	err := inventory.CheckBreakdown(p)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}
