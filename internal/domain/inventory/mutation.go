// Package inventory contiene las reglas puras del protocolo de mutación de stock:
// validación de cada operación, cálculo del nuevo stock y aplicación sobre el desglose por bodega.
// No toca almacenamiento; el caso de uso la invoca dentro de la transacción ya abierta.
package inventory

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Change describe el efecto validado de una operación sobre un producto.
type Change struct {
	Kind          entity.LedgerKind
	Quantity      int64 // magnitud registrada en el ledger (>= 0)
	PrevStock     int64
	NewStock      int64
	WarehouseCode string // vacío si el producto no lleva desglose
}

// Delta variación con signo del stock total.
func (c Change) Delta() int64 { return c.NewStock - c.PrevStock }

// NormalizeWarehouseCode recorta y pasa a mayúsculas un código de bodega.
func NormalizeWarehouseCode(code string) string {
	// Un Caser no es seguro entre goroutines: se crea por llamada.
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// PlanProcure valida una entrada: quantity > 0, stock += quantity.
func PlanProcure(p *entity.Product, quantity int64, warehouseCode string) (Change, error) {
	if quantity <= 0 {
		return Change{}, domain.Invalid("quantity", "debe ser mayor que 0")
	}
	if quantity > math.MaxInt64-p.CurrentStock {
		return Change{}, domain.Invalid("quantity", "excede el máximo representable")
	}
	code, err := resolveWarehouse(p, warehouseCode)
	if err != nil {
		return Change{}, err
	}
	return Change{
		Kind:          entity.KindProcure,
		Quantity:      quantity,
		PrevStock:     p.CurrentStock,
		NewStock:      p.CurrentStock + quantity,
		WarehouseCode: code,
	}, nil
}

// PlanDistribute valida una salida: quantity > 0 y quantity <= stock (también en la bodega si aplica).
func PlanDistribute(p *entity.Product, quantity int64, warehouseCode string) (Change, error) {
	if quantity <= 0 {
		return Change{}, domain.Invalid("quantity", "debe ser mayor que 0")
	}
	code, err := resolveWarehouse(p, warehouseCode)
	if err != nil {
		return Change{}, err
	}
	if quantity > p.CurrentStock {
		return Change{}, domain.ErrInsufficientStock
	}
	if code != "" && quantity > warehouseQuantity(p, code) {
		return Change{}, fmt.Errorf("bodega %s: %w", code, domain.ErrInsufficientStock)
	}
	return Change{
		Kind:          entity.KindDistribute,
		Quantity:      quantity,
		PrevStock:     p.CurrentStock,
		NewStock:      p.CurrentStock - quantity,
		WarehouseCode: code,
	}, nil
}

// PlanAdjustment valida un ajuste a valor absoluto: newStock >= 0; quantity = |newStock - stock|.
// Con desglose por bodega la diferencia se imputa a la bodega indicada, que no puede quedar negativa.
func PlanAdjustment(p *entity.Product, newStock int64, warehouseCode string) (Change, error) {
	if newStock < 0 {
		return Change{}, domain.Invalid("newStock", "debe ser mayor o igual a 0")
	}
	code, err := resolveWarehouse(p, warehouseCode)
	if err != nil {
		return Change{}, err
	}
	delta := newStock - p.CurrentStock
	if code != "" && warehouseQuantity(p, code)+delta < 0 {
		return Change{}, domain.Invalid("newStock", "dejaría la bodega "+code+" en negativo")
	}
	qty := delta
	if qty < 0 {
		qty = -qty
	}
	return Change{
		Kind:          entity.KindAdjustment,
		Quantity:      qty,
		PrevStock:     p.CurrentStock,
		NewStock:      newStock,
		WarehouseCode: code,
	}, nil
}

// PlanWarehouseBreakdown valida un nuevo desglose completo. El cambio resultante es un ajuste
// del stock total a la suma de los subtotales. Un desglose vacío deja de llevar stock por bodega
// y conserva el stock actual.
func PlanWarehouseBreakdown(p *entity.Product, entries []entity.WarehouseStock) ([]entity.WarehouseStock, Change, error) {
	seen := make(map[string]struct{}, len(entries))
	normalized := make([]entity.WarehouseStock, 0, len(entries))
	newStock := p.CurrentStock
	if len(entries) > 0 {
		newStock = 0
	}
	for _, e := range entries {
		code := NormalizeWarehouseCode(e.WarehouseCode)
		if code == "" {
			return nil, Change{}, domain.Invalid("warehouseCode", "requerido")
		}
		if _, dup := seen[code]; dup {
			return nil, Change{}, domain.Invalid("warehouseCode", "bodega repetida: "+code)
		}
		if e.Quantity < 0 {
			return nil, Change{}, domain.Invalid("quantity", "debe ser mayor o igual a 0 en "+code)
		}
		if e.Quantity > math.MaxInt64-newStock {
			return nil, Change{}, domain.Invalid("quantity", "excede el máximo representable")
		}
		seen[code] = struct{}{}
		normalized = append(normalized, entity.WarehouseStock{WarehouseCode: code, Quantity: e.Quantity})
		newStock += e.Quantity
	}
	qty := newStock - p.CurrentStock
	if qty < 0 {
		qty = -qty
	}
	return normalized, Change{
		Kind:      entity.KindAdjustment,
		Quantity:  qty,
		PrevStock: p.CurrentStock,
		NewStock:  newStock,
	}, nil
}

// Apply aplica un cambio validado sobre el producto (stock total y subtotal de bodega).
// Falla con ErrConflict si el producto ya no está en el estado sobre el que se planificó.
func Apply(p *entity.Product, ch Change) error {
	if p.CurrentStock != ch.PrevStock {
		return fmt.Errorf("stock cambió de %d a %d: %w", ch.PrevStock, p.CurrentStock, domain.ErrConflict)
	}
	if ch.NewStock < 0 {
		return domain.ErrInsufficientStock
	}
	if ch.WarehouseCode != "" {
		applyToWarehouse(p, ch.WarehouseCode, ch.Delta())
	}
	p.CurrentStock = ch.NewStock
	return CheckBreakdown(p)
}

// ApplyBreakdown reemplaza el desglose y fija el stock total a su suma.
func ApplyBreakdown(p *entity.Product, entries []entity.WarehouseStock, ch Change) error {
	if p.CurrentStock != ch.PrevStock {
		return fmt.Errorf("stock cambió de %d a %d: %w", ch.PrevStock, p.CurrentStock, domain.ErrConflict)
	}
	p.StockByWarehouse = append([]entity.WarehouseStock(nil), entries...)
	p.CurrentStock = ch.NewStock
	return CheckBreakdown(p)
}

// CheckBreakdown verifica el invariante: sin desglose, o desglose que suma exactamente el stock.
// Un descuadre es un dato persistido corrupto: ErrStorage, no se reintenta.
func CheckBreakdown(p *entity.Product) error {
	if p.CurrentStock < 0 {
		return fmt.Errorf("stock negativo (%d): %w", p.CurrentStock, domain.ErrInsufficientStock)
	}
	for _, w := range p.StockByWarehouse {
		if w.Quantity < 0 {
			return fmt.Errorf("bodega %s negativa: %w", w.WarehouseCode, domain.ErrInsufficientStock)
		}
	}
	if p.TracksWarehouses() && p.WarehouseTotal() != p.CurrentStock {
		return fmt.Errorf("desglose por bodega (%d) no coincide con stock (%d): %w",
			p.WarehouseTotal(), p.CurrentStock, domain.ErrStorage)
	}
	return nil
}

func resolveWarehouse(p *entity.Product, warehouseCode string) (string, error) {
	code := NormalizeWarehouseCode(warehouseCode)
	switch {
	case p.TracksWarehouses() && code == "":
		return "", domain.Invalid("warehouseCode", "requerido: el producto lleva stock por bodega")
	case !p.TracksWarehouses() && code != "":
		return "", domain.Invalid("warehouseCode", "el producto no lleva stock por bodega")
	}
	return code, nil
}

func warehouseQuantity(p *entity.Product, code string) int64 {
	for _, w := range p.StockByWarehouse {
		if w.WarehouseCode == code {
			return w.Quantity
		}
	}
	return 0
}

func applyToWarehouse(p *entity.Product, code string, delta int64) {
	for i := range p.StockByWarehouse {
		if p.StockByWarehouse[i].WarehouseCode == code {
			p.StockByWarehouse[i].Quantity += delta
			return
		}
	}
	p.StockByWarehouse = append(p.StockByWarehouse, entity.WarehouseStock{WarehouseCode: code, Quantity: delta})
}
