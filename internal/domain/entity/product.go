package entity

import (
	"encoding/json"
	"time"
)

// DefaultCategory es la categoría usada cuando el producto se crea sin una.
const DefaultCategory = "GEN"

// DefaultUnit unidad por defecto de un producto.
const DefaultUnit = "pcs"

// WarehouseStock subtotal de stock de un producto en una bodega.
type WarehouseStock struct {
	WarehouseCode string
	Quantity      int64
}

// Product representa un ítem de inventario del registro.
// CurrentStock es autoritativo y solo cambia vía el protocolo de mutación (ver application/inventory).
// StockByWarehouse está vacío (sin desglose) o suma exactamente CurrentStock.
type Product struct {
	ID               string
	ItemID           string // PRD-<CATEGORÍA>-<AÑO>-<seq>, inmutable
	Name             string
	Category         string
	Description      string
	Unit             string
	CurrentStock     int64
	StockByWarehouse []WarehouseStock
	ReorderLevel     int64
	Metadata         json.RawMessage
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TracksWarehouses indica si el producto lleva desglose por bodega.
func (p *Product) TracksWarehouses() bool {
	return len(p.StockByWarehouse) > 0
}

// WarehouseTotal suma los subtotales por bodega.
func (p *Product) WarehouseTotal() int64 {
	var total int64
	for _, w := range p.StockByWarehouse {
		total += w.Quantity
	}
	return total
}

// Clone devuelve una copia profunda (el desglose no se comparte).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.StockByWarehouse != nil {
		c.StockByWarehouse = append([]WarehouseStock(nil), p.StockByWarehouse...)
	}
	if p.Metadata != nil {
		c.Metadata = append(json.RawMessage(nil), p.Metadata...)
	}
	return &c
}
