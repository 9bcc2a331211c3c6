package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto. ItemID vacío = se genera.
type CreateProductRequest struct {
	ItemID       string          `json:"item_id,omitempty"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	ReorderLevel int64           `json:"reorder_level"`
	InitialStock int64           `json:"initial_stock"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock ni item_id).
type UpdateProductRequest struct {
	Name         *string         `json:"name"`
	Category     *string         `json:"category"`
	Description  *string         `json:"description"`
	Unit         *string         `json:"unit"`
	ReorderLevel *int64          `json:"reorder_level"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// WarehouseStockDTO subtotal de una bodega.
type WarehouseStockDTO struct {
	WarehouseCode string `json:"warehouse_code"`
	Quantity      int64  `json:"quantity"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID               string              `json:"id"`
	ItemID           string              `json:"item_id"`
	Name             string              `json:"name"`
	Category         string              `json:"category"`
	Description      string              `json:"description"`
	Unit             string              `json:"unit"`
	CurrentStock     int64               `json:"current_stock"`
	StockByWarehouse []WarehouseStockDTO `json:"stock_by_warehouse"`
	ReorderLevel     int64               `json:"reorder_level"`
	Metadata         json.RawMessage     `json:"metadata,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NewProductResponse mapea la entidad a su salida.
func NewProductResponse(p *entity.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	wh := make([]WarehouseStockDTO, 0, len(p.StockByWarehouse))
	for _, w := range p.StockByWarehouse {
		wh = append(wh, WarehouseStockDTO{WarehouseCode: w.WarehouseCode, Quantity: w.Quantity})
	}
	return &ProductResponse{
		ID:               p.ID,
		ItemID:           p.ItemID,
		Name:             p.Name,
		Category:         p.Category,
		Description:      p.Description,
		Unit:             p.Unit,
		CurrentStock:     p.CurrentStock,
		StockByWarehouse: wh,
		ReorderLevel:     p.ReorderLevel,
		Metadata:         p.Metadata,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
