package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InvoiceDTO referencia a la factura adjunta a una entrada.
type InvoiceDTO struct {
	FileURL      string `json:"file_url"`
	FileName     string `json:"file_name,omitempty"`
	FileMimeType string `json:"file_mime_type,omitempty"`
}

// ProcureRequest body para POST /api/inventory/procure.
type ProcureRequest struct {
	ProductID     string           `json:"product_id"`
	Quantity      int64            `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	WarehouseCode string           `json:"warehouse_code,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Invoice       *InvoiceDTO      `json:"invoice,omitempty"`
}

// DistributeRequest body para POST /api/inventory/distribute.
type DistributeRequest struct {
	ProductID     string      `json:"product_id"`
	Quantity      int64       `json:"quantity"`
	WarehouseCode string      `json:"warehouse_code,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Invoice       *InvoiceDTO `json:"invoice,omitempty"`
}

// AdjustRequest body para POST /api/inventory/adjust.
type AdjustRequest struct {
	ProductID     string `json:"product_id"`
	NewStock      int64  `json:"new_stock"`
	WarehouseCode string `json:"warehouse_code,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// WarehouseBreakdownRequest body para PUT /api/inventory/:id/warehouses.
type WarehouseBreakdownRequest struct {
	Warehouses []WarehouseStockDTO `json:"warehouses"`
	Notes      string              `json:"notes,omitempty"`
}

// LedgerEntryResponse salida de una entrada del ledger.
type LedgerEntryResponse struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"product_id"`
	ProductItemID   string           `json:"product_item_id,omitempty"`
	ProductName     string           `json:"product_name,omitempty"`
	Kind            string           `json:"kind"`
	Quantity        int64            `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	BalanceAfter    int64            `json:"balance_after"`
	WarehouseCode   string           `json:"warehouse_code,omitempty"`
	PerformedBy     string           `json:"performed_by"`
	PerformedByRole string           `json:"performed_by_role"`
	PerformerName   string           `json:"performer_name,omitempty"`
	PerformerEmail  string           `json:"performer_email,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Invoice         *InvoiceDTO      `json:"invoice,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// MutationResponse respuesta de toda mutación de stock.
type MutationResponse struct {
	Product     *ProductResponse     `json:"product"`
	LedgerEntry *LedgerEntryResponse `json:"ledger_entry"`
}

// InvoiceFromDTO convierte la factura de la petición.
func InvoiceFromDTO(in *InvoiceDTO) *entity.InvoiceRef {
	if in == nil {
		return nil
	}
	return &entity.InvoiceRef{FileURL: in.FileURL, FileName: in.FileName, FileMimeType: in.FileMimeType}
}

// NewLedgerEntryResponse mapea una entrada sin datos resueltos.
func NewLedgerEntryResponse(e *entity.LedgerEntry) *LedgerEntryResponse {
	if e == nil {
		return nil
	}
	out := &LedgerEntryResponse{
		ID:              e.ID,
		ProductID:       e.ProductID,
		Kind:            string(e.Kind),
		Quantity:        e.Quantity,
		UnitPrice:       e.UnitPrice,
		BalanceAfter:    e.BalanceAfter,
		WarehouseCode:   e.WarehouseCode,
		PerformedBy:     e.PerformedBy,
		PerformedByRole: e.PerformedByRole,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
	if e.Invoice != nil {
		out.Invoice = &InvoiceDTO{FileURL: e.Invoice.FileURL, FileName: e.Invoice.FileName, FileMimeType: e.Invoice.FileMimeType}
	}
	return out
}

// NewLedgerEntryViewResponse mapea una entrada con producto y usuario resueltos.
func NewLedgerEntryViewResponse(v entity.LedgerEntryView) LedgerEntryResponse {
	out := NewLedgerEntryResponse(&v.LedgerEntry)
	out.ProductItemID = v.ProductItemID
	out.ProductName = v.ProductName
	out.PerformerName = v.PerformerName
	out.PerformerEmail = v.PerformerEmail
	return *out
}
