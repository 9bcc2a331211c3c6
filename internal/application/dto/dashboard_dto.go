package dto

import "time"

// DashboardRequest rango de GET /api/dashboard; por defecto los últimos 30 días.
type DashboardRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// LowStockItemDTO producto en o por debajo de su nivel de reorden.
type LowStockItemDTO struct {
	ProductID    string `json:"product_id"`
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	CurrentStock int64  `json:"current_stock"`
	ReorderLevel int64  `json:"reorder_level"`
}

// DashboardDTO respuesta de GET /api/dashboard.
type DashboardDTO struct {
	From             time.Time             `json:"from"`
	To               time.Time             `json:"to"`
	TotalProcured    int64                 `json:"total_procured"`
	TotalDistributed int64                 `json:"total_distributed"`
	LowStock         []LowStockItemDTO     `json:"low_stock"`
	RecentTx         []LedgerEntryResponse `json:"recent_tx"`
	// LowStockDegraded indica que el escaneo de bajo stock falló y la lista viene vacía.
	LowStockDegraded bool `json:"low_stock_degraded,omitempty"`
	RecentDegraded   bool `json:"recent_degraded,omitempty"`
}
