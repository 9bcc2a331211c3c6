package dto

import "time"

// LedgerListRequest filtros de GET /api/transactions.
type LedgerListRequest struct {
	ProductID string `query:"product_id"` // id interno o item_id
	Kind      string `query:"kind"`
	From      string `query:"from"` // YYYY-MM-DD o RFC3339
	To        string `query:"to"`
	PageRequest
}

// LedgerListResponse listado paginado del ledger.
type LedgerListResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// BalancePointDTO punto de la línea de tiempo reconstruida.
type BalancePointDTO struct {
	EntryID      string    `json:"entry_id"`
	Kind         string    `json:"kind"`
	Quantity     int64     `json:"quantity"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balance_after"`
	Consistent   bool      `json:"consistent"`
	CreatedAt    time.Time `json:"created_at"`
}

// LedgerAuditResponse resultado de reconstruir el stock desde el ledger.
type LedgerAuditResponse struct {
	ProductID     string            `json:"product_id"`
	CurrentStock  int64             `json:"current_stock"`
	LatestBalance int64             `json:"latest_balance"`
	Consistent    bool              `json:"consistent"`
	BrokenEntries []string          `json:"broken_entries"`
	Timeline      []BalancePointDTO `json:"timeline"`
}
