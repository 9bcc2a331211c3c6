package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKind tipo de evento que afecta el stock.
type LedgerKind string

// Tipos de entrada del ledger.
const (
	KindProcure    LedgerKind = "procure"    // entrada
	KindDistribute LedgerKind = "distribute" // salida
	KindAdjustment LedgerKind = "adjustment" // corrección a valor absoluto
)

// Valid indica si el tipo es uno de los conocidos.
func (k LedgerKind) Valid() bool {
	switch k {
	case KindProcure, KindDistribute, KindAdjustment:
		return true
	}
	return false
}

// InvoiceRef referencia a un archivo de factura almacenado externamente.
type InvoiceRef struct {
	FileURL      string
	FileName     string
	FileMimeType string
}

// LedgerEntry registro inmutable de un evento de stock.
// Quantity siempre es no negativa; BalanceAfter es el CurrentStock del producto justo después de aplicarla.
type LedgerEntry struct {
	ID              string
	ProductID       string
	Kind            LedgerKind
	Quantity        int64
	UnitPrice       *decimal.Decimal // solo en procure
	BalanceAfter    int64
	WarehouseCode   string
	PerformedBy     string
	PerformedByRole string // snapshot del rol al momento de escribir
	Notes           string
	Invoice         *InvoiceRef
	CreatedAt       time.Time
}

// LedgerEntryView entrada con producto y usuario resueltos para mostrar.
type LedgerEntryView struct {
	LedgerEntry
	ProductItemID  string
	ProductName    string
	PerformerName  string
	PerformerEmail string
}
