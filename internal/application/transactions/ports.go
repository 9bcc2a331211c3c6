package transactions

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LedgerReport datos del reporte imprimible del ledger.
type LedgerReport struct {
	Title            string
	From             *time.Time
	To               *time.Time
	GeneratedAt      time.Time
	Entries          []entity.LedgerEntryView
	TotalProcured    int64
	TotalDistributed int64
	ProcuredValue    decimal.Decimal // Σ quantity × unitPrice de las entradas con precio
}

// LedgerPDFGenerator puerto de salida para renderizar el reporte del ledger (infrastructure/pdf).
type LedgerPDFGenerator interface {
	GenerateLedgerPDF(ctx context.Context, report LedgerReport) ([]byte, error)
}
