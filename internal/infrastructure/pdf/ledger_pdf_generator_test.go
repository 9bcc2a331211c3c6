package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/transactions"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/pdf"
)

func TestGenerateLedgerPDF_ConMovimientos(t *testing.T) {
	price := decimal.RequireFromString("2.50")
	created := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	report := transactions.LedgerReport{
		Title:       "Movimientos de inventario",
		GeneratedAt: created,
		Entries: []entity.LedgerEntryView{
			{
				LedgerEntry: entity.LedgerEntry{
					ID: "e-1", ProductID: "p-1", Kind: entity.KindProcure, Quantity: 5,
					UnitPrice: &price, BalanceAfter: 15, CreatedAt: created,
				},
				ProductItemID: "PRD-GEN-2026-000001", ProductName: "Guantes", PerformerName: "Ana",
			},
			{
				LedgerEntry: entity.LedgerEntry{
					ID: "e-2", ProductID: "p-1", Kind: entity.KindDistribute, Quantity: 3,
					BalanceAfter: 12, PerformedBy: "u-2", CreatedAt: created.Add(time.Hour),
				},
			},
		},
		TotalProcured:    5,
		TotalDistributed: 3,
		ProcuredValue:    decimal.RequireFromString("12.5"),
	}

	out, err := pdf.NewMarotoPDFGenerator(nil).GenerateLedgerPDF(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateLedgerPDF_SinMovimientos(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := pdf.NewMarotoPDFGenerator(time.UTC).GenerateLedgerPDF(context.Background(), transactions.LedgerReport{
		From:          &from,
		ProcuredValue: decimal.Zero,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
