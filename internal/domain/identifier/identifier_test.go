package identifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/internal/domain/identifier"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "PRD-ELEC-2026-000042", identifier.Format(" elec ", 2026, 42))
	assert.Equal(t, "PRD-GEN-2026-000001", identifier.Format("", 2026, 1))
	assert.Equal(t, "PRD-GEN-2026-1234567", identifier.Format("gen", 2026, 1234567))
}

func TestCounterKey(t *testing.T) {
	assert.Equal(t, "product:ELEC:2026", identifier.CounterKey("elec", 2026))
	assert.Equal(t, "product:GEN:2025", identifier.CounterKey("   ", 2025))
}

func TestNormalizeItemID(t *testing.T) {
	assert.Equal(t, "PRD-X-1", identifier.NormalizeItemID("  prd-x-1 "))
}
