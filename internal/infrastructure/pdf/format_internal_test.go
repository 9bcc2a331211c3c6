package pdf

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "950", formatMoney("950"))
	assert.Equal(t, "25.000", formatMoney("25000"))
	assert.Equal(t, "-1.000.000", formatMoney("-1000000"))
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "1.234,50", formatDecimal(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,00", formatDecimal(decimal.Zero))
	assert.Equal(t, "12,50", formatDecimal(decimal.RequireFromString("12.5")))
}
