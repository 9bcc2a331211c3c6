package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

func TestClassifyTx_FalloDeConexionEsStorage(t *testing.T) {
	ioErr := fmt.Errorf("ledger append: %w", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")})

	err := classifyTx("transaction", ioErr)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestClassifyTx_ErroresDeDominioSeConservan(t *testing.T) {
	err := classifyTx("transaction", domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrStorage)

	err = classifyTx("transaction", domain.Invalid("quantity", "debe ser mayor que 0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrStorage)
}

func TestClassifyTx_SerializacionEsConflicto(t *testing.T) {
	err := classifyTx("transaction", &pgconn.PgError{Code: codeSerializationFailure})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrStorage)
}

func TestClassifyTx_CheckViolationEsStockInsuficiente(t *testing.T) {
	err := classifyTx("transaction", fmt.Errorf("update stock: %w", &pgconn.PgError{Code: codeCheckViolation}))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestClassifyTx_CancelacionNoEsStorage(t *testing.T) {
	err := classifyTx("transaction", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrStorage)
}
