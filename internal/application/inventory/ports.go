package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback completo en cualquier otro caso (incluidos errores de validación).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}

// EventPublisher publica una entrada del ledger ya confirmada. Es best-effort:
// un fallo nunca revierte la mutación.
type EventPublisher interface {
	PublishEntry(ctx context.Context, product *entity.Product, entry *entity.LedgerEntry) error
}

// NopPublisher descarta los eventos (sin broker configurado).
type NopPublisher struct{}

// PublishEntry no hace nada.
func (NopPublisher) PublishEntry(context.Context, *entity.Product, *entity.LedgerEntry) error {
	return nil
}
