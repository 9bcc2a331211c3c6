package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LedgerFilter filtros del listado de entradas del ledger.
type LedgerFilter struct {
	ProductID string
	Kind      entity.LedgerKind
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// LedgerRepository puerto del ledger append-only. No expone Update ni Delete.
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntryView, error)
	// List devuelve entradas resueltas, más recientes primero.
	List(ctx context.Context, filter LedgerFilter) ([]entity.LedgerEntryView, error)
	// History devuelve todas las entradas de un producto en orden de creación ascendente.
	History(ctx context.Context, productID string) ([]entity.LedgerEntry, error)
}
