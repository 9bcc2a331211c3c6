package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ReportRepository consultas de solo lectura sobre el estado confirmado (sin bloqueos).
type ReportRepository interface {
	// SumByKind suma las cantidades de un tipo de entrada en [from, to].
	SumByKind(ctx context.Context, kind entity.LedgerKind, from, to time.Time) (int64, error)
	// LowStock productos con currentStock <= reorderLevel, como máximo limit.
	LowStock(ctx context.Context, limit int) ([]*entity.Product, error)
	// Recent últimas limit entradas con producto e usuario resueltos.
	Recent(ctx context.Context, limit int) ([]entity.LedgerEntryView, error)
}
