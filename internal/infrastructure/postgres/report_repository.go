package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de agregación para el dashboard. Lee estado confirmado, sin bloqueos.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el repositorio de reportes.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// SumByKind total de cantidades de un tipo en [from, to]. 0 si no hay entradas.
func (r *ReportRepo) SumByKind(ctx context.Context, kind entity.LedgerKind, from, to time.Time) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)::bigint
		FROM ledger_entries
		WHERE kind = $1 AND created_at >= $2 AND created_at <= $3`,
		string(kind), from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum ledger %s: %w", kind, err)
	}
	return total, nil
}

// LowStock productos en o bajo su punto de reorden, los más críticos primero.
func (r *ReportRepo) LowStock(ctx context.Context, limit int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE current_stock <= reorder_level
		ORDER BY current_stock ASC, item_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	list, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	// El dashboard no muestra desglose por bodega; no se carga.
	return list, nil
}

// Recent últimas entradas del ledger con producto y usuario resueltos.
func (r *ReportRepo) Recent(ctx context.Context, limit int) ([]entity.LedgerEntryView, error) {
	return NewLedgerRepository(r.q).List(ctx, repository.LedgerFilter{Limit: limit})
}
