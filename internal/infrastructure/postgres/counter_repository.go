package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo contadores durables de identificadores (tabla id_counters).
type CounterRepo struct {
	q Querier
}

// NewCounterRepository construye el adaptador de contadores.
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// Next incrementa y devuelve el contador de key en una sola sentencia. El primer valor es 1.
// El upsert toma el bloqueo de la fila, así dos llamadas concurrentes nunca leen el mismo valor.
func (r *CounterRepo) Next(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO id_counters (key, seq) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET seq = id_counters.seq + 1
		RETURNING seq`, key).Scan(&seq)
	if err != nil {
		return 0, classify("next counter", fmt.Errorf("%s: %w", key, err))
	}
	return seq, nil
}
