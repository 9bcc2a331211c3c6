package repository

import "context"

// CounterRepository contador durable por clave. Next incrementa y lee en un único paso atómico.
type CounterRepository interface {
	Next(ctx context.Context, key string) (int64, error)
}
