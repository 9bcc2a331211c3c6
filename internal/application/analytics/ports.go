package analytics

import (
	"context"
	"time"
)

// Cache almacenamiento clave/valor con expiración para resultados de reportes.
// Get retorna found=false si la clave no existe o expiró.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NopCache no guarda nada (cache deshabilitada).
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
