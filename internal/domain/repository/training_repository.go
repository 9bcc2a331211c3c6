package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// TrainingRepository puerto de persistencia de registros de capacitación.
type TrainingRepository interface {
	Create(ctx context.Context, t *entity.Training) error
	GetByID(ctx context.Context, id string) (*entity.Training, error)
	// Update guarda el nuevo estado y agrega la última versión de t.Versions.
	Update(ctx context.Context, t *entity.Training) error
	Delete(ctx context.Context, id string) error
	// ListByOwner ownerID vacío = todos; orden por dueño y actualización descendente.
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Training, error)
	// Each recorre los registros sin cargarlos todos en memoria (exportación).
	Each(ctx context.Context, ownerID string, fn func(*entity.Training) error) error
}
