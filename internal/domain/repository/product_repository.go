package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ProductFilter filtros del listado de productos.
type ProductFilter struct {
	Query  string // contiene en el nombre, sin distinguir mayúsculas
	Limit  int
	Offset int
}

// ProductRepository define el puerto de persistencia del registro de productos (DIP).
// Las implementaciones se atan a un pool (lecturas) o a una transacción (mutaciones).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate obtiene el producto y bloquea su fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetByItemID(ctx context.Context, itemID string) (*entity.Product, error)
	// UpdateCatalog actualiza solo campos descriptivos; nunca stock ni itemId.
	UpdateCatalog(ctx context.Context, product *entity.Product) error
	// UpdateStock persiste CurrentStock y el desglose por bodega.
	UpdateStock(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	// Delete elimina el producto; ErrNotFound si no existe. El ledger no se toca.
	Delete(ctx context.Context, id string) error
}
