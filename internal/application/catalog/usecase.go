package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/identifier"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// maxIDAttempts reintentos cuando un identificador generado choca con uno explícito ya existente.
const maxIDAttempts = 3

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}

// ProductUseCase casos de uso del registro de productos. El stock solo cambia vía ledger.
type ProductUseCase struct {
	repo     repository.ProductRepository
	counters repository.CounterRepository
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, counters repository.CounterRepository, txRunner TxRunner, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{
		repo:     repo,
		counters: counters,
		txRunner: txRunner,
		log:      log.Component("catalog"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ProductUseCase) WithClock(now func() time.Time) *ProductUseCase {
	uc.now = now
	return uc
}

// NextIdentifier reserva el siguiente identificador para (categoría, año).
// El incremento y la lectura son un único paso atómico en el contador.
func (uc *ProductUseCase) NextIdentifier(ctx context.Context, category string, year int) (string, error) {
	seq, err := uc.counters.Next(ctx, identifier.CounterKey(category, year))
	if err != nil {
		return "", err
	}
	return identifier.Format(category, year, seq), nil
}

// Create registra un producto. Sin item_id se genera uno; con initial_stock > 0 se escribe
// un ajuste desde 0 en la misma transacción para que el ledger refleje el stock desde el inicio.
func (uc *ProductUseCase) Create(ctx context.Context, caller entity.Caller, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "requerido")
	}
	if in.ReorderLevel < 0 {
		return nil, domain.Invalid("reorder_level", "debe ser mayor o igual a 0")
	}
	if in.InitialStock < 0 {
		return nil, domain.Invalid("initial_stock", "debe ser mayor o igual a 0")
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		return nil, domain.Invalid("metadata", "JSON inválido")
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = entity.DefaultUnit
	}
	category := identifier.NormalizeCategory(in.Category)
	explicit := identifier.NormalizeItemID(in.ItemID)

	for attempt := 1; ; attempt++ {
		itemID := explicit
		if itemID == "" {
			var err error
			itemID, err = uc.NextIdentifier(ctx, category, uc.now().Year())
			if err != nil {
				return nil, err
			}
		}
		now := uc.now().UTC()
		product := &entity.Product{
			ID:           uuid.New().String(),
			ItemID:       itemID,
			Name:         name,
			Category:     category,
			Description:  in.Description,
			Unit:         unit,
			CurrentStock: in.InitialStock,
			ReorderLevel: in.ReorderLevel,
			Metadata:     in.Metadata,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := uc.create(ctx, caller, product)
		if err == nil {
			uc.log.Info().Str("product_id", product.ID).Str("item_id", product.ItemID).
				Int64("initial_stock", product.CurrentStock).Msg("producto creado")
			return dto.NewProductResponse(product), nil
		}
		if !errors.Is(err, domain.ErrDuplicate) || explicit != "" || attempt >= maxIDAttempts {
			return nil, err
		}
		uc.log.Warn().Str("item_id", itemID).Msg("identificador generado ya existe, se reserva otro")
	}
}

func (uc *ProductUseCase) create(ctx context.Context, caller entity.Caller, product *entity.Product) error {
	return uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, ledgerRepo repository.LedgerRepository) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if product.CurrentStock == 0 {
			return nil
		}
		return ledgerRepo.Append(ctx, &entity.LedgerEntry{
			ID:              uuid.New().String(),
			ProductID:       product.ID,
			Kind:            entity.KindAdjustment,
			Quantity:        product.CurrentStock,
			BalanceAfter:    product.CurrentStock,
			PerformedBy:     caller.ID,
			PerformedByRole: caller.Role,
			Notes:           "stock inicial",
			CreatedAt:       product.CreatedAt,
		})
	})
}

// GetByID obtiene un producto por id interno o item_id.
func (uc *ProductUseCase) GetByID(ctx context.Context, ref string) (*dto.ProductResponse, error) {
	product, err := uc.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return dto.NewProductResponse(product), nil
}

// Update actualiza campos descriptivos. Stock e item_id no se modifican por aquí.
func (uc *ProductUseCase) Update(ctx context.Context, ref string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name", "no puede quedar vacío")
		}
		product.Name = name
	}
	if in.Category != nil {
		product.Category = identifier.NormalizeCategory(*in.Category)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
		product.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, domain.Invalid("reorder_level", "debe ser mayor o igual a 0")
		}
		product.ReorderLevel = *in.ReorderLevel
	}
	if len(in.Metadata) > 0 {
		if !json.Valid(in.Metadata) {
			return nil, domain.Invalid("metadata", "JSON inválido")
		}
		product.Metadata = in.Metadata
	}
	product.UpdatedAt = uc.now().UTC()
	if err := uc.repo.UpdateCatalog(ctx, product); err != nil {
		return nil, err
	}
	return dto.NewProductResponse(product), nil
}

// List lista productos filtrando por nombre.
func (uc *ProductUseCase) List(ctx context.Context, query string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, repository.ProductFilter{
		Query:  strings.TrimSpace(query),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *dto.NewProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Delete elimina el producto. Sus entradas del ledger se conservan.
func (uc *ProductUseCase) Delete(ctx context.Context, ref string) error {
	product, err := uc.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, product.ID); err != nil {
		return err
	}
	uc.log.Info().Str("product_id", product.ID).Str("item_id", product.ItemID).Msg("producto eliminado")
	return nil
}

func (uc *ProductUseCase) resolve(ctx context.Context, ref string) (*entity.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.Invalid("id", "requerido")
	}
	product, err := uc.repo.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if product == nil {
		product, err = uc.repo.GetByItemID(ctx, identifier.NormalizeItemID(ref))
		if err != nil {
			return nil, err
		}
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}
