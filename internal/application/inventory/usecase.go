package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/identifier"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// MutationUseCase protocolo de mutación de stock: procure, distribute, adjust y desglose por bodega.
// Cada operación es una única transacción: bloqueo de fila del producto (SELECT FOR UPDATE),
// validación, actualización del producto y alta de la entrada del ledger; Commit o Rollback completo.
type MutationUseCase struct {
	txRunner   TxRunner
	publisher  EventPublisher
	log        *logger.Logger
	maxRetries int
	now        func() time.Time
}

// NewMutationUseCase construye el caso de uso. maxRetries acota los reintentos ante conflictos
// de serialización o deadlock reportados por el almacenamiento.
func NewMutationUseCase(txRunner TxRunner, publisher EventPublisher, log *logger.Logger, maxRetries int) *MutationUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &MutationUseCase{
		txRunner:   txRunner,
		publisher:  publisher,
		log:        log.Component("inventory"),
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *MutationUseCase) WithClock(now func() time.Time) *MutationUseCase {
	uc.now = now
	return uc
}

// ProcureInput entrada de stock.
type ProcureInput struct {
	ProductID     string
	Quantity      int64
	UnitPrice     *decimal.Decimal
	WarehouseCode string
	Notes         string
	Invoice       *entity.InvoiceRef
}

// DistributeInput salida de stock.
type DistributeInput struct {
	ProductID     string
	Quantity      int64
	WarehouseCode string
	Notes         string
	Invoice       *entity.InvoiceRef
}

// AdjustInput corrección del stock a un valor absoluto.
type AdjustInput struct {
	ProductID     string
	NewStock      int64
	WarehouseCode string
	Notes         string
}

// WarehouseBreakdownInput reemplazo completo del desglose por bodega.
type WarehouseBreakdownInput struct {
	ProductID string
	Entries   []entity.WarehouseStock
	Notes     string
}

// Result producto actualizado y entrada del ledger creada en la misma transacción.
type Result struct {
	Product *entity.Product
	Entry   *entity.LedgerEntry
}

// Procure suma quantity al stock. Falla con ErrInvalidInput si quantity <= 0 y ErrNotFound si el producto no existe.
func (uc *MutationUseCase) Procure(ctx context.Context, caller entity.Caller, in ProcureInput) (*Result, error) {
	if err := requireProduct(in.ProductID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que 0")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, domain.Invalid("unitPrice", "no puede ser negativo")
	}
	if err := validateInvoice(in.Invoice); err != nil {
		return nil, err
	}
	return uc.mutate(ctx, caller, in.ProductID,
		func(p *entity.Product) (inventory.Change, error) {
			return inventory.PlanProcure(p, in.Quantity, in.WarehouseCode)
		},
		func(e *entity.LedgerEntry) {
			e.UnitPrice = in.UnitPrice
			e.Notes = in.Notes
			e.Invoice = in.Invoice
		})
}

// Distribute resta quantity del stock. Falla con ErrInsufficientStock si el resultado fuera negativo.
func (uc *MutationUseCase) Distribute(ctx context.Context, caller entity.Caller, in DistributeInput) (*Result, error) {
	if err := requireProduct(in.ProductID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que 0")
	}
	if err := validateInvoice(in.Invoice); err != nil {
		return nil, err
	}
	return uc.mutate(ctx, caller, in.ProductID,
		func(p *entity.Product) (inventory.Change, error) {
			return inventory.PlanDistribute(p, in.Quantity, in.WarehouseCode)
		},
		func(e *entity.LedgerEntry) {
			e.Notes = in.Notes
			e.Invoice = in.Invoice
		})
}

// Adjust fija el stock en NewStock; la entrada registra |NewStock - stock anterior|.
func (uc *MutationUseCase) Adjust(ctx context.Context, caller entity.Caller, in AdjustInput) (*Result, error) {
	if err := requireProduct(in.ProductID); err != nil {
		return nil, err
	}
	if in.NewStock < 0 {
		return nil, domain.Invalid("newStock", "debe ser mayor o igual a 0")
	}
	return uc.mutate(ctx, caller, in.ProductID,
		func(p *entity.Product) (inventory.Change, error) {
			return inventory.PlanAdjustment(p, in.NewStock, in.WarehouseCode)
		},
		func(e *entity.LedgerEntry) { e.Notes = in.Notes })
}

// SetWarehouseBreakdown reemplaza el desglose por bodega y ajusta el stock total a su suma,
// registrando un ajuste en el ledger dentro de la misma transacción.
func (uc *MutationUseCase) SetWarehouseBreakdown(ctx context.Context, caller entity.Caller, in WarehouseBreakdownInput) (*Result, error) {
	if err := requireProduct(in.ProductID); err != nil {
		return nil, err
	}
	var entries []entity.WarehouseStock
	return uc.run(ctx, caller, in.ProductID,
		func(p *entity.Product) (inventory.Change, error) {
			normalized, ch, err := inventory.PlanWarehouseBreakdown(p, in.Entries)
			if err != nil {
				return inventory.Change{}, err
			}
			entries = normalized
			return ch, nil
		},
		func(p *entity.Product, ch inventory.Change) error {
			return inventory.ApplyBreakdown(p, entries, ch)
		},
		func(e *entity.LedgerEntry) { e.Notes = in.Notes })
}

func (uc *MutationUseCase) mutate(
	ctx context.Context,
	caller entity.Caller,
	productID string,
	plan func(*entity.Product) (inventory.Change, error),
	decorate func(*entity.LedgerEntry),
) (*Result, error) {
	return uc.run(ctx, caller, productID, plan, inventory.Apply, decorate)
}

// run ejecuta el protocolo completo con reintentos ante conflicto de almacenamiento.
// Cada intento vuelve a leer y validar el producto bajo bloqueo.
func (uc *MutationUseCase) run(
	ctx context.Context,
	caller entity.Caller,
	productID string,
	plan func(*entity.Product) (inventory.Change, error),
	apply func(*entity.Product, inventory.Change) error,
	decorate func(*entity.LedgerEntry),
) (*Result, error) {
	var (
		res *Result
		err error
	)
	for attempt := 0; attempt <= uc.maxRetries; attempt++ {
		res, err = uc.attempt(ctx, caller, productID, plan, apply, decorate)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			break
		}
		uc.log.Warn().Err(err).Str("product_id", productID).Int("attempt", attempt+1).
			Msg("conflicto de escritura, reintentando mutación")
	}
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) && !errors.Is(err, domain.ErrNotFound) {
			uc.log.Error().Err(err).Str("product_id", productID).Msg("mutación de stock revertida")
		}
		return nil, err
	}

	uc.log.Info().
		Str("product_id", res.Product.ID).
		Str("kind", string(res.Entry.Kind)).
		Int64("quantity", res.Entry.Quantity).
		Int64("balance_after", res.Entry.BalanceAfter).
		Str("performed_by", res.Entry.PerformedBy).
		Msg("entrada de ledger confirmada")

	if perr := uc.publisher.PublishEntry(ctx, res.Product, res.Entry); perr != nil {
		uc.log.Warn().Err(perr).Str("entry_id", res.Entry.ID).Msg("no se pudo publicar el evento del ledger")
	}
	return res, nil
}

func (uc *MutationUseCase) attempt(
	ctx context.Context,
	caller entity.Caller,
	productID string,
	plan func(*entity.Product) (inventory.Change, error),
	apply func(*entity.Product, inventory.Change) error,
	decorate func(*entity.LedgerEntry),
) (*Result, error) {
	var res *Result
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		// Bloquea la fila del producto: ninguna otra mutación del mismo producto intercala lectura y escritura.
		product, err := lockProduct(ctx, productRepo, productID)
		if err != nil {
			return err
		}
		ch, err := plan(product)
		if err != nil {
			return err
		}
		if err := apply(product, ch); err != nil {
			return err
		}
		now := uc.now().UTC()
		product.UpdatedAt = now
		if err := productRepo.UpdateStock(ctx, product); err != nil {
			return err
		}
		entry := &entity.LedgerEntry{
			ID:              uuid.New().String(),
			ProductID:       product.ID,
			Kind:            ch.Kind,
			Quantity:        ch.Quantity,
			BalanceAfter:    product.CurrentStock,
			WarehouseCode:   ch.WarehouseCode,
			PerformedBy:     caller.ID,
			PerformedByRole: caller.Role,
			CreatedAt:       now,
		}
		decorate(entry)
		if err := ledgerRepo.Append(ctx, entry); err != nil {
			return err
		}
		res = &Result{Product: product, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// lockProduct resuelve la referencia (id interno o item_id) y bloquea la fila del producto.
func lockProduct(ctx context.Context, repo repository.ProductRepository, ref string) (*entity.Product, error) {
	product, err := repo.GetForUpdate(ctx, ref)
	if err != nil {
		return nil, err
	}
	if product == nil {
		byItem, err := repo.GetByItemID(ctx, identifier.NormalizeItemID(ref))
		if err != nil {
			return nil, err
		}
		if byItem != nil {
			product, err = repo.GetForUpdate(ctx, byItem.ID)
			if err != nil {
				return nil, err
			}
		}
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// retryable conflictos transaccionales (serialización, deadlock); no colisiones de identificador.
func retryable(err error) bool {
	return errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrDuplicate)
}

func requireProduct(id string) error {
	if id == "" {
		return domain.Invalid("productId", "requerido")
	}
	return nil
}

func validateInvoice(inv *entity.InvoiceRef) error {
	if inv == nil {
		return nil
	}
	if inv.FileURL == "" {
		return domain.Invalid("invoice.fileUrl", "requerido cuando se adjunta factura")
	}
	return nil
}
