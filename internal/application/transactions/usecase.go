// Package transactions expone el lado de lectura del ledger: listados, detalle,
// factura adjunta, auditoría de saldos y exportación a PDF.
package transactions

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/identifier"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// pdfMaxEntries tope de filas del reporte PDF.
const pdfMaxEntries = 1000

// LedgerUseCase consultas de solo lectura sobre el ledger.
type LedgerUseCase struct {
	ledgerRepo  repository.LedgerRepository
	productRepo repository.ProductRepository
	pdf         LedgerPDFGenerator
	now         func() time.Time
}

// NewLedgerUseCase construye el caso de uso. pdf puede ser nil si no se exporta.
func NewLedgerUseCase(ledgerRepo repository.LedgerRepository, productRepo repository.ProductRepository, pdf LedgerPDFGenerator) *LedgerUseCase {
	return &LedgerUseCase{ledgerRepo: ledgerRepo, productRepo: productRepo, pdf: pdf, now: time.Now}
}

// List entradas filtradas, más recientes primero.
func (uc *LedgerUseCase) List(ctx context.Context, in dto.LedgerListRequest) (*dto.LedgerListResponse, error) {
	filter, err := uc.filter(ctx, in)
	if err != nil {
		return nil, err
	}
	views, err := uc.ledgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LedgerEntryResponse, 0, len(views))
	for _, v := range views {
		items = append(items, dto.NewLedgerEntryViewResponse(v))
	}
	return &dto.LedgerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// Get una entrada con producto y usuario resueltos.
func (uc *LedgerUseCase) Get(ctx context.Context, id string) (*dto.LedgerEntryResponse, error) {
	v, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewLedgerEntryViewResponse(*v)
	return &out, nil
}

// GetInvoice referencia de la factura adjunta; ErrNotFound si la entrada no tiene factura.
func (uc *LedgerUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceDTO, error) {
	v, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Invoice == nil || v.Invoice.FileURL == "" {
		return nil, domain.ErrNotFound
	}
	return &dto.InvoiceDTO{FileURL: v.Invoice.FileURL, FileName: v.Invoice.FileName, FileMimeType: v.Invoice.FileMimeType}, nil
}

// Replay reconstruye la línea de tiempo de saldos y verifica que el último balance_after
// coincida con el stock actual del producto.
func (uc *LedgerUseCase) Replay(ctx context.Context, ref string) (*dto.LedgerAuditResponse, error) {
	product, err := uc.resolveProduct(ctx, ref)
	if err != nil {
		return nil, err
	}
	history, err := uc.ledgerRepo.History(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	audit := inventory.Replay(product, history)
	points := make([]dto.BalancePointDTO, 0, len(audit.Points))
	for _, p := range audit.Points {
		points = append(points, dto.BalancePointDTO{
			EntryID:      p.EntryID,
			Kind:         string(p.Kind),
			Quantity:     p.Quantity,
			Delta:        p.Delta,
			BalanceAfter: p.BalanceAfter,
			Consistent:   p.Consistent,
			CreatedAt:    p.CreatedAt,
		})
	}
	broken := audit.Broken
	if broken == nil {
		broken = []string{}
	}
	return &dto.LedgerAuditResponse{
		ProductID:     audit.ProductID,
		CurrentStock:  audit.CurrentStock,
		LatestBalance: audit.LatestBalance,
		Consistent:    audit.Consistent,
		BrokenEntries: broken,
		Timeline:      points,
	}, nil
}

// ExportPDF renderiza el ledger filtrado.
func (uc *LedgerUseCase) ExportPDF(ctx context.Context, in dto.LedgerListRequest) ([]byte, error) {
	if uc.pdf == nil {
		return nil, domain.ErrStorage
	}
	filter, err := uc.filter(ctx, in)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = pdfMaxEntries, 0
	views, err := uc.ledgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	report := LedgerReport{
		Title:         "Movimientos de inventario",
		From:          filter.From,
		To:            filter.To,
		GeneratedAt:   uc.now(),
		Entries:       views,
		ProcuredValue: decimal.Zero,
	}
	for _, v := range views {
		switch v.Kind {
		case entity.KindProcure:
			report.TotalProcured += v.Quantity
			if v.UnitPrice != nil {
				report.ProcuredValue = report.ProcuredValue.Add(v.UnitPrice.Mul(decimal.NewFromInt(v.Quantity)))
			}
		case entity.KindDistribute:
			report.TotalDistributed += v.Quantity
		}
	}
	return uc.pdf.GenerateLedgerPDF(ctx, report)
}

func (uc *LedgerUseCase) get(ctx context.Context, id string) (*entity.LedgerEntryView, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Invalid("id", "requerido")
	}
	v, err := uc.ledgerRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (uc *LedgerUseCase) filter(ctx context.Context, in dto.LedgerListRequest) (repository.LedgerFilter, error) {
	in.PageRequest.DefaultPage()
	f := repository.LedgerFilter{Limit: in.Limit, Offset: in.Offset}

	if kind := entity.LedgerKind(strings.ToLower(strings.TrimSpace(in.Kind))); kind != "" {
		if !kind.Valid() {
			return f, domain.Invalid("kind", "debe ser procure, distribute o adjustment")
		}
		f.Kind = kind
	}
	from, err := dto.ParseDateParam(in.From, false)
	if err != nil {
		return f, domain.Invalid("from", "fecha inválida")
	}
	to, err := dto.ParseDateParam(in.To, true)
	if err != nil {
		return f, domain.Invalid("to", "fecha inválida")
	}
	if from != nil && to != nil && to.Before(*from) {
		return f, domain.Invalid("to", "anterior a from")
	}
	f.From, f.To = from, to

	if ref := strings.TrimSpace(in.ProductID); ref != "" {
		product, err := uc.resolveProduct(ctx, ref)
		if err != nil {
			return f, err
		}
		f.ProductID = product.ID
	}
	return f, nil
}

func (uc *LedgerUseCase) resolveProduct(ctx context.Context, ref string) (*entity.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.Invalid("product_id", "requerido")
	}
	p, err := uc.productRepo.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if p, err = uc.productRepo.GetByItemID(ctx, identifier.NormalizeItemID(ref)); err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
