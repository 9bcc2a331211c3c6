package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `l.id, l.product_id, l.kind, l.quantity, l.unit_price, l.balance_after, l.warehouse_code,
	l.performed_by, l.performed_by_role, l.notes, l.invoice_url, l.invoice_name, l.invoice_mime, l.created_at`

const ledgerViewSelect = `
	SELECT ` + ledgerColumns + `,
		COALESCE(p.item_id, ''), COALESCE(p.name, ''), COALESCE(u.name, ''), COALESCE(u.email, '')
	FROM ledger_entries l
	LEFT JOIN products p ON p.id = l.product_id
	LEFT JOIN users u ON u.id::text = l.performed_by`

// LedgerRepo ledger append-only sobre PostgreSQL. Un trigger rechaza UPDATE y DELETE en la tabla.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta una entrada. Se llama en la misma tx que UpdateStock.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	var invURL, invName, invMime *string
	if e.Invoice != nil {
		invURL, invName, invMime = &e.Invoice.FileURL, &e.Invoice.FileName, &e.Invoice.FileMimeType
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO ledger_entries (id, product_id, kind, quantity, unit_price, balance_after, warehouse_code,
			performed_by, performed_by_role, notes, invoice_url, invoice_name, invoice_mime, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.ProductID, string(e.Kind), e.Quantity, e.UnitPrice, e.BalanceAfter, e.WarehouseCode,
		e.PerformedBy, e.PerformedByRole, e.Notes, invURL, invName, invMime, e.CreatedAt,
	)
	if err != nil {
		return classify("insert ledger entry", err)
	}
	return nil
}

// GetByID entrada con producto y usuario resueltos. (nil, nil) si no existe.
func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntryView, error) {
	if !validUUID(id) {
		return nil, nil
	}
	v, err := scanLedgerView(r.q.QueryRow(ctx, ledgerViewSelect+` WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return v, nil
}

// List entradas filtradas, más recientes primero. Usa el índice (product_id, created_at desc)
// o (kind, created_at) según el filtro.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]entity.LedgerEntryView, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		if !validUUID(f.ProductID) {
			return []entity.LedgerEntryView{}, nil
		}
		add("l.product_id = $%d", f.ProductID)
	}
	if f.Kind != "" {
		add("l.kind = $%d", string(f.Kind))
	}
	if f.From != nil {
		add("l.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("l.created_at <= $%d", *f.To)
	}
	query := ledgerViewSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY l.seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	out := make([]entity.LedgerEntryView, 0)
	for rows.Next() {
		v, err := scanLedgerView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// History todas las entradas de un producto en orden de inserción (seq), no por reloj de aplicación.
func (r *LedgerRepo) History(ctx context.Context, productID string) ([]entity.LedgerEntry, error) {
	if !validUUID(productID) {
		return []entity.LedgerEntry{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries l
		WHERE l.product_id = $1
		ORDER BY l.seq`, productID)
	if err != nil {
		return nil, fmt.Errorf("ledger history: %w", err)
	}
	defer rows.Close()
	out := make([]entity.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// scanLedgerEntry lee las columnas de ledgerColumns. Las columnas de factura son NULL si no hay.
func scanLedgerEntry(row pgx.Row, extra ...any) (*entity.LedgerEntry, error) {
	var (
		e                      entity.LedgerEntry
		kind                   string
		invURL, invName, invMT *string
	)
	dest := []any{
		&e.ID, &e.ProductID, &kind, &e.Quantity, &e.UnitPrice, &e.BalanceAfter, &e.WarehouseCode,
		&e.PerformedBy, &e.PerformedByRole, &e.Notes, &invURL, &invName, &invMT, &e.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.Kind = entity.LedgerKind(kind)
	if invURL != nil {
		e.Invoice = &entity.InvoiceRef{FileURL: *invURL}
		if invName != nil {
			e.Invoice.FileName = *invName
		}
		if invMT != nil {
			e.Invoice.FileMimeType = *invMT
		}
	}
	return &e, nil
}

func scanLedgerView(row pgx.Row) (*entity.LedgerEntryView, error) {
	var v entity.LedgerEntryView
	e, err := scanLedgerEntry(row, &v.ProductItemID, &v.ProductName, &v.PerformerName, &v.PerformerEmail)
	if err != nil {
		return nil, err
	}
	v.LedgerEntry = *e
	return &v, nil
}
