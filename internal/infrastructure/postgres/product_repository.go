package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, item_id, name, category, description, unit, current_stock, reorder_level, metadata, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto con su desglose por bodega.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ItemID, p.Name, p.Category, p.Description, p.Unit,
		p.CurrentStock, p.ReorderLevel, metadataOrEmpty(p.Metadata), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return r.replaceWarehouses(ctx, p)
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto y bloquea su fila hasta el fin de la transacción (SELECT FOR UPDATE).
// Una segunda mutación del mismo producto espera aquí y lee el stock ya confirmado por la primera.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// GetByItemID obtiene un producto por su identificador legible.
func (r *ProductRepo) GetByItemID(ctx context.Context, itemID string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE item_id = $1`, itemID)
}

// UpdateCatalog actualiza solo los campos descriptivos.
func (r *ProductRepo) UpdateCatalog(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, category = $3, description = $4, unit = $5,
			reorder_level = $6, metadata = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.Description, p.Unit, p.ReorderLevel, metadataOrEmpty(p.Metadata), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock persiste current_stock y reemplaza el desglose por bodega. Debe ejecutarse
// dentro de la transacción que tomó el bloqueo con GetForUpdate.
func (r *ProductRepo) UpdateStock(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET current_stock = $2, updated_at = $3 WHERE id = $1`,
		p.ID, p.CurrentStock, p.UpdatedAt,
	)
	if err != nil {
		return classify("update product stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return r.replaceWarehouses(ctx, p)
}

// List lista productos filtrando por nombre (ILIKE) con paginación.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY item_id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, f.Query, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	list, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadWarehouses(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete elimina el producto; el desglose cae por cascada y el ledger no se toca.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if !validUUID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product", err)
	}
	if err := r.loadWarehouses(ctx, []*entity.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepo) replaceWarehouses(ctx context.Context, p *entity.Product) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM product_warehouse_stock WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear warehouse stock: %w", err)
	}
	for i, w := range p.StockByWarehouse {
		_, err := r.q.Exec(ctx, `
			INSERT INTO product_warehouse_stock (product_id, warehouse_code, quantity, position)
			VALUES ($1, $2, $3, $4)`,
			p.ID, w.WarehouseCode, w.Quantity, i,
		)
		if err != nil {
			return classify("insert warehouse stock", err)
		}
	}
	return nil
}

// loadWarehouses completa el desglose de varios productos con una sola consulta.
func (r *ProductRepo) loadWarehouses(ctx context.Context, list []*entity.Product) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Product, len(list))
	ids := make([]string, 0, len(list))
	for _, p := range list {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id::text, warehouse_code, quantity
		FROM product_warehouse_stock
		WHERE product_id::text = ANY($1)
		ORDER BY product_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list warehouse stock: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			productID string
			w         entity.WarehouseStock
		)
		if err := rows.Scan(&productID, &w.WarehouseCode, &w.Quantity); err != nil {
			return fmt.Errorf("scan warehouse stock: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.StockByWarehouse = append(p.StockByWarehouse, w)
		}
	}
	return rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p        entity.Product
		metadata []byte
	)
	err := row.Scan(
		&p.ID, &p.ItemID, &p.Name, &p.Category, &p.Description, &p.Unit,
		&p.CurrentStock, &p.ReorderLevel, &metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 && string(metadata) != "{}" {
		p.Metadata = json.RawMessage(metadata)
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func metadataOrEmpty(m json.RawMessage) []byte {
	if len(m) == 0 {
		return []byte("{}")
	}
	return m
}
