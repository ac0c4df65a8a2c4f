package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/catalogsearch/internal/domain"
)

const productColumns = `
	SELECT p.id, p.name, p.status, p.rating, p.description, b.id, b.name,
		s.product_id, s.screen, s.rear_camera, s.front_camera, s.chipset,
		s.ram, s.storage, s.battery, s.os, s.weight
	FROM products p
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN specifications s ON s.product_id = p.id`

// Repo is the read-only catalog repository.
type Repo struct {
	db DB
}

// New creates a catalog repository.
func New(db DB) *Repo {
	return &Repo{db: db}
}

// Ping checks catalog connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	return nil
}

// ListBrands returns all brands ordered by name.
func (r *Repo) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM brands ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	var out []domain.Brand
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}
	return out, nil
}

// ListProducts returns every product with its prices and specification,
// ordered by id.
func (r *Repo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := r.queryProducts(ctx, productColumns+` ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	if err := r.attachPrices(ctx, products, nil); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductsByIDs loads the given products. Unknown ids are skipped; the
// result follows the order of ids.
func (r *Repo) ProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	in, args := inClause(ids, 1)
	products, err := r.queryProducts(ctx, productColumns+` WHERE p.id IN (`+in+`)`, args...)
	if err != nil {
		return nil, err
	}
	if err := r.attachPrices(ctx, products, ids); err != nil {
		return nil, err
	}
	return orderByIDs(products, ids), nil
}

// ProductsByBrand returns up to limit products of a brand (matched
// case-insensitively), newest active price first. Products without an active
// price come last.
func (r *Repo) ProductsByBrand(ctx context.Context, brand string, limit int) ([]domain.Product, error) {
	if limit <= 0 || strings.TrimSpace(brand) == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		LEFT JOIN prices pr ON pr.product_id = p.id AND pr.is_active = TRUE
		WHERE LOWER(b.name) = LOWER($1)
		GROUP BY p.id
		ORDER BY MAX(pr.start_date) IS NULL, MAX(pr.start_date) DESC, p.id
		LIMIT $2`, strings.TrimSpace(brand), limit)
	if err != nil {
		return nil, fmt.Errorf("query products by brand %q: %w", brand, err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products by brand: %w", err)
	}

	return r.ProductsByIDs(ctx, ids)
}

func (r *Repo) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func scanProduct(rows *sql.Rows) (domain.Product, error) {
	var (
		p                       domain.Product
		status, desc, brandName sql.NullString
		rating                  sql.NullFloat64
		brandID, specProductID  sql.NullInt64
		spec                    [9]sql.NullString
	)
	err := rows.Scan(
		&p.ID, &p.Name, &status, &rating, &desc, &brandID, &brandName,
		&specProductID, &spec[0], &spec[1], &spec[2], &spec[3],
		&spec[4], &spec[5], &spec[6], &spec[7], &spec[8],
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}

	p.Status = status.String
	p.Rating = rating.Float64
	p.Description = desc.String
	if brandID.Valid {
		p.Brand = &domain.Brand{ID: brandID.Int64, Name: brandName.String}
	}
	if specProductID.Valid {
		p.Spec = &domain.Specification{
			Screen:      spec[0].String,
			RearCamera:  spec[1].String,
			FrontCamera: spec[2].String,
			Chipset:     spec[3].String,
			RAM:         spec[4].String,
			Storage:     spec[5].String,
			Battery:     spec[6].String,
			OS:          spec[7].String,
			Weight:      spec[8].String,
		}
	}
	return p, nil
}

// attachPrices loads prices for products. A nil ids slice loads every price.
func (r *Repo) attachPrices(ctx context.Context, products []domain.Product, ids []int64) error {
	if len(products) == 0 {
		return nil
	}

	query := `SELECT id, product_id, amount, is_active, start_date FROM prices`
	var args []any
	if ids != nil {
		var in string
		in, args = inClause(ids, 1)
		query += ` WHERE product_id IN (` + in + `)`
	}
	query += ` ORDER BY product_id, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for rows.Next() {
		var (
			pr        domain.Price
			productID int64
			start     sql.NullTime
		)
		if err := rows.Scan(&pr.ID, &productID, &pr.Amount, &pr.Active, &start); err != nil {
			return fmt.Errorf("scan price: %w", err)
		}
		if start.Valid {
			pr.StartDate = start.Time
		}
		if p, ok := byID[productID]; ok {
			p.Prices = append(p.Prices, pr)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate prices: %w", err)
	}
	return nil
}

// inClause renders "$n, $n+1, ..." placeholders in ascending order, which both
// lib/pq and go-sqlite3 bind positionally.
func inClause(ids []int64, first int) (string, []any) {
	var b strings.Builder
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(first + i))
		args[i] = id
	}
	return b.String(), args
}

func orderByIDs(products []domain.Product, ids []int64) []domain.Product {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]domain.Product, 0, len(products))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out
}
