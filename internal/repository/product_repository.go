package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductFilter carries the optional catalog query filters. Nil or zero
// fields are skipped.
type ProductFilter struct {
	Category   string
	Gender     string
	Featured   *bool
	BestSeller *bool
	NewArrival *bool
	Search     string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, discount_price, category, gender, sizes, colors, images, featured, is_best_seller, is_new_arrival, created_at, updated_at`

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := fmt.Sprintf(`
		INSERT INTO products (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, productColumns)

	sizes, colors, images, err := marshalProductLists(product)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.DiscountPrice,
		product.Category,
		product.Gender,
		sizes,
		colors,
		images,
		product.Featured,
		product.IsBestSeller,
		product.IsNewArrival,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in place using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, discount_price = $5,
		    category = $6, gender = $7, sizes = $8, colors = $9, images = $10,
		    featured = $11, is_best_seller = $12, is_new_arrival = $13, updated_at = $14
		WHERE id = $1
	`

	sizes, colors, images, err := marshalProductLists(product)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.DiscountPrice,
		product.Category,
		product.Gender,
		sizes,
		colors,
		images,
		product.Featured,
		product.IsBestSeller,
		product.IsNewArrival,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product row entirely. Orders keep denormalized snapshots,
// so no cascade check is needed; live carts referencing the product fall back
// to their stored snapshot.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products matching the filter. Category matches exactly,
// gender matches exactly or falls back to unisex, boolean flags match when
// set, and search does a case-insensitive substring match across name,
// description, and category.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	conds := &conditionSet{}

	if filter.Category != "" {
		conds.add("category = $%d", filter.Category)
	}
	if filter.Gender != "" {
		conds.add("(gender = $%d OR gender = 'unisex')", filter.Gender)
	}
	if filter.Featured != nil {
		conds.add("featured = $%d", *filter.Featured)
	}
	if filter.BestSeller != nil {
		conds.add("is_best_seller = $%d", *filter.BestSeller)
	}
	if filter.NewArrival != nil {
		conds.add("is_new_arrival = $%d", *filter.NewArrival)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := "%" + filter.Search + "%"
		conds.add("(name ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)", pattern, pattern, pattern)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
	`, productColumns, conds.where())

	rows, err := r.db.QueryContext(ctx, query, conds.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var sizes, colors, images []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.DiscountPrice,
		&product.Category,
		&product.Gender,
		&sizes,
		&colors,
		&images,
		&product.Featured,
		&product.IsBestSeller,
		&product.IsNewArrival,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sizes, &product.Sizes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sizes: %w", err)
	}
	if err := json.Unmarshal(colors, &product.Colors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal colors: %w", err)
	}
	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}

	return product, nil
}

func marshalProductLists(product *domain.Product) (sizes, colors, images []byte, err error) {
	if product.Sizes == nil {
		product.Sizes = []string{}
	}
	if product.Colors == nil {
		product.Colors = []domain.Color{}
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if sizes, err = json.Marshal(product.Sizes); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal sizes: %w", err)
	}
	if colors, err = json.Marshal(product.Colors); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal colors: %w", err)
	}
	if images, err = json.Marshal(product.Images); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	return sizes, colors, images, nil
}
