package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Product, error) {
	query :=
		`SELECT p.article, p.name, p.description, p.seller_name, p.price, p.rating, p.image_key,
		        p.created_at, COALESCE(c.quantity, 0)
		 FROM products p
		 LEFT JOIN cart_items c ON c.article = p.article AND c.user_id::text = $1
		 ORDER BY p.article
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.Article, &p.Name, &p.Description, &p.SellerName, &p.Price, &p.Rating,
			&p.ImageKey, &p.CreatedAt, &p.Quantity); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, article string) (*models.Product, error) {
	query :=
		`SELECT article, name, description, seller_name, price, rating, image_key, created_at
		 FROM products
		 WHERE article = $1
		 `

	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, article).
		Scan(&p.Article, &p.Name, &p.Description, &p.SellerName, &p.Price, &p.Rating, &p.ImageKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Create inserts p. The article comes from the product sequence, zero-padded
// to four digits.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query :=
		`INSERT INTO products (name, description, seller_name, price, rating, image_key)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING article, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.SellerName, p.Price, p.Rating, p.ImageKey).
		Scan(&p.Article, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
