package products

import (
	"context"

	"github.com/fzon/storefront/internal/server/models"
)

type Repository interface {
	// List returns the catalog ordered by article with userID's cart
	// quantities. An empty userID gives zero quantities.
	List(ctx context.Context, userID string) ([]models.Product, error)
	Get(ctx context.Context, article string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
}
