package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fzon/storefront/internal/logging"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem is a product as listed to one user.
type CatalogItem struct {
	models.Product
	ImageURL string
}

// ProductInput is a new catalog entry. Price and Rating are pointers so a
// missing value can be told apart from zero.
type ProductInput struct {
	Name        string
	Price       *decimal.Decimal
	Description string
	SellerName  string
	Rating      *float64
	ImageKey    string
}

type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   Presigner
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, p Presigner, logger logging.Logger) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: m,
		presigner:   p,
		logger:      logger.With("module", "catalog"),
	}
}

// GetRandomStorageKey returns a fresh object key for a product image.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("products/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Products lists the catalog with userID's cart quantities. An empty userID
// lists zero quantities. A failed image presign leaves ImageURL empty.
func (s *CatalogService) Products(ctx context.Context, userID string) ([]CatalogItem, error) {
	products, err := s.repomanager.Products(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]CatalogItem, 0, len(products))
	for _, p := range products {
		item := CatalogItem{Product: p}
		if p.ImageKey != "" {
			url, err := s.presigner.PresignGet(ctx, p.ImageKey)
			if err != nil {
				s.logger.Warn(ctx, "presign image", "article", p.Article, "err", err)
			} else {
				item.ImageURL = url
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// AddProduct validates in and stores it under the next article number.
func (s *CatalogService) AddProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		SellerName:  strings.TrimSpace(in.SellerName),
		Price:       *in.Price,
		Rating:      *in.Rating,
		ImageKey:    in.ImageKey,
	}

	created, err := s.repomanager.Products(s.db).Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}
	return created, nil
}

func validateProduct(in ProductInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fieldError("name", "name is required")
	case in.Price == nil:
		return fieldError("price", "price is required")
	case !in.Price.IsPositive():
		return fieldError("price", "price must be positive")
	case strings.TrimSpace(in.Description) == "":
		return fieldError("description", "description is required")
	case strings.TrimSpace(in.SellerName) == "":
		return fieldError("sellerName", "seller name is required")
	case in.Rating == nil:
		return fieldError("rating", "rating is required")
	case *in.Rating < 1 || *in.Rating > 5:
		return fieldError("rating", "rating must be between 1 and 5")
	}
	return nil
}

// ImageUploadURL returns a new object key and a presigned PUT URL for it.
func (s *CatalogService) ImageUploadURL(ctx context.Context) (string, string, error) {
	key := GetRandomStorageKey()
	url, err := s.presigner.PresignPut(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}
