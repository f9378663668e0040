package credentials

import (
	"context"

	"github.com/fzon/storefront/internal/common"
)

// TokenStore keeps the bearer token under common.TokenStorageKey.
type TokenStore struct {
	repo Repository
}

func NewTokenStore(repo Repository) *TokenStore {
	return &TokenStore{repo: repo}
}

// Load returns the persisted token, or "" when none is stored.
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	return s.repo.Get(ctx, common.TokenStorageKey)
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	return s.repo.Set(ctx, common.TokenStorageKey, token)
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, common.TokenStorageKey)
}
