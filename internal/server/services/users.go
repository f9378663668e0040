// Package services contains server-side business logic. Services take the
// *sql.DB, a repomanager and the server config, and open transactions with
// dbx.WithTx where a use case touches more than one row.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/server/auth"
	"github.com/fzon/storefront/internal/server/config"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

// Profile is what the navigation header shows for a signed-in user.
type Profile struct {
	Username  string
	CartCount int
}

// UserService handles registration, login and the header profile.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		tokenTTL:    cfg.TokenTTL,
	}
}

// Register creates the user and returns a bearer token for it. A taken login
// is reported as a *FieldError on "login".
func (s *UserService) Register(ctx context.Context, name, login, password string) (string, error) {
	name, login = strings.TrimSpace(name), strings.TrimSpace(login)
	switch {
	case name == "":
		return "", fieldError("name", "name is required")
	case login == "":
		return "", fieldError("login", "login is required")
	case password == "":
		return "", fieldError("password", "password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Login: login, Name: name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return "", &FieldError{Field: "login", Message: "login is already taken", Err: common.ErrLoginAlreadyExists}
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return s.issueToken(u)
}

// Login checks the password and returns a bearer token.
func (s *UserService) Login(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", fieldError("login", "login is required")
	}
	if password == "" {
		return "", fieldError("password", "password is required")
	}

	u, err := s.repomanager.Users(s.db).GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", &FieldError{Field: "login", Message: "unknown login", Err: common.ErrInvalidCredentials}
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", &FieldError{Field: "password", Message: "wrong password", Err: common.ErrInvalidCredentials}
	}

	return s.issueToken(u)
}

// Profile returns the user's name and cart count. A token of a user that no
// longer exists gives common.ErrUnauthorized.
func (s *UserService) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	total, err := s.repomanager.Carts(s.db).Total(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{Username: u.Name, CartCount: total}, nil
}

func (s *UserService) issueToken(u *models.User) (string, error) {
	token, err := auth.GenerateToken(auth.Identity{UserID: u.ID, Login: u.Login, Username: u.Name}, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}
