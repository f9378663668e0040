package repomanager

import (
	"context"
	"database/sql"

	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/repositories/accounts"
	"github.com/fzon/storefront/internal/server/repositories/carts"
	"github.com/fzon/storefront/internal/server/repositories/orders"
	"github.com/fzon/storefront/internal/server/repositories/outbox"
	"github.com/fzon/storefront/internal/server/repositories/products"
	"github.com/fzon/storefront/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so services can
// use the same repositories on *sql.DB and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Products(db dbx.DBTX) products.Repository
	Carts(db dbx.DBTX) carts.Repository
	Orders(db dbx.DBTX) orders.Repository
	Outbox(db dbx.DBTX) outbox.Repository
	Accounts(db dbx.DBTX) accounts.Repository
}
