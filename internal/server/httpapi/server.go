// Package httpapi serves the storefront JSON API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fzon/storefront/internal/logging"
	"github.com/fzon/storefront/internal/server/config"
	"github.com/fzon/storefront/internal/server/metrics"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/services"
	"github.com/fzon/storefront/internal/shared"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, name, login, password string) (string, error)
	Login(ctx context.Context, login, password string) (string, error)
	Profile(ctx context.Context, userID string) (*services.Profile, error)
}

type CartService interface {
	ChangeQuantity(ctx context.Context, userID, article string, delta int) (*services.QuantityChange, error)
	OrderData(ctx context.Context, userID string) (*services.OrderData, error)
}

type CatalogService interface {
	Products(ctx context.Context, userID string) ([]services.CatalogItem, error)
	AddProduct(ctx context.Context, in services.ProductInput) (*models.Product, error)
	ImageUploadURL(ctx context.Context) (string, string, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID, idempotencyKey string) (bool, error)
	Orders(ctx context.Context, userID string) ([]models.Order, error)
}

type BankService interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	TopUp(ctx context.Context, userID string, amount decimal.Decimal) error
}

// Services bundles the use cases the API exposes.
type Services struct {
	Users   UserService
	Cart    CartService
	Catalog CatalogService
	Orders  OrderService
	Bank    BankService
}

type Server struct {
	address   string
	svc       Services
	logger    logging.Logger
	metrics   *metrics.Metrics
	limiter   *RateLimiter
	jwtSecret []byte
	router    *mux.Router
}

func NewServer(cfg *config.Config, svc Services, logger logging.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		address:   cfg.HTTPAddr,
		svc:       svc,
		logger:    logger.With("module", "http_server"),
		metrics:   m,
		limiter:   NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		jwtSecret: []byte(cfg.SecretKey),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)

	r.HandleFunc(shared.PathHealth, s.health).Methods(http.MethodGet)
	r.Handle(shared.PathMetrics, s.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc(shared.PathLogin, s.login).Methods(http.MethodPost)
	r.HandleFunc(shared.PathRegister, s.register).Methods(http.MethodPost)
	r.Handle(shared.PathProducts, s.optionalAuth(http.HandlerFunc(s.products))).Methods(http.MethodGet)
	r.HandleFunc(shared.PathAddProduct, s.addProduct).Methods(http.MethodPost)
	r.HandleFunc(shared.PathImageUploadURL, s.imageUploadURL).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc(shared.PathVerify, s.verify).Methods(http.MethodGet)
	authed.Handle(shared.PathChangeQuantity, s.limiter.Handler(http.HandlerFunc(s.changeQuantity))).Methods(http.MethodPost)
	authed.HandleFunc(shared.PathOrderData, s.orderData).Methods(http.MethodGet)
	authed.HandleFunc(shared.PathCreateOrder, s.createOrder).Methods(http.MethodPost)
	authed.HandleFunc(shared.PathOrders, s.orders).Methods(http.MethodGet)
	authed.HandleFunc(shared.PathBalance, s.balance).Methods(http.MethodGet)
	authed.HandleFunc(shared.PathTopUp, s.topUp).Methods(http.MethodPost)

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
