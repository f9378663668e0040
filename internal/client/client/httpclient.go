package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/fzon/storefront/internal/client/models"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/shared"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// HTTPClient talks to the storefront backend over HTTP/JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeout bounds every round trip, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type request struct {
	method         string
	path           string
	token          string
	idempotencyKey string
	body           any
}

// send performs one round trip and returns the status code and raw body.
// Transport failures are reported as ErrUnavailable.
func (c *HTTPClient) send(ctx context.Context, r request) (int, []byte, error) {
	var rdr io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+r.token)
	}
	if r.idempotencyKey != "" {
		req.Header.Set(common.IdempotencyKeyHeader, r.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	return resp.StatusCode, data, nil
}

// do sends r, turns non-2xx replies into *APIError and decodes a 2xx body
// into out when out is not nil.
func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	status, data, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return newAPIError(status, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var er shared.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return &APIError{Status: status, Message: er.Error}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: status, Message: msg}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

func (c *HTTPClient) Verify(ctx context.Context, token string) (*models.Profile, error) {
	var body struct {
		Username  string `json:"username"`
		CartCount *int   `json:"cartCount"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: shared.PathVerify, token: token}, &body); err != nil {
		return nil, err
	}
	if body.CartCount == nil || *body.CartCount < 0 {
		return nil, malformed("cartCount missing or negative")
	}
	return &models.Profile{Username: body.Username, CartCount: *body.CartCount}, nil
}

func (c *HTTPClient) ChangeQuantity(ctx context.Context, token, article string, delta int) (*models.QuantityChange, error) {
	var body shared.ChangeQuantityResponse
	r := request{
		method: http.MethodPost,
		path:   shared.PathChangeQuantity,
		token:  token,
		body:   shared.ChangeQuantityRequest{Article: article, Delta: delta},
	}
	if err := c.do(ctx, r, &body); err != nil {
		return nil, err
	}
	if body.TotalCount == nil || body.ProductCount == nil {
		return nil, malformed("totalCount and productCount are required")
	}
	if *body.TotalCount < 0 || *body.ProductCount < 0 {
		return nil, malformed("negative counts %d/%d", *body.TotalCount, *body.ProductCount)
	}
	return &models.QuantityChange{TotalCount: *body.TotalCount, ProductCount: *body.ProductCount}, nil
}

func (c *HTTPClient) Login(ctx context.Context, login, password string) (string, error) {
	return c.authenticate(ctx, shared.PathLogin, shared.LoginRequest{Login: login, Password: password})
}

func (c *HTTPClient) Register(ctx context.Context, name, login, password string) (string, error) {
	return c.authenticate(ctx, shared.PathRegister, shared.RegisterRequest{Name: name, Login: login, Password: password})
}

// authenticate handles both reply shapes of the auth endpoints: {token} on
// success and {field, error} on a validation failure, which may come with 200
// or with a 4xx status. A rejected login is never a session failure.
func (c *HTTPClient) authenticate(ctx context.Context, path string, body any) (string, error) {
	status, data, err := c.send(ctx, request{method: http.MethodPost, path: path, body: body})
	if err != nil {
		return "", err
	}
	if status >= http.StatusInternalServerError {
		return "", newAPIError(status, data)
	}

	ok := status >= 200 && status <= 299
	var res shared.AuthResponse
	if err := json.Unmarshal(data, &res); err != nil {
		if ok {
			return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return "", &FieldError{Message: http.StatusText(status)}
	}

	switch {
	case ok && res.Token != "":
		return res.Token, nil
	case res.Field != "" || res.Error != "":
		return "", &FieldError{Field: res.Field, Message: res.Error}
	case ok:
		return "", malformed("token missing")
	default:
		return "", &FieldError{Message: http.StatusText(status)}
	}
}

func (c *HTTPClient) CreateOrder(ctx context.Context, token, idempotencyKey string) error {
	return c.do(ctx, request{
		method:         http.MethodPost,
		path:           shared.PathCreateOrder,
		token:          token,
		idempotencyKey: idempotencyKey,
	}, nil)
}

func (c *HTTPClient) FetchProducts(ctx context.Context, token string) ([]models.Product, error) {
	var body shared.ProductsResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: shared.PathProducts, token: token}, &body); err != nil {
		return nil, err
	}
	if body.Products == nil {
		return nil, malformed("products missing")
	}

	out := make([]models.Product, 0, len(body.Products))
	for article, p := range body.Products {
		if p.ProductQuantity < 0 {
			return nil, malformed("negative quantity for %s", article)
		}
		out = append(out, models.Product{
			Article:    article,
			Name:       p.Name,
			SellerName: p.SellerName,
			Price:      p.Price,
			Rating:     p.Rating,
			Quantity:   p.ProductQuantity,
			ImageURL:   p.ImageURL,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Article < out[j].Article })
	return out, nil
}

func (c *HTTPClient) OrderData(ctx context.Context, token string) (*models.OrderData, error) {
	var body shared.OrderDataResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: shared.PathOrderData, token: token}, &body); err != nil {
		return nil, err
	}
	return &models.OrderData{CartCount: body.CartCount, Sum: body.Sum, Items: toCartItems(body.Items)}, nil
}

func (c *HTTPClient) FetchOrders(ctx context.Context, token string) ([]models.Order, error) {
	var body shared.OrdersResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: shared.PathOrders, token: token}, &body); err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(body.Orders))
	for _, o := range body.Orders {
		created, err := time.Parse(time.RFC3339, o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: order %s: %w", ErrMalformedResponse, o.ID, err)
		}
		out = append(out, models.Order{
			ID:        o.ID,
			Status:    models.OrderStatus(o.Status),
			Sum:       o.Sum,
			CreatedAt: created,
			Items:     toCartItems(o.Items),
		})
	}
	return out, nil
}

func (c *HTTPClient) Balance(ctx context.Context, token string) (decimal.Decimal, error) {
	var body shared.BalanceResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: shared.PathBalance, token: token}, &body); err != nil {
		return decimal.Zero, err
	}
	return body.Balance, nil
}

func (c *HTTPClient) TopUp(ctx context.Context, token string, amount decimal.Decimal) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   shared.PathTopUp,
		token:  token,
		body:   shared.TopUpRequest{Amount: amount},
	}, nil)
}

func (c *HTTPClient) AddProduct(ctx context.Context, p models.NewProduct) error {
	price, rating := p.Price, p.Rating
	status, data, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   shared.PathAddProduct,
		body: shared.AddProductRequest{
			Name:        p.Name,
			Price:       &price,
			Description: p.Description,
			SellerName:  p.SellerName,
			Rating:      &rating,
		},
	})
	if err != nil {
		return err
	}
	if status >= 200 && status <= 299 {
		return nil
	}
	if status == http.StatusBadRequest {
		var fe shared.FieldErrorResponse
		if json.Unmarshal(data, &fe) == nil && fe.Field != "" {
			return &FieldError{Field: fe.Field, Message: fe.Error}
		}
	}
	return newAPIError(status, data)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: shared.PathHealth}, nil)
}

func toCartItems(in []shared.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(in))
	for _, it := range in {
		out = append(out, models.CartItem{Article: it.Article, Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return out
}
