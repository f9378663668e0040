package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/services"
	"github.com/fzon/storefront/internal/shared"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authResult answers an auth endpoint. Validation failures come back as 200
// {field, error}, which the client shows next to the field.
func (s *Server) authResult(w http.ResponseWriter, r *http.Request, token string, err error) {
	if err != nil {
		var fe *services.FieldError
		if errors.As(err, &fe) {
			writeFieldError(w, http.StatusOK, fe)
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.AuthResponse{Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req shared.LoginRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.svc.Users.Login(r.Context(), req.Login, req.Password)
	s.authResult(w, r, token, err)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req shared.RegisterRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.svc.Users.Register(r.Context(), req.Name, req.Login, req.Password)
	s.authResult(w, r, token, err)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	p, err := s.svc.Users.Profile(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.VerifyResponse{Username: p.Username, CartCount: p.CartCount})
}

func (s *Server) changeQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req shared.ChangeQuantityRequest
	if err := readJSON(r, &req); err != nil {
		s.metrics.RecordCartChange("bad_request")
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Cart.ChangeQuantity(r.Context(), id.UserID, req.Article, req.Delta)
	if err != nil {
		s.metrics.RecordCartChange(changeResult(err))
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordCartChange("ok")

	writeJSON(w, http.StatusOK, shared.ChangeQuantityResponse{
		TotalCount:   &res.TotalCount,
		ProductCount: &res.ProductCount,
	})
}

func changeResult(err error) string {
	switch {
	case errors.Is(err, common.ErrUnknownArticle):
		return "unknown_article"
	case errors.Is(err, common.ErrInvalidDelta):
		return "invalid_delta"
	case errors.Is(err, common.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}

func (s *Server) orderData(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	d, err := s.svc.Cart.OrderData(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.OrderDataResponse{
		CartCount: d.CartCount,
		Sum:       d.Sum,
		Items:     toCartItems(d.Items),
	})
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	var userID string
	if id, ok := IdentityFrom(r.Context()); ok {
		userID = id.UserID
	}

	items, err := s.svc.Catalog.Products(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := shared.ProductsResponse{Products: make(map[string]shared.Product, len(items))}
	for _, it := range items {
		resp.Products[it.Article] = shared.Product{
			Name:            it.Name,
			SellerName:      it.SellerName,
			Price:           it.Price,
			Rating:          it.Rating,
			ProductQuantity: it.Quantity,
			ImageURL:        it.ImageURL,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addProduct(w http.ResponseWriter, r *http.Request) {
	var req shared.AddProductRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	_, err := s.svc.Catalog.AddProduct(r.Context(), services.ProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		SellerName:  req.SellerName,
		Rating:      req.Rating,
		ImageKey:    req.ImageKey,
	})
	if err != nil {
		var fe *services.FieldError
		if errors.As(err, &fe) {
			writeFieldError(w, http.StatusBadRequest, fe)
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.svc.Catalog.ImageUploadURL(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.ImageUploadResponse{Key: key, URL: url})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	created, err := s.svc.Orders.CreateOrder(r.Context(), id.UserID, r.Header.Get(common.IdempotencyKeyHeader))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if created {
		s.metrics.RecordOrderCreated()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) orders(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	list, err := s.svc.Orders.Orders(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := shared.OrdersResponse{Orders: make([]shared.Order, 0, len(list))}
	for _, o := range list {
		resp.Orders = append(resp.Orders, shared.Order{
			ID:        o.ID,
			Status:    string(o.Status),
			Sum:       o.Sum,
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
			Items:     toCartItems(o.Items),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	b, err := s.svc.Bank.Balance(r.Context(), id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.BalanceResponse{Balance: b})
}

func (s *Server) topUp(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req shared.TopUpRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Bank.TopUp(r.Context(), id.UserID, req.Amount); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toCartItems(in []models.CartItem) []shared.CartItem {
	out := make([]shared.CartItem, 0, len(in))
	for _, it := range in {
		out = append(out, shared.CartItem{Article: it.Article, Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return out
}
