package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"gofalre.io/storefront"
	"gofalre.io/storefront/models"
)

// CartService is the cart surface the handlers drive. *storefront.Store implements it.
type CartService interface {
	Cart() models.Cart
	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateProductAmount(ctx context.Context, update storefront.UpdateProductAmount) error
}

var _ CartService = (*storefront.Store)(nil)

const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeOutOfStock      = "OUT_OF_STOCK"
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	CodeInternalError   = "INTERNAL_ERROR"
)

type Handler struct {
	cart   CartService
	logger *zap.Logger
}

func NewHandler(cart CartService, logger *zap.Logger) *Handler {
	return &Handler{cart: cart, logger: logger}
}

// NewRouter returns a traced router with every cart route registered.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("storefront"))
	r.Use(h.logRequests)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.AddProduct).Methods(http.MethodPost)
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.RemoveProduct).Methods(http.MethodDelete)
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.UpdateProductAmount).Methods(http.MethodPut)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type updateAmountReq struct {
	Amount *int `json:"amount"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeCartErr maps a cart failure to a status. The message is the same
// alert text the notifier received.
func writeCartErr(w http.ResponseWriter, err error) {
	kind, ok := storefront.KindOf(err)
	if !ok {
		writeErr(w, http.StatusInternalServerError, CodeInternalError, "Erro inesperado no carrinho")
		return
	}

	switch {
	case errors.Is(err, storefront.ErrOutOfStock):
		writeErr(w, http.StatusConflict, CodeOutOfStock, kind.Message())
	case errors.Is(err, storefront.ErrProductNotFound):
		writeErr(w, http.StatusNotFound, CodeProductNotFound, kind.Message())
	default:
		writeErr(w, http.StatusBadGateway, CodeUpstreamFailure, kind.Message())
	}
}

func productID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Cart())
}

// AddProduct handles POST /cart/products/{id}
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, CodeBadRequest, "invalid product id")
		return
	}
	if err := h.cart.AddProduct(r.Context(), id); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cart.Cart())
}

// RemoveProduct handles DELETE /cart/products/{id}
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, CodeBadRequest, "invalid product id")
		return
	}
	if err := h.cart.RemoveProduct(r.Context(), id); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cart.Cart())
}

// UpdateProductAmount handles PUT /cart/products/{id}
// body: { "amount": 3 }
func (h *Handler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, CodeBadRequest, "invalid product id")
		return
	}

	var req updateAmountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, CodeBadRequest, "invalid json")
		return
	}
	if req.Amount == nil {
		writeErr(w, http.StatusBadRequest, CodeBadRequest, "amount is required")
		return
	}

	// amounts below 1 are accepted and ignored by the store
	update := storefront.UpdateProductAmount{ProductID: id, Amount: *req.Amount}
	if err := h.cart.UpdateProductAmount(r.Context(), update); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cart.Cart())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
