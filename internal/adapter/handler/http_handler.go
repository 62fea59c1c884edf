package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const maxWebhookBody = 64 << 10

type HTTPHandler struct {
	products   *service.ProductService
	carts      *service.CartService
	orders     *service.OrderService
	payments   *service.PaymentService
	categories *service.CategoryService
	reviews    *service.ReviewService
	wishlist   *service.WishlistService
	analytics  *service.AnalyticsService
	logger     *zap.Logger
}

// Services groups the application services the HTTP layer dispatches to.
type Services struct {
	Products   *service.ProductService
	Carts      *service.CartService
	Orders     *service.OrderService
	Payments   *service.PaymentService
	Categories *service.CategoryService
	Reviews    *service.ReviewService
	Wishlist   *service.WishlistService
	Analytics  *service.AnalyticsService
}

type RouterConfig struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
	Limiter        *RateLimiter
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CreateSessionRequest struct {
	OrderID string `json:"orderId"`
}

func NewHTTPHandler(svc Services, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		products:   svc.Products,
		carts:      svc.Carts,
		orders:     svc.Orders,
		payments:   svc.Payments,
		categories: svc.Categories,
		reviews:    svc.Reviews,
		wishlist:   svc.Wishlist,
		analytics:  svc.Analytics,
		logger:     logger,
	}
}

// Router wires every route. The webhook route sits outside the auth group;
// it is authenticated by its signature header instead.
func (h *HTTPHandler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(h.logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Limit)
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/reviews/products/{productId}", h.ListProductReviews)
		r.Post("/payments/webhook", h.PaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.JWTSecret))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Put("/items/{productId}", h.UpdateCartItem)
				r.Delete("/items/{productId}", h.RemoveCartItem)
			})

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Post("/payments/create-session", h.CreateCheckoutSession)

			r.Get("/reviews", h.ListMyReviews)
			r.Post("/reviews", h.CreateReview)
			r.Put("/reviews/{id}", h.UpdateReview)
			r.Delete("/reviews/{id}", h.DeleteReview)

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.GetWishlist)
				r.Delete("/", h.ClearWishlist)
				r.Post("/items", h.AddWishlistItem)
				r.Delete("/items/{productId}", h.RemoveWishlistItem)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(RoleAdmin))
				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)
				r.Post("/categories", h.CreateCategory)
				r.Put("/categories/{id}", h.UpdateCategory)
				r.Delete("/categories/{id}", h.DeleteCategory)
				r.Get("/orders/admin", h.ListAllOrders)
				r.Patch("/orders/{id}/status", h.UpdateOrderStatus)
				r.Get("/analytics/sales", h.SalesReport)
			})
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.products.ListProducts(r.Context(), domain.ProductQuery{
		Search:     q.Get("search"),
		CategoryID: q.Get("category"),
		Sort:       domain.ParseProductSort(q.Get("sort")),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProductRequest
	if !decodeBody(w, r, &req) {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeMessage(w, http.StatusBadRequest, "productId is required")
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userID(r), req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), userID(r), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "productId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "item removed")
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "cart cleared")
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.CreateOrderFromCart(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid status")
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		writeMessage(w, http.StatusBadRequest, "orderId is required")
		return
	}

	session, err := h.payments.CreateCheckoutSession(r.Context(), userID(r), req.OrderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// PaymentWebhook needs the exact raw body for signature verification.
// Oversized bodies are rejected rather than truncated.
func (h *HTTPHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func userID(r *http.Request) string {
	p, _ := PrincipalFrom(r.Context())
	return p.UserID
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError maps an error class to a status code. Details of unclassified
// errors are logged and replaced with a generic message.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, domain.ErrSignatureInvalid):
		status, message = http.StatusBadRequest, "invalid signature"
	case errors.Is(err, domain.ErrValidation):
		status, message = http.StatusBadRequest, rootMessage(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, rootMessage(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusConflict, rootMessage(err, domain.ErrConflict)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}

	writeMessage(w, status, message)
}

// rootMessage returns the most specific domain error's text, e.g.
// "cart is empty: validation error" rather than the full wrap chain.
func rootMessage(err, class error) string {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return class.Error()
}

var knownErrors = []error{
	domain.ErrEmptyCart,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidPrice,
	domain.ErrInvalidTransition,
	domain.ErrInvalidRating,
	domain.ErrProductNotFound,
	domain.ErrOrderNotFound,
	domain.ErrCartItemNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrReviewNotFound,
	domain.ErrCartModified,
	domain.ErrConversionInProgress,
	domain.ErrStatusChanged,
	domain.ErrOrderNotPayable,
	domain.ErrAlreadyReviewed,
	domain.ErrAlreadyInWishlist,
	domain.ErrCategoryExists,
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: status < 400, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
