package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddCartItemRequest represents the add-to-cart payload
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Size      string `json:"size"`
}

// UpdateCartItemRequest represents the quantity-update payload. Quantities
// below one remove the line.
type UpdateCartItemRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// CartHandler handles HTTP requests for the server-side cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers cart routes. All of them require authentication
// and operate on the caller's own cart (admins may touch any cart).
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users/{userID}/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Post("/", h.AddItem)
		r.Delete("/", h.Clear)
		r.Put("/{productID}", h.UpdateQuantity)
		r.Delete("/{productID}", h.RemoveItem)
	})
}

// Get returns the enriched cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeCartOwner(w, r)
	if !ok {
		return
	}

	view, err := h.cartService.Get(r.Context(), userID)
	if err != nil {
		h.respondCartError(w, err, "failed to load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// AddItem adds a product+size line to the cart, merging duplicates
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeCartOwner(w, r)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	view, err := h.cartService.AddItem(r.Context(), userID, productID, req.Size)
	if err != nil {
		if errors.Is(err, service.ErrSizeUnavailable) {
			middleware.RespondWithError(w, http.StatusBadRequest, "size not available for this product")
			return
		}
		h.respondCartError(w, err, "failed to add cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// UpdateQuantity overwrites the quantity of a cart line
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeCartOwner(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cartService.UpdateQuantity(r.Context(), userID, productID, req.Size, req.Quantity)
	if err != nil {
		h.respondCartError(w, err, "failed to update cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// RemoveItem deletes a cart line. Removing an absent line is a no-op.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeCartOwner(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	view, err := h.cartService.RemoveItem(r.Context(), userID, productID, r.URL.Query().Get("size"))
	if err != nil {
		h.respondCartError(w, err, "failed to remove cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizeCartOwner(w, r)
	if !ok {
		return
	}

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		h.respondCartError(w, err, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

// authorizeCartOwner parses the userID path param and verifies the caller
// owns the cart (or is an admin).
func (h *CartHandler) authorizeCartOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return uuid.Nil, false
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	role, _ := middleware.GetUserRole(r.Context())
	if callerID != userID.String() && role != domain.RoleAdmin {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return uuid.Nil, false
	}

	return userID, true
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
