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

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address" validate:"required"`
}

// CheckoutHandler handles HTTP requests for the checkout flow
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Checkout)
		r.Get("/success", h.ConfirmSuccess)
	})
}

// Checkout snapshots the caller's cart into a pending order and returns the
// payment session to confirm against
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCallerID(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.checkoutService.Checkout(r.Context(), callerID, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, repository.ErrUserNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("Checkout failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to checkout")
		}
		return
	}

	h.logger.Info("Checkout started",
		zap.String("order_id", result.Order.ID.String()),
		zap.String("session_id", result.SessionID),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// ConfirmSuccess captures the payment session and completes the order.
// Repeating a successful confirmation is idempotent.
func (h *CheckoutHandler) ConfirmSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing session_id")
		return
	}

	orderID, err := uuid.Parse(r.URL.Query().Get("order_id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.checkoutService.ConfirmSuccess(r.Context(), sessionID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrSessionMismatch):
			middleware.RespondWithError(w, http.StatusConflict, "payment session does not match order")
		case errors.Is(err, service.ErrPaymentFailed):
			middleware.RespondWithError(w, http.StatusBadRequest, "payment failed, order cancelled")
		default:
			h.logger.Error("Checkout confirmation failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to confirm checkout")
		}
		return
	}

	h.logger.Info("Checkout completed", zap.String("order_id", orderID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
