package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSessionMismatch is returned when a confirmation references a payment
	// session that does not belong to the order.
	ErrSessionMismatch = errors.New("payment session does not match order")
	// ErrPaymentFailed is returned when the gateway declines the capture; the
	// order has been cancelled by the time callers see it.
	ErrPaymentFailed = errors.New("payment capture failed")
)

// CheckoutResult is returned from a successful checkout: the gateway session
// to confirm against and the pending order.
type CheckoutResult struct {
	SessionID string        `json:"session_id"`
	Order     *domain.Order `json:"order"`
}

// CheckoutService drives the two-step checkout flow: authorize-and-create,
// then capture-and-complete on the success callback.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, address domain.ShippingAddress) (*CheckoutResult, error)
	ConfirmSuccess(ctx context.Context, sessionID string, orderID uuid.UUID) (*domain.Order, error)
}

type checkoutService struct {
	userRepo     repository.UserRepository
	orderService OrderService
	gateway      payment.Gateway
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(userRepo repository.UserRepository, orderService OrderService, gateway payment.Gateway) CheckoutService {
	return &checkoutService{
		userRepo:     userRepo,
		orderService: orderService,
		gateway:      gateway,
	}
}

// Checkout snapshots the user's cart into a pending order. The total is
// computed here, once, from the discount-aware cart arithmetic; the payment
// session id returned by the gateway is carried on the order. The cart is
// cleared after the order insert succeeds.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, address domain.ShippingAddress) (*CheckoutResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	cart := domain.NewCartFromLines(user.Cart)
	if cart.Len() == 0 {
		return nil, ErrEmptyCart
	}

	total := cart.Total()

	auth, err := s.gateway.Authorize(ctx, total, "USD")
	if err != nil {
		return nil, fmt.Errorf("failed to authorize payment: %w", err)
	}

	order := &domain.Order{
		UserID:          userID,
		Items:           domain.OrderItemsFromCart(cart.Lines()),
		Total:           total,
		ShippingAddress: address,
		PaymentIntentID: auth.SessionID,
	}

	if err := s.orderService.Create(ctx, order); err != nil {
		return nil, err
	}

	user.Cart = nil
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	return &CheckoutResult{SessionID: auth.SessionID, Order: order}, nil
}

// ConfirmSuccess captures the payment and completes the order. Both the
// success and failure branches key off the order id. Repeating a successful
// confirmation is idempotent; a declined capture cancels the order and
// reports ErrPaymentFailed.
func (s *checkoutService) ConfirmSuccess(ctx context.Context, sessionID string, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderService.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentIntentID != sessionID {
		return nil, ErrSessionMismatch
	}

	if err := s.gateway.Capture(ctx, sessionID); err != nil {
		if _, cancelErr := s.orderService.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); cancelErr != nil {
			return nil, fmt.Errorf("failed to cancel order after declined capture: %w", cancelErr)
		}
		return nil, ErrPaymentFailed
	}

	return s.orderService.UpdateStatus(ctx, orderID, domain.OrderStatusCompleted)
}
