package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// ErrSizeUnavailable is returned when the requested size is not offered by
// the product.
var ErrSizeUnavailable = errors.New("size not available for this product")

// CartView is the enriched cart returned to clients: lines overlaid with live
// product data where available, plus the discount-aware total.
type CartView struct {
	Lines []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
}

// CartService manages the server-side cart stored on the user document. Each
// request loads the snapshot into an explicit cart container, mutates it, and
// writes the document back (last-writer-wins).
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, size string) (*CartView, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID, size string) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(userRepo repository.UserRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		userRepo:    userRepo,
		productRepo: productRepo,
	}
}

// Get returns the user's cart with live product data overlaid per line. When
// a product has been deleted since it was added, the stored snapshot stands
// in. One lookup per line; fine at cart sizes, would need batching at scale.
func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	lines := make([]domain.CartLine, len(user.Cart))
	copy(lines, user.Cart)

	for i := range lines {
		product, err := s.productRepo.FindByID(ctx, lines[i].Product.ID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue // snapshot fallback
			}
			return nil, fmt.Errorf("failed to enrich cart line: %w", err)
		}
		lines[i].Product = snapshotOf(product)
	}

	cart := domain.NewCartFromLines(lines)
	return &CartView{Lines: cart.Lines(), Total: cart.Total()}, nil
}

// AddItem snapshots the live product into the cart, merging with an existing
// (product, size) line by incrementing its quantity.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, size string) (*CartView, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if !sizeOffered(product, size) {
		return nil, ErrSizeUnavailable
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.AddItem(snapshotOf(product), size)
	})
}

// UpdateQuantity overwrites the quantity of a line; a quantity below one
// removes it.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, size string, quantity int) (*CartView, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.UpdateQuantity(productID, size, quantity)
	})
}

// RemoveItem deletes a line; removing an absent line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID, size string) (*CartView, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.RemoveItem(productID, size)
	})
}

// Clear resets the cart to empty.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := s.mutate(ctx, userID, func(cart *domain.Cart) {
		cart.Clear()
	})
	return err
}

func (s *cartService) mutate(ctx context.Context, userID uuid.UUID, fn func(*domain.Cart)) (*CartView, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	cart := domain.NewCartFromLines(user.Cart)
	fn(cart)

	user.Cart = cart.Lines()
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return &CartView{Lines: cart.Lines(), Total: cart.Total()}, nil
}

func snapshotOf(product *domain.Product) domain.ProductSnapshot {
	snap := domain.ProductSnapshot{
		ID:            product.ID,
		Name:          product.Name,
		Price:         product.Price,
		DiscountPrice: product.DiscountPrice,
	}
	if len(product.Images) > 0 {
		snap.ImageURL = product.Images[0]
	}
	return snap
}

func sizeOffered(product *domain.Product, size string) bool {
	if len(product.Sizes) == 0 {
		return size == ""
	}
	for _, s := range product.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
