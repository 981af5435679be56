package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"
const adminEmail = "admin@example.com"

// Mock repositories for testing

type mockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Gender != "" && p.Gender != filter.Gender && p.Gender != domain.GenderUnisex {
			continue
		}
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	out := []*domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	out := []*domain.Order{}
	for _, o := range m.orders {
		clone := *o
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

// testEnv wires mock repositories into real services, middleware and handlers
// behind a chi router, the same shape the server assembles in production.
type testEnv struct {
	router      chi.Router
	userRepo    *mockUserRepository
	productRepo *mockProductRepository
	orderRepo   *mockOrderRepository
	gateway     *payment.MockGateway
	authService service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	userRepo := newMockUserRepository()
	productRepo := newMockProductRepository()
	orderRepo := newMockOrderRepository()
	gateway := payment.NewMockGateway()

	authService := service.NewAuthService(userRepo, testJWTSecret, 24*time.Hour, []string{adminEmail})
	cartService := service.NewCartService(userRepo, productRepo)
	orderService := service.NewOrderService(orderRepo)
	checkoutService := service.NewCheckoutService(userRepo, orderService, gateway)

	authMW := middleware.AuthMiddleware(testJWTSecret, logger)
	adminMW := middleware.RequireAdmin(logger)

	r := chi.NewRouter()
	NewAuthHandler(authService, 24*time.Hour, logger).RegisterRoutes(r)
	NewProductHandler(productRepo, logger).RegisterRoutes(r, authMW, adminMW)
	NewCartHandler(cartService, logger).RegisterRoutes(r, authMW)
	NewOrderHandler(orderService, logger).RegisterRoutes(r, authMW, adminMW)
	NewCheckoutHandler(checkoutService, logger).RegisterRoutes(r, authMW)

	return &testEnv{
		router:      r,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		authService: authService,
	}
}

// do executes a JSON request against the router. A non-empty token is sent as
// a bearer header.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account and returns its session token and user.
func (e *testEnv) registerAndLogin(t *testing.T, name, email, password string) (string, *domain.User) {
	t.Helper()

	_, err := e.authService.Register(context.Background(), name, email, password, "")
	require.NoError(t, err)

	token, user, err := e.authService.Login(context.Background(), email, password)
	require.NoError(t, err)
	return token, user
}

// loginAdmin registers the allowlisted admin account and returns its token.
func (e *testEnv) loginAdmin(t *testing.T) string {
	t.Helper()
	token, _ := e.registerAndLogin(t, "Admin", adminEmail, "adminpass123")
	return token
}

// seedProduct inserts a product directly into the mock repository.
func (e *testEnv) seedProduct(t *testing.T, name string, price float64, discount *float64, sizes []string) *domain.Product {
	t.Helper()

	now := time.Now()
	product := &domain.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         price,
		DiscountPrice: discount,
		Category:      "shoes",
		Gender:        domain.GenderUnisex,
		Sizes:         sizes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, e.productRepo.Create(context.Background(), product))
	return product
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func floatPtr(v float64) *float64 { return &v }
