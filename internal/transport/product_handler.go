package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update product payload
type ProductRequest struct {
	Name          string         `json:"name" validate:"required"`
	Description   string         `json:"description"`
	Price         float64        `json:"price" validate:"required,gt=0"`
	DiscountPrice *float64       `json:"discount_price,omitempty" validate:"omitempty,gt=0,ltefield=Price"`
	Category      string         `json:"category" validate:"required"`
	Gender        string         `json:"gender" validate:"required,oneof=men women unisex"`
	Sizes         []string       `json:"sizes"`
	Colors        []domain.Color `json:"colors"`
	Images        []string       `json:"images" validate:"omitempty,dive,url"`
	Featured      bool           `json:"featured"`
	IsBestSeller  bool           `json:"is_best_seller"`
	IsNewArrival  bool           `json:"is_new_arrival"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productRepo repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productRepo: productRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers catalog routes. Reads are public; writes require
// an authenticated admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns products matching the query filters. An id parameter
// short-circuits to a single-product lookup.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if idParam := q.Get("id"); idParam != "" {
		id, err := uuid.Parse(idParam)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		product, err := h.productRepo.FindByID(r.Context(), id)
		if err != nil {
			h.respondProductError(w, err, "failed to get product")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, []*domain.Product{product})
		return
	}

	filter := repository.ProductFilter{
		Category: q.Get("category"),
		Gender:   q.Get("gender"),
		Search:   q.Get("search"),
	}
	if flag, err := parseBoolParam(q.Get("featured")); err == nil {
		filter.Featured = flag
	}
	if flag, err := parseBoolParam(q.Get("bestSellers")); err == nil {
		filter.BestSeller = flag
	}
	if flag, err := parseBoolParam(q.Get("newArrivals")); err == nil {
		filter.NewArrival = flag
	}

	products, err := h.productRepo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get returns a single product by path id
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productRepo.FindByID(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create adds a new product to the catalog
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	now := time.Now()
	product := req.toDomain()
	product.ID = uuid.New()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := h.productRepo.Create(r.Context(), product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update rewrites a product in place
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	existing, err := h.productRepo.FindByID(r.Context(), id)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	product := req.toDomain()
	product.ID = id
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()

	if err := h.productRepo.Update(r.Context(), product); err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product row entirely
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.productRepo.Delete(r.Context(), id); err != nil {
		h.respondProductError(w, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &req, true
}

func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, repository.ErrProductNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

func (req *ProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Category:      req.Category,
		Gender:        req.Gender,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		Images:        req.Images,
		Featured:      req.Featured,
		IsBestSeller:  req.IsBestSeller,
		IsNewArrival:  req.IsNewArrival,
	}
}

// parseBoolParam parses an optional boolean query parameter. A missing
// parameter returns a nil pointer with no error match.
func parseBoolParam(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
