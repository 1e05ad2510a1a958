package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, fields domain.ProductFields) (*domain.Product, error)
	ArchiveProduct(ctx context.Context, productID string) (*domain.Product, error)
	ActivateProduct(ctx context.Context, productID string) (*domain.Product, error)
	SearchByName(ctx context.Context, name string) ([]domain.Product, error)
	SearchByPrice(ctx context.Context, minPrice, maxPrice float64) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductRequestDTO struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       flexFloat `json:"price"`
	Image       *string   `json:"image"`
}

func (d ProductRequestDTO) fields() domain.ProductFields {
	return domain.ProductFields{
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price.ptr(),
		Image:       d.Image,
	}
}

type CreateProductResponseDTO struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  *domain.Product `json:"result"`
}

type UpdateProductResponseDTO struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

type ProductResponseDTO struct {
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

type SearchByNameRequestDTO struct {
	Name json.RawMessage `json:"name"`
}

type SearchByPriceRequestDTO struct {
	MinPrice flexFloat `json:"minPrice"`
	MaxPrice flexFloat `json:"maxPrice"`
}

// POST /product/
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req.fields())
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateProductResponseDTO{
		Success: true,
		Message: "Product Added Successfully",
		Result:  product,
	})
}

// GET /product/all
func (h *ProductHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GET /product/active
func (h *ProductHandler) Active(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListActiveProducts(ctx)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	if len(products) == 0 {
		respondJSON(w, http.StatusOK, messageResponse{Message: "No active product found"})
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GET /product/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// PATCH /product/{productId}/update
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "productId"), req.fields())
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, UpdateProductResponseDTO{
		Success: true,
		Message: "Product updated successfully",
		Product: product,
	})
}

// PATCH /product/{productId}/archive
func (h *ProductHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.ArchiveProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, ProductResponseDTO{Message: "Product archived successfully", Product: product})
}

// PATCH /product/{productId}/activate
func (h *ProductHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.ActivateProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, ProductResponseDTO{Message: "Product activated successfully", Product: product})
}

// POST /product/search-by-name
func (h *ProductHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SearchByNameRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	// name must be a JSON string; numbers, objects and null are rejected
	var name string
	if len(req.Name) == 0 || json.Unmarshal(req.Name, &name) != nil || string(req.Name) == "null" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "Invalid product name")
		return
	}

	products, err := h.catalog.SearchByName(ctx, name)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// POST /product/search-by-price
func (h *ProductHandler) SearchByPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SearchByPriceRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.MinPrice.Set || !req.MaxPrice.Set {
		respondError(w, http.StatusBadRequest, "invalid_argument", "Min and Max price are required")
		return
	}

	products, err := h.catalog.SearchByPrice(ctx, req.MinPrice.Value, req.MaxPrice.Value)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}
