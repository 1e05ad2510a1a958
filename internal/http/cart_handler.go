package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, string, error)
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type CartItemRequestDTO struct {
	ProductID string    `json:"productId"`
	Quantity  flexFloat `json:"quantity"`
}

type AddToCartResponseDTO struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart"`
}

type CartResponseDTO struct {
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart"`
}

// decodeCartItem parses {productId, quantity}; quantity must be a whole number.
func decodeCartItem(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	var req CartItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return "", 0, false
	}

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" || !req.Quantity.Set {
		respondError(w, http.StatusBadRequest, "invalid_argument", "productId and quantity are required")
		return "", 0, false
	}
	quantity, ok := req.Quantity.integer()
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be an integer")
		return "", 0, false
	}
	return productID, quantity, true
}

// POST /cart/add-to-cart
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, _ := principalFromContext(r.Context())

	productID, quantity, ok := decodeCartItem(w, r)
	if !ok {
		return
	}

	cart, message, err := h.carts.AddItem(ctx, principal.ID, productID, quantity)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, AddToCartResponseDTO{Success: true, Message: message, Cart: cart})
}

// GET /cart/get-cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, _ := principalFromContext(r.Context())

	cart, err := h.carts.GetCart(ctx, principal.ID)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// PATCH /cart/update-cart-quantity
func (h *CartHandler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, _ := principalFromContext(r.Context())

	productID, quantity, ok := decodeCartItem(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.SetItemQuantity(ctx, principal.ID, productID, quantity)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Message: "Cart updated successfully", Cart: cart})
}

// PATCH /cart/{productId}/remove-from-cart
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, _ := principalFromContext(r.Context())

	cart, err := h.carts.RemoveItem(ctx, principal.ID, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Message: "Item removed from cart successfully", Cart: cart})
}

// PUT /cart/clear-cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, _ := principalFromContext(r.Context())

	cart, err := h.carts.ClearCart(ctx, principal.ID)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Message: "Cart cleared successfully", Cart: cart})
}
