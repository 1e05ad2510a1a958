package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, id string, isAdmin bool) string {
	t.Helper()
	claims := Claims{
		ID:      id,
		Email:   id + "@example.com",
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

type testServer struct {
	handler  http.Handler
	carts    *CartServiceMock
	checkout *CheckoutServiceMock
	orders   *OrderServiceMock
	catalog  *CatalogServiceMock
}

func newTestServer(prefix string) *testServer {
	ts := &testServer{
		carts:    &CartServiceMock{},
		checkout: &CheckoutServiceMock{},
		orders:   &OrderServiceMock{},
		catalog:  &CatalogServiceMock{},
	}
	ts.handler = NewRouter(
		RouterConfig{Prefix: prefix, JWTSecret: testSecret, RequestTimeout: 5 * time.Second, AllowedOrigins: []string{"*"}},
		NewCartHandler(ts.carts, 5*time.Second),
		NewOrdersHandler(ts.checkout, ts.orders, 5*time.Second),
		NewProductHandler(ts.catalog, 5*time.Second),
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("failed to encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	ts.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

type CartServiceMock struct {
	cart     *domain.Cart
	view     *domain.CartView
	message  string
	err      error
	userID   string
	product  string
	quantity int
}

func (m *CartServiceMock) GetCart(_ context.Context, userID string) (*domain.CartView, error) {
	m.userID = userID
	return m.view, m.err
}

func (m *CartServiceMock) AddItem(_ context.Context, userID, productID string, quantity int) (*domain.Cart, string, error) {
	m.userID, m.product, m.quantity = userID, productID, quantity
	return m.cart, m.message, m.err
}

func (m *CartServiceMock) SetItemQuantity(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	m.userID, m.product, m.quantity = userID, productID, quantity
	return m.cart, m.err
}

func (m *CartServiceMock) RemoveItem(_ context.Context, userID, productID string) (*domain.Cart, error) {
	m.userID, m.product = userID, productID
	return m.cart, m.err
}

func (m *CartServiceMock) ClearCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.userID = userID
	return m.cart, m.err
}

type CheckoutServiceMock struct {
	order  *domain.Order
	err    error
	userID string
}

func (m *CheckoutServiceMock) Checkout(_ context.Context, userID string) (*domain.Order, error) {
	m.userID = userID
	return m.order, m.err
}

type OrderServiceMock struct {
	orders  []domain.Order
	order   *domain.Order
	err     error
	userID  string
	orderID string
	status  string
}

func (m *OrderServiceMock) ListMyOrders(_ context.Context, userID string) ([]domain.Order, error) {
	m.userID = userID
	return m.orders, m.err
}

func (m *OrderServiceMock) ListAllOrders(context.Context) ([]domain.Order, error) {
	return m.orders, m.err
}

func (m *OrderServiceMock) UpdateStatus(_ context.Context, orderID, status string) (*domain.Order, error) {
	m.orderID, m.status = orderID, status
	return m.order, m.err
}

type CatalogServiceMock struct {
	products  []domain.Product
	product   *domain.Product
	err       error
	fields    domain.ProductFields
	productID string
	name      string
	minPrice  float64
	maxPrice  float64
}

func (m *CatalogServiceMock) CreateProduct(_ context.Context, fields domain.ProductFields) (*domain.Product, error) {
	m.fields = fields
	return m.product, m.err
}

func (m *CatalogServiceMock) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.productID = productID
	return m.product, m.err
}

func (m *CatalogServiceMock) ListProducts(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *CatalogServiceMock) ListActiveProducts(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *CatalogServiceMock) UpdateProduct(_ context.Context, productID string, fields domain.ProductFields) (*domain.Product, error) {
	m.productID, m.fields = productID, fields
	return m.product, m.err
}

func (m *CatalogServiceMock) ArchiveProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.productID = productID
	return m.product, m.err
}

func (m *CatalogServiceMock) ActivateProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.productID = productID
	return m.product, m.err
}

func (m *CatalogServiceMock) SearchByName(_ context.Context, name string) ([]domain.Product, error) {
	m.name = name
	return m.products, m.err
}

func (m *CatalogServiceMock) SearchByPrice(_ context.Context, minPrice, maxPrice float64) ([]domain.Product, error) {
	m.minPrice, m.maxPrice = minPrice, maxPrice
	return m.products, m.err
}
