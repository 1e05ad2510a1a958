package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}

type mockCartRepository struct {
	m         sync.RWMutex
	carts     map[string]*domain.Cart
	err       error
	deleteErr error
	writes    int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cloneCart(c), nil
}

// pausingCartRepository holds GetCart after the read until release is
// closed, so a caller can act between a load and its cache write.
type pausingCartRepository struct {
	*mockCartRepository
	loaded  chan struct{}
	release chan struct{}
}

func newPausingCartRepository(inner *mockCartRepository) *pausingCartRepository {
	return &pausingCartRepository{
		mockCartRepository: inner,
		loaded:             make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (p *pausingCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := p.mockCartRepository.GetCart(ctx, userID)
	close(p.loaded)
	<-p.release
	return cart, err
}

func (m *mockCartRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	stored, ok := m.carts[cart.UserID]
	switch {
	case cart.Version == 0 && ok:
		return repository.ErrCartVersionConflict
	case cart.Version == 0:
		cart.ID = primitive.NewObjectID()
	case !ok || stored.Version != cart.Version:
		return repository.ErrCartVersionConflict
	}
	cart.Version++
	m.carts[cart.UserID] = cloneCart(cart)
	m.writes++
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, userID string, cartID primitive.ObjectID, maxVersion int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	c, ok := m.carts[userID]
	if !ok || c.ID != cartID || c.Version > maxVersion {
		return repository.ErrCartNotFound
	}
	delete(m.carts, userID)
	m.writes++
	return nil
}

func (m *mockCartRepository) put(c *domain.Cart) {
	m.m.Lock()
	defer m.m.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	m.carts[c.UserID] = cloneCart(c)
}

type mockProductRepository struct {
	m        sync.RWMutex
	products map[primitive.ObjectID]domain.Product
	err      error
}

func newMockProductRepository(products ...domain.Product) *mockProductRepository {
	repo := &mockProductRepository{products: map[primitive.ObjectID]domain.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (m *mockProductRepository) setPrice(id primitive.ObjectID, price float64) {
	m.m.Lock()
	defer m.m.Unlock()
	p := m.products[id]
	p.Price = price
	m.products[id] = p
}

func (m *mockProductRepository) CreateProduct(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, p := range m.products {
		if p.Name == product.Name {
			return repository.ErrDuplicateProduct
		}
	}
	product.ID = primitive.NewObjectID()
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) GetProduct(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) GetProductByName(_ context.Context, name string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) GetProductsByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) ListProducts(_ context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Product{}
	for _, p := range m.products {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, id primitive.ObjectID, f domain.ProductFields) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.Image != nil {
		p.Image = *f.Image
	}
	m.products[id] = p
	return &p, nil
}

func (m *mockProductRepository) SetProductActive(_ context.Context, id primitive.ObjectID, active bool) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p.IsActive = active
	m.products[id] = p
	return &p, nil
}

type mockOrderRepository struct {
	m      sync.RWMutex
	orders []domain.Order
	err    error
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, o := range m.orders {
		if o.CartID == order.CartID && o.CartVersion == order.CartVersion {
			return repository.ErrDuplicateOrder
		}
	}
	m.orders = append(m.orders, *order)
	return nil
}

func (m *mockOrderRepository) GetOrder(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, o := range m.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) GetOrderByCart(_ context.Context, cartID primitive.ObjectID, cartVersion int64) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, o := range m.orders {
		if o.CartID == cartID && o.CartVersion == cartVersion {
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *mockOrderRepository) ListOrders(_ context.Context) ([]domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		out = append(out, m.orders[i])
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateOrderStatus(_ context.Context, id primitive.ObjectID, from, to domain.OrderStatus) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for i := range m.orders {
		if m.orders[i].ID != id {
			continue
		}
		if m.orders[i].Status != from {
			return nil, repository.ErrOrderStatusConflict
		}
		m.orders[i].Status = to
		o := m.orders[i]
		return &o, nil
	}
	return nil, repository.ErrOrderStatusConflict
}

func (m *mockOrderRepository) ListUnpublishedOrders(context.Context, int) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepository) MarkOrderPublished(context.Context, primitive.ObjectID) error {
	return nil
}

type mockCache struct {
	m           sync.RWMutex
	carts       map[string]*domain.Cart
	generations map[string]int64
	err         error
	deletes     int
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}, generations: map[string]int64{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Generation(_ context.Context, userID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.generations[userID], nil
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.Cart, generation int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.generations[userID] != generation {
		return cache.ErrStale
	}
	m.carts[userID] = cart
	return nil
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, userID)
	m.generations[userID]++
	m.deletes++
	return m.err
}

func (m *mockCache) cached(userID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[userID]
	return ok
}
