package service

import (
	"context"
	"sync"
	"time"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/cache"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/events"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/repository"
)

// mockStore keeps carts in memory and mimics the atomic behavior of the
// Mongo primitives.
type mockStore struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
}

func newMockStore() *mockStore {
	return &mockStore{carts: make(map[string]*domain.Cart)}
}

func (m *mockStore) seed(cart *domain.Cart) {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[cart.Owner] = cart
}

func (m *mockStore) Load(_ context.Context, owner string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[owner]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]domain.LineItem(nil), cart.Items...)
	return &copied, nil
}

func (m *mockStore) Create(_ context.Context, owner string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.carts[owner]; ok {
		return nil, repository.ErrCartExists
	}
	cart := domain.Empty(owner)
	m.carts[owner] = cart
	return cart, nil
}

func (m *mockStore) MergeIncrementItem(_ context.Context, owner, product string, delta int, unitPrice float64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[owner]
	if !ok {
		return repository.ErrItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].Product == product {
			cart.Items[i].Quantity += delta
			cart.Subtotal += float64(delta) * unitPrice
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockStore) ReplaceItems(_ context.Context, owner string, items []domain.LineItem, subtotal float64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[owner]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.Items = append([]domain.LineItem(nil), items...)
	cart.Subtotal = subtotal
	cart.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) SetQuantity(_ context.Context, owner, product string, quantity int, subtotal float64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[owner]
	if !ok {
		return repository.ErrItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].Product == product {
			cart.Items[i].Quantity = quantity
			cart.Subtotal = subtotal
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockStore) RemoveItem(_ context.Context, owner, product string, subtotal float64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[owner]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i, item := range cart.Items {
		if item.Product == product {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			break
		}
	}
	cart.Subtotal = subtotal
	cart.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) SetPromo(_ context.Context, owner, promoCode string, discount float64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[owner]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.PromoCode = promoCode
	cart.Discount = discount
	cart.UpdatedAt = time.Now()
	return nil
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

// recordingEmitter captures repair events for assertions.
type recordingEmitter struct {
	m      sync.Mutex
	events []events.RepairEvent
}

func (r *recordingEmitter) CartRepaired(_ context.Context, event events.RepairEvent) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) recorded() []events.RepairEvent {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]events.RepairEvent(nil), r.events...)
}
