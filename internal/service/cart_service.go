package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/cache"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/events"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/pricing"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/promo"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/repository"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/validator"
	"golang.org/x/sync/singleflight"
)

// CartService owns the cart business rules. It loads authoritative state
// from the store on every operation, keeps subtotal consistent with items,
// and silently repairs structurally broken stored lines instead of failing
// the request (reporting each repair through the event emitter).
type CartService struct {
	store   repository.CartStore
	cache   cache.CartCache
	promos  *promo.Ledger
	valid   *validator.CartValidator
	emitter events.Emitter
	sfg     singleflight.Group // Prevents cache stampede
	locks   ownerLocks         // Totally orders same-owner mutations
}

func NewCartService(store repository.CartStore, cache cache.CartCache, promos *promo.Ledger, emitter events.Emitter) *CartService {
	return &CartService{
		store:   store,
		cache:   cache,
		promos:  promos,
		valid:   validator.New(),
		emitter: emitter,
	}
}

// Get returns the owner's cart, creating the empty one on first access.
// Subtotal and discount are recomputed from the stored items before
// returning, so drift left by any earlier partial write is healed here.
func (s *CartService) Get(ctx context.Context, owner string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(owner, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, owner)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("cache get error", "owner", owner, "error", err)
		}

		cart, errLoad := s.getHealed(ctx, owner)
		if errors.Is(errLoad, repository.ErrCartNotFound) {
			cart, errLoad = s.store.Create(ctx, owner)
			if errors.Is(errLoad, repository.ErrCartExists) {
				// Lost the create race to a concurrent request.
				cart, errLoad = s.getHealed(ctx, owner)
			}
		}
		if errLoad != nil {
			return nil, errLoad
		}

		// set cache
		go func() {
			if errSet := s.cache.Set(context.Background(), owner, cart); errSet != nil {
				slog.Warn("cache set error", "owner", owner, "error", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return s.validated(owner, v.(*domain.Cart)), nil
}

// AddItem adds quantity of a product at the given unit price. An existing
// line for the same product is merged via a single atomic increment; its
// stored price snapshot stays, the new price only sizes the subtotal delta.
func (s *CartService) AddItem(ctx context.Context, owner string, item domain.LineItem) (*domain.Cart, error) {
	if err := s.valid.Item(item); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	cart, err := s.store.Load(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart, err = s.store.Create(ctx, owner)
		if errors.Is(err, repository.ErrCartExists) {
			cart, err = s.store.Load(ctx, owner)
		}
	}
	if err != nil {
		return nil, err
	}

	items, subtotal, dropped := pricing.Reconcile(cart.Items)
	s.reportRepair(ctx, owner, dropped, subtotal)

	idx := indexOf(items, item.Product)
	switch {
	case idx >= 0 && dropped == 0:
		// Merge path: one atomic increment, safe under concurrency.
		if err := s.store.MergeIncrementItem(ctx, owner, item.Product, item.Quantity, item.Price); err != nil {
			return nil, err
		}
	case idx >= 0:
		// Merge folded into the heal rewrite.
		items[idx].Quantity += item.Quantity
		subtotal = pricing.Extend(subtotal, item.Price, item.Quantity)
		if err := s.store.ReplaceItems(ctx, owner, items, subtotal); err != nil {
			return nil, err
		}
	default:
		items = append(items, item)
		subtotal = pricing.Extend(subtotal, item.Price, item.Quantity)
		if err := s.store.ReplaceItems(ctx, owner, items, subtotal); err != nil {
			return nil, err
		}
	}

	return s.finish(ctx, owner)
}

// UpdateQuantity sets the quantity of an existing line.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, product string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	cart, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	items, _, dropped := pricing.Reconcile(cart.Items)
	idx := indexOf(items, product)
	if idx < 0 {
		return nil, repository.ErrItemNotFound
	}

	items[idx].Quantity = quantity
	subtotal := pricing.Subtotal(items)

	if dropped > 0 {
		s.reportRepair(ctx, owner, dropped, subtotal)
		err = s.store.ReplaceItems(ctx, owner, items, subtotal)
	} else {
		err = s.store.SetQuantity(ctx, owner, product, quantity, subtotal)
	}
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, owner)
}

// RemoveItem pulls a line from the cart. Removing an absent product is a
// no-op success, not an error.
func (s *CartService) RemoveItem(ctx context.Context, owner, product string) (*domain.Cart, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	cart, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	items, _, dropped := pricing.Reconcile(cart.Items)
	remaining := items[:0:0]
	for _, it := range items {
		if it.Product != product {
			remaining = append(remaining, it)
		}
	}
	subtotal := pricing.Subtotal(remaining)

	if dropped > 0 {
		s.reportRepair(ctx, owner, dropped, subtotal)
		err = s.store.ReplaceItems(ctx, owner, remaining, subtotal)
	} else {
		err = s.store.RemoveItem(ctx, owner, product, subtotal)
	}
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, owner)
}

// Clear resets the cart to its empty creation state. The document itself is
// kept; only its contents are reset.
func (s *CartService) Clear(ctx context.Context, owner string) (*domain.Cart, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	if _, err := s.store.Load(ctx, owner); err != nil {
		return nil, err
	}

	if err := s.store.ReplaceItems(ctx, owner, nil, 0); err != nil {
		return nil, err
	}
	if err := s.store.SetPromo(ctx, owner, "", 0); err != nil {
		return nil, err
	}

	return s.finish(ctx, owner)
}

// ApplyPromo applies a known promo code, deriving the discount from the
// current (healed) subtotal.
func (s *CartService) ApplyPromo(ctx context.Context, owner, code string) (*domain.Cart, error) {
	rate, ok := s.promos.Rate(code)
	if !ok {
		return nil, ErrInvalidPromo
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	cart, err := s.loadHealed(ctx, owner)
	if err != nil {
		return nil, err
	}

	discount := promo.Discount(cart.Subtotal, rate)
	if err := s.store.SetPromo(ctx, owner, code, discount); err != nil {
		return nil, err
	}

	return s.finish(ctx, owner)
}

// RemovePromo unsets the promo code and zeroes the discount.
func (s *CartService) RemovePromo(ctx context.Context, owner string) (*domain.Cart, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	if _, err := s.store.Load(ctx, owner); err != nil {
		return nil, err
	}

	if err := s.store.SetPromo(ctx, owner, "", 0); err != nil {
		return nil, err
	}

	return s.finish(ctx, owner)
}

// loadHealed loads the cart and reconciles it: structurally broken lines
// are dropped, the subtotal recomputed, the discount re-derived from the
// promo code against that subtotal, and when anything changed the cleaned
// state is written back before it is trusted. Callers hold the owner lock.
func (s *CartService) loadHealed(ctx context.Context, owner string) (*domain.Cart, error) {
	cart, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	items, subtotal, dropped := pricing.Reconcile(cart.Items)
	if dropped > 0 || subtotal != cart.Subtotal {
		if err := s.store.ReplaceItems(ctx, owner, items, subtotal); err != nil {
			return nil, err
		}
		s.reportRepair(ctx, owner, dropped, subtotal)
	}

	discount := s.currentDiscount(cart.PromoCode, cart.Discount, subtotal)
	if discount != cart.Discount {
		if err := s.store.SetPromo(ctx, owner, cart.PromoCode, discount); err != nil {
			return nil, err
		}
	}

	cart.Items = items
	cart.Subtotal = subtotal
	cart.Discount = discount
	return cart, nil
}

// getHealed is the read-path counterpart of loadHealed: the clean common
// case stays lock-free, and only when a rewrite is needed does it take the
// owner lock and re-load, so the heal write cannot land on top of a
// concurrent mutation and undo it.
func (s *CartService) getHealed(ctx context.Context, owner string) (*domain.Cart, error) {
	cart, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	items, subtotal, dropped := pricing.Reconcile(cart.Items)
	if dropped == 0 && subtotal == cart.Subtotal &&
		s.currentDiscount(cart.PromoCode, cart.Discount, subtotal) == cart.Discount {
		cart.Items = items
		return cart, nil
	}

	unlock := s.locks.Lock(owner)
	defer unlock()
	return s.loadHealed(ctx, owner)
}

// currentDiscount re-derives the discount the stored promo code implies for
// the given subtotal. No code means no discount; a code that has since left
// the ledger keeps its stored discount instead of silently dropping the
// promotion.
func (s *CartService) currentDiscount(code string, stored, subtotal float64) float64 {
	if code == "" {
		return 0
	}
	if rate, ok := s.promos.Rate(code); ok {
		return promo.Discount(subtotal, rate)
	}
	return stored
}

// finish is the common tail of every mutation: drop the cached copy,
// re-read authoritative state and validate it on the way out.
func (s *CartService) finish(ctx context.Context, owner string) (*domain.Cart, error) {
	s.invalidateCache(owner)

	cart, err := s.loadHealed(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.validated(owner, cart), nil
}

// validated is the outbound schema gate. A cart that fails it is replaced
// by the empty cart rather than leaking corrupt state to the caller.
func (s *CartService) validated(owner string, cart *domain.Cart) *domain.Cart {
	if err := s.valid.Cart(cart); err != nil {
		slog.Error("outbound cart failed validation, returning empty cart", "owner", owner, "error", err)
		return domain.Empty(owner)
	}
	return cart
}

func (s *CartService) reportRepair(ctx context.Context, owner string, dropped int, subtotal float64) {
	if dropped == 0 {
		return
	}
	slog.Warn("dropped structurally invalid cart lines", "owner", owner, "dropped", dropped)

	event := events.RepairEvent{
		Owner:      owner,
		Dropped:    dropped,
		Subtotal:   subtotal,
		OccurredAt: time.Now(),
	}
	if err := s.emitter.CartRepaired(ctx, event); err != nil {
		slog.Warn("failed to emit repair event", "owner", owner, "error", err)
	}
}

func (s *CartService) invalidateCache(owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, owner); err != nil {
		slog.Warn("cache invalidate error", "owner", owner, "error", err)
	}
}

func indexOf(items []domain.LineItem, product string) int {
	for i := range items {
		if items[i].Product == product {
			return i
		}
	}
	return -1
}
