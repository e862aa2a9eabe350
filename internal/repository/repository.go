package repository

import (
	"context"
	"errors"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartExists   = errors.New("cart already exists")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartStore defines the persistence primitives used by the cart service.
// Consumers define this interface, not the MongoDB implementation.
//
// Every mutation is a single storage operation so that a failed or timed-out
// request can lose at most one whole primitive, never half of one.
type CartStore interface {
	Load(ctx context.Context, owner string) (*domain.Cart, error)
	Create(ctx context.Context, owner string) (*domain.Cart, error)
	// MergeIncrementItem bumps the quantity of an existing line and the
	// stored subtotal in one atomic update. The line's price snapshot is
	// left untouched; unitPrice only sizes the subtotal delta.
	MergeIncrementItem(ctx context.Context, owner, product string, delta int, unitPrice float64) error
	// ReplaceItems overwrites the whole items array and subtotal.
	ReplaceItems(ctx context.Context, owner string, items []domain.LineItem, subtotal float64) error
	// SetQuantity sets an existing line's quantity and the recomputed
	// subtotal; returns ErrItemNotFound when the line is absent.
	SetQuantity(ctx context.Context, owner, product string, quantity int, subtotal float64) error
	// RemoveItem pulls the line for product (a no-op when absent) and sets
	// the subtotal recomputed over the remaining lines.
	RemoveItem(ctx context.Context, owner, product string, subtotal float64) error
	// SetPromo sets the promo code and discount; an empty code unsets both.
	SetPromo(ctx context.Context, owner, promoCode string, discount float64) error
}
