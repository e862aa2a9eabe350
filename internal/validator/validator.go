// Package validator is the single schema boundary for carts: every value
// entering or leaving the cart service passes through it, replacing the
// scattered per-callsite shape checks this service grew out of.
package validator

import (
	"fmt"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	v10 "github.com/go-playground/validator/v10"
)

type CartValidator struct {
	validate *v10.Validate
}

func New() *CartValidator {
	return &CartValidator{
		validate: v10.New(v10.WithRequiredStructEnabled()),
	}
}

// Cart checks a full cart against the schema tags on the domain structs.
func (c *CartValidator) Cart(cart *domain.Cart) error {
	if cart == nil {
		return fmt.Errorf("cart is nil")
	}
	if err := c.validate.Struct(cart); err != nil {
		return fmt.Errorf("cart failed validation: %w", err)
	}
	return nil
}

// Item checks a single inbound line item.
func (c *CartValidator) Item(item domain.LineItem) error {
	if err := c.validate.Struct(item); err != nil {
		return fmt.Errorf("line item failed validation: %w", err)
	}
	return nil
}
