package domain

import "time"

// Cart is the single per-owner shopping cart document. Subtotal is derived
// from Items and kept in step with them on every successful operation.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	Owner     string     `bson:"owner" json:"owner" validate:"required"`
	Items     []LineItem `bson:"items" json:"items" validate:"dive"`
	Subtotal  float64    `bson:"subtotal" json:"subtotal" validate:"gte=0"`
	Discount  float64    `bson:"discount" json:"discount" validate:"gte=0"`
	PromoCode string     `bson:"promo_code,omitempty" json:"promoCode,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// LineItem is one product entry. Price is a snapshot of the unit price at
// add time and is never re-read from the catalog afterwards.
type LineItem struct {
	Product  string  `bson:"product" json:"product" validate:"required"`
	Quantity int     `bson:"quantity" json:"quantity" validate:"gte=1"`
	Price    float64 `bson:"price" json:"price" validate:"gte=0"`
	Name     string  `bson:"name,omitempty" json:"name,omitempty"`
	Image    string  `bson:"image,omitempty" json:"image,omitempty"`
	Category string  `bson:"category,omitempty" json:"category,omitempty"`
}

// Empty returns the zero-valued cart for an owner, the state a cart is
// created in and reset to by Clear.
func Empty(owner string) *Cart {
	now := time.Now()
	return &Cart{
		Owner:     owner,
		Items:     []LineItem{},
		Subtotal:  0,
		Discount:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
