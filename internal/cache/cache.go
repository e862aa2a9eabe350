package cache

import (
	"context"
	"errors"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, owner string) (*domain.Cart, error)
	Set(ctx context.Context, owner string, cart *domain.Cart) error
	Delete(ctx context.Context, owner string) error
}

var ErrCacheMiss = errors.New("cache miss")
