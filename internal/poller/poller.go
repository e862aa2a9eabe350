// Package poller consumes checkout-completed events and empties the
// matching cart. Checkout itself lives in another service; from here it is
// only a stream of owner ids whose carts are done.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/repository"
	"github.com/segmentio/kafka-go"
)

// cartClearer is the slice of the cart service the poller needs.
type cartClearer interface {
	Clear(ctx context.Context, owner string) (*domain.Cart, error)
}

type Poller struct {
	carts  cartClearer
	reader *kafka.Reader
}

func New(carts cartClearer, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "cart-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts: carts, reader: reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeAndClear(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		slog.Warn("error closing checkout reader", "error", err)
	}
}

func (p *Poller) consumeAndClear(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("error reading checkout message", "error", err)
		}
		return
	}

	var payload map[string]interface{}
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		slog.Warn("error parsing checkout message", "error", errUnmarshal)
		return
	}
	owner, ok := payload["owner"].(string)
	if !ok {
		slog.Warn("checkout message missing owner")
		return
	}

	if _, errClear := p.carts.Clear(ctx, owner); errClear != nil && !errors.Is(errClear, repository.ErrCartNotFound) {
		slog.Warn("failed to clear cart after checkout", "owner", owner, "error", errClear)
	}
}
