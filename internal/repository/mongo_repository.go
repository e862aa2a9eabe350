package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection("carts"),
	}
}

func (m *MongoStore) Load(ctx context.Context, owner string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"owner": owner}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return &cart, nil
}

func (m *MongoStore) Create(ctx context.Context, owner string) (*domain.Cart, error) {
	cart := domain.Empty(owner)

	_, err := m.collection.InsertOne(ctx, cart)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCartExists
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return cart, nil
}

func (m *MongoStore) MergeIncrementItem(ctx context.Context, owner, product string, delta int, unitPrice float64) error {
	filter := bson.M{
		"owner":         owner,
		"items.product": product,
	}

	update := bson.M{
		"$inc": bson.M{
			"items.$[elem].quantity": delta,
			"subtotal":               float64(delta) * unitPrice,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product": product},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to merge item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoStore) ReplaceItems(ctx context.Context, owner string, items []domain.LineItem, subtotal float64) error {
	if items == nil {
		items = []domain.LineItem{}
	}

	filter := bson.M{"owner": owner}
	update := bson.M{
		"$set": bson.M{
			"items":      items,
			"subtotal":   subtotal,
			"updated_at": time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to replace items: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoStore) SetQuantity(ctx context.Context, owner, product string, quantity int, subtotal float64) error {
	filter := bson.M{
		"owner":         owner,
		"items.product": product,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"subtotal":               subtotal,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product": product},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to set item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoStore) RemoveItem(ctx context.Context, owner, product string, subtotal float64) error {
	filter := bson.M{"owner": owner}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product": product},
		},
		"$set": bson.M{
			"subtotal":   subtotal,
			"updated_at": time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoStore) SetPromo(ctx context.Context, owner, promoCode string, discount float64) error {
	filter := bson.M{"owner": owner}

	set := bson.M{
		"discount":   discount,
		"updated_at": time.Now(),
	}
	update := bson.M{"$set": set}
	if promoCode == "" {
		update["$unset"] = bson.M{"promo_code": ""}
	} else {
		set["promo_code"] = promoCode
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set promo: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
