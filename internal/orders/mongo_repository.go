package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const addressCollection = "order_addresses"

type MongoAddressRepository struct {
	collection *mongo.Collection
}

type addressDocument struct {
	domain.AddressDetails `bson:",inline"`
	UpdatedAt             time.Time `bson:"updated_at"`
}

func NewMongoAddressRepository(db *mongo.Database) *MongoAddressRepository {
	return &MongoAddressRepository{
		collection: db.Collection(addressCollection),
	}
}

// UpsertAddress overwrites the address for an order code; the last write wins.
func (m *MongoAddressRepository) UpsertAddress(ctx context.Context, address domain.AddressDetails) error {
	doc := addressDocument{AddressDetails: address, UpdatedAt: time.Now()}

	filter := bson.M{"order_code": address.OrderCode}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert order address: %w", err)
	}
	return nil
}

func (m *MongoAddressRepository) GetAddressByCode(ctx context.Context, orderCode string) (*domain.AddressDetails, error) {
	var doc addressDocument

	err := m.collection.FindOne(ctx, bson.M{"order_code": orderCode}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to get order address: %w", err)
	}
	return &doc.AddressDetails, nil
}

func (m *MongoAddressRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
