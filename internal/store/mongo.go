package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

const (
	paymentsCollection   = "payments"
	tenantsCollection    = "tenants"
	propertiesCollection = "properties"
	receiptsCollection   = "receipts"
)

type MongoPaymentStore struct {
	collection *mongo.Collection
}

func NewMongoPaymentStore(db *mongo.Database) *MongoPaymentStore {
	return &MongoPaymentStore{collection: db.Collection(paymentsCollection)}
}

// GetPayment resolves the tenant and property with $lookup so a single round trip
// returns everything the receipt needs.
func (s *MongoPaymentStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$lookup", Value: bson.M{
			"from":         tenantsCollection,
			"localField":   "tenant_id",
			"foreignField": "_id",
			"as":           "tenant",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$tenant", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         propertiesCollection,
			"localField":   "tenant.property_id",
			"foreignField": "_id",
			"as":           "property",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$property", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("failed to fetch payment: %w", err)
		}
		return nil, ErrNotFound
	}

	var payment models.Payment
	if err := cur.Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	return &payment, nil
}

type MongoReceiptStore struct {
	collection *mongo.Collection
}

func NewMongoReceiptStore(db *mongo.Database) *MongoReceiptStore {
	return &MongoReceiptStore{collection: db.Collection(receiptsCollection)}
}

// EnsureIndexes creates the unique payment_id index InsertIfAbsent relies on.
func (s *MongoReceiptStore) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "payment_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_payment_id"),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *MongoReceiptStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var receipt models.Receipt
	if err := s.collection.FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&receipt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch receipt: %w", err)
	}
	return &receipt, nil
}

func (s *MongoReceiptStore) InsertIfAbsent(ctx context.Context, rec *models.Receipt) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

func (s *MongoReceiptStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))
	cur, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipts: %w", err)
	}
	defer cur.Close(ctx)

	receipts := []models.Receipt{}
	if err := cur.All(ctx, &receipts); err != nil {
		return nil, fmt.Errorf("failed to decode receipts: %w", err)
	}
	return receipts, nil
}
