package store

import (
	"context"
	"fmt"
	"time"

	"github.com/civicpulse/civicpulse/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSource reads the record collection from MongoDB. Only read
// operations are issued; the collection is owned by the registration
// service.
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoSource connects to MongoDB and verifies the connection.
func NewMongoSource(ctx context.Context, cfg model.StoreConfig) (*MongoSource, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoSource{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    timeout,
	}, nil
}

// All fetches every citizen record.
func (s *MongoSource) All(ctx context.Context) ([]model.CitizenRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection.Find(queryCtx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cursor.Close(queryCtx)

	var records []model.CitizenRecord
	if err := cursor.All(queryCtx, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// Close disconnects the client.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// NewSource builds the configured record source.
func NewSource(ctx context.Context, cfg model.StoreConfig) (Source, error) {
	switch cfg.Backend {
	case "mongo":
		return NewMongoSource(ctx, cfg)
	case "", "memory":
		return NewMemorySource(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, mongo)", cfg.Backend)
	}
}
