package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client owns the mongo connection and the stocks collection
type Client struct {
	client *mongo.Client
	stocks *mongo.Collection
}

// Connect dials MongoDB and verifies the connection
func Connect(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts := options.Client().
		ApplyURI(cfg.ConnectionString).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info().
		Str("database", cfg.DatabaseName).
		Str("collection", cfg.StocksCollectionName).
		Msg("✅ MongoDB connected successfully")

	return &Client{
		client: client,
		stocks: client.Database(cfg.DatabaseName).Collection(cfg.StocksCollectionName),
	}, nil
}

// Stocks returns the stocks collection
func (c *Client) Stocks() *mongo.Collection {
	return c.stocks
}

// EnsureIndexes creates the unique index on code if it is missing
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.stocks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_code"),
	})
	if err != nil {
		return fmt.Errorf("failed to create code index: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	log.Info().Msg("MongoDB connection closed")
	return nil
}
