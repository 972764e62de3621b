package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"videotube_backend/internal/config"
)

const UsersCollection = "users"

// ConnectMongo opens a client, pings the primary and makes sure the users
// collection has its unique indexes.
func ConnectMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDB)
	if err := EnsureMongoIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}

	logger.Info("connected to mongo", zap.String("db", cfg.MongoDB))
	return client, db, nil
}

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
