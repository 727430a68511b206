package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"eventhub/config"
	"eventhub/logger"
	"eventhub/models"
)

const connectTimeout = 10 * time.Second

// ConnectMongo dials cfg.URI, pings the primary and makes sure the indexes
// exist. Bookings and cascades need the server to be a replica set member.
func ConnectMongo(ctx context.Context, cfg config.Mongo, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	database := client.Database(cfg.Database)
	if err := models.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}
	log.Info("connected to mongo", slog.String("database", cfg.Database))
	return client, database, nil
}

// ConnectRedis returns a client for cfg. When Redis cannot be reached the
// client is still returned; the cache and quota middlewares let requests
// through while it is down.
func ConnectRedis(ctx context.Context, cfg config.Redis, log *slog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, continuing without cache", slog.String("addr", cfg.Addr), logger.Err(err))
		return rdb
	}
	log.Info("connected to redis", slog.String("addr", cfg.Addr))
	return rdb
}
