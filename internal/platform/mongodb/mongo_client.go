// Package mongodb connects to the document store used by the mongo storage driver.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout = 60 * time.Second
	defaultRetryInterval  = 3 * time.Second
	pingTimeout           = 5 * time.Second
)

// Connect opens a client for uri and returns the named database once the
// server answers a ping. It retries for up to a minute.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid mongo configuration: %w", err)
	}

	if err := pingWithRetry(ctx, client, defaultConnectTimeout, defaultRetryInterval); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	zap.L().Info("mongo connection successful", zap.String("database", database))
	return client, client.Database(database), nil
}

func pingWithRetry(ctx context.Context, client *mongo.Client, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := client.Ping(pctx, readpref.Primary())
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().Add(interval).After(deadline) {
			return fmt.Errorf("mongo connect failed after %d attempts: %w", attempt, err)
		}
		zap.L().Warn("mongo connect failed, retrying", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Disconnect closes the client, waiting at most timeout for in-flight operations.
func Disconnect(client *mongo.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Disconnect(ctx)
}
