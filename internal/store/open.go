package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"

	"github.com/jimikki-app/backend/internal/config"
	"github.com/jimikki-app/backend/internal/logging"
)

// Open builds the Store selected by cfg.StoreBackend, wrapped in a Redis
// read-through cache when REDIS_URL is set.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Info(ctx, "using in-memory store for local development")
		s = NewMemoryStore()
	case config.StoreFirestore:
		var client *firestore.Client
		client, err = firestore.NewClient(ctx, cfg.GCPProject)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		s = NewFirestoreStore(client)
	case config.StorePostgres:
		s, err = OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
	case config.StoreSQLite:
		s, err = OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
	case config.StoreGCS:
		var client *storage.Client
		client, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		s = NewGCSStore(client, cfg.GCSBucket)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	log.Info(ctx, "store ready", "backend", cfg.StoreBackend)

	if cfg.RedisURL != "" {
		log.Info(ctx, "caching user data in redis", "ttl", cfg.CacheTTL)
		s = NewCachedStore(s, NewRedisClient(cfg.RedisURL), cfg.CacheTTL, log)
	}
	return s, nil
}
