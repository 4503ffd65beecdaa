package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/alpine/internal/adapters/export"
	"github.com/okian/alpine/internal/adapters/repository"
	"github.com/okian/alpine/internal/config"
	"github.com/okian/alpine/pkg/logger"
)

const redisPingTimeout = 5 * time.Second

// OptionsFromConfig opens the backends cfg names and returns the options
// that hand them to New. Without a database URL results stay in memory,
// without a Redis address race ids come from the store, and without a
// bucket nothing is published.
func OptionsFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) ([]Option, error) {
	opts := []Option{
		WithLogger(log),
		WithQueueSize(cfg.UploadQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithMaxUploadBytes(cfg.MaxUploadBytes),
		WithExhibitionPrefix(cfg.ExhibitionPrefix),
	}

	var store repository.Store = repository.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		store = pg
		log.Info(ctx, "using postgres store")
	} else {
		log.Info(ctx, "using in-memory store")
	}
	opts = append(opts, WithStore(store))

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			MaxRetries: 3,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			_ = store.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		opts = append(opts, WithCounter(repository.NewRedisCounter(client, store)), WithCloser(client))
		log.Info(ctx, "using redis race counter", logger.String("addr", cfg.RedisAddr))
	}

	if cfg.S3Bucket != "" {
		pub, err := export.NewS3Publisher(ctx, export.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, WithPublisher(pub))
		log.Info(ctx, "publishing exports", logger.String("bucket", cfg.S3Bucket))
	}

	return opts, nil
}
