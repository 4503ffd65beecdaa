package repository

import "time"

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithConnMaxLifetime recycles pooled connections after d.
func WithConnMaxLifetime(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}

// RedisCounterOption configures a RedisCounter.
type RedisCounterOption func(*RedisCounter)

// WithCounterKey sets the Redis key holding the last reserved race id.
func WithCounterKey(key string) RedisCounterOption {
	return func(c *RedisCounter) {
		if key != "" {
			c.key = key
		}
	}
}
