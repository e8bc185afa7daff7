package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Connect opens a client and verifies connectivity with a few pings before
// giving up.
func Connect(cfg Config) (*redislib.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redislib.NewClient(&redislib.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	attempts := 5
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			return client, nil
		}

		lastErr = err
		if attempt < attempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis unreachable at %s: %w", addr, lastErr)
}
