// Package lock serializes gateway customer creation per email across instances.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "subscription-sales:customer-lock:"

type Config struct {
	Expiry time.Duration
	Tries  int
}

type EmailLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
	logger *slog.Logger
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewEmailLocker(client *redis.Client, config Config, logger *slog.Logger) *EmailLocker {
	expiry := config.Expiry
	if expiry <= 0 {
		expiry = 30 * time.Second
	}
	tries := config.Tries
	if tries <= 0 {
		tries = 32
	}

	return &EmailLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		tries:  tries,
		logger: logger,
	}
}

func Key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Lock blocks until the email's mutex is held and returns its release func.
func (l *EmailLocker) Lock(ctx context.Context, email string) (func(), error) {
	mutex := l.rs.NewMutex(Key(email),
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire customer lock: %w", err)
	}

	return func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Warn("failed to release customer lock", "key", mutex.Name(), "error", err)
		}
	}, nil
}
