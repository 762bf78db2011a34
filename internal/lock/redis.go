package lock

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/mrz1836/go-cache"
	"github.com/rs/zerolog"

	"github.com/mrz1836/adopt/internal/constants"
	adopterrors "github.com/mrz1836/adopt/internal/errors"
)

const (
	redisMaxActive   = 0
	redisMaxIdle     = 4
	redisIdleTimeout = 5 * time.Minute
	redisDialTimeout = 5 * time.Second
)

// RedisOptions configures a RedisLocker.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces lock keys. Defaults to "adopt:lock:".
	Prefix string

	// TTL bounds how long a lock survives a crashed holder. Redis expires
	// locks in whole seconds, so the TTL is rounded up.
	TTL time.Duration

	// Timeout bounds how long Lock waits.
	Timeout time.Duration

	// RetryInterval is the pause between acquire attempts.
	RetryInterval time.Duration

	Logger zerolog.Logger
}

// RedisLocker is a cross-process lock on top of the go-cache lock
// primitives. Each Lock call writes a fresh secret, and release only
// deletes the key while it still holds that secret.
type RedisLocker struct {
	client  *cache.Client
	prefix  string
	ttl     int64
	timeout time.Duration
	retry   time.Duration
	logger  zerolog.Logger
}

// NewRedisLocker connects a go-cache client pool and checks it once so a
// bad address fails fast.
func NewRedisLocker(ctx context.Context, opts RedisOptions) (*RedisLocker, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("failed to create redis locker: %w: redis address is required", adopterrors.ErrConfigInvalidLock)
	}

	client, err := cache.Connect(
		ctx,
		redisURL(opts),
		redisMaxActive,
		redisMaxIdle,
		0,
		redisIdleTimeout,
		false,
		false,
		redis.DialConnectTimeout(redisDialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at '%s': %w", opts.Addr, err)
	}

	if err = cache.Ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at '%s': %w", opts.Addr, err)
	}
	return newRedisLocker(client, opts), nil
}

func newRedisLocker(client *cache.Client, opts RedisOptions) *RedisLocker {
	l := &RedisLocker{
		client:  client,
		prefix:  opts.Prefix,
		ttl:     ttlSeconds(opts.TTL),
		timeout: opts.Timeout,
		retry:   opts.RetryInterval,
		logger:  opts.Logger.With().Str("component", "redis_lock").Logger(),
	}
	if l.prefix == "" {
		l.prefix = "adopt:lock:"
	}
	if l.timeout <= 0 {
		l.timeout = constants.DefaultLockTimeout
	}
	if l.retry <= 0 {
		l.retry = constants.DefaultLockRetryInterval
	}
	return l
}

// Lock acquires key, polling until the locker's timeout.
func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	redisKey := l.prefix + key
	secret := uuid.NewString()

	waitCtx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	for {
		ok, err := l.tryAcquire(waitCtx, redisKey, secret)
		if err != nil && waitCtx.Err() == nil {
			return nil, fmt.Errorf("failed to lock '%s': %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return nil, timeoutError(ctx, waitCtx, key)
		case <-timer.C:
		}
	}

	l.logger.Debug().Str("key", key).Msg("lock acquired")

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.release(redisKey, secret); err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock, it will expire after its ttl")
			}
		})
	}, nil
}

// Close closes the connection pool.
func (l *RedisLocker) Close() error {
	l.client.Close()
	return nil
}

// tryAcquire reports false, without error, when another secret holds key.
func (l *RedisLocker) tryAcquire(ctx context.Context, key, secret string) (bool, error) {
	ok, err := cache.WriteLock(ctx, l.client, key, secret, l.ttl)
	if errors.Is(err, cache.ErrLockMismatch) {
		return false, nil
	}
	return ok, err
}

// release runs on a fresh context so an unlock deferred after the caller's
// context was canceled still reaches redis.
func (l *RedisLocker) release(key, secret string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	_, err := cache.ReleaseLock(ctx, l.client, key, secret)
	return err
}

// redisURL renders the connection options in the form cache.Connect dials.
func redisURL(opts RedisOptions) string {
	u := url.URL{
		Scheme: "redis",
		Host:   opts.Addr,
		Path:   "/" + strconv.Itoa(opts.DB),
	}
	if opts.Password != "" {
		u.User = url.UserPassword("", opts.Password)
	}
	return u.String()
}

func ttlSeconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		ttl = constants.DefaultLockTTL
	}
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Ensure RedisLocker implements Locker.
var _ Locker = (*RedisLocker)(nil)
