package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-booking/internal/logging"
)

var (
	ErrLockNotAcquired = errors.New("form lock not acquired")
)

const acquirePoll = 20 * time.Millisecond

// Locker is used by the booking service to serialize mutations of one form
type Locker interface {
	WithFormLock(ctx context.Context, formID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisFormLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

type LockOption func(*redisFormLocker)

// WithAcquireWait polls a held lock for up to d before returning ErrLockNotAcquired.
func WithAcquireWait(d time.Duration) LockOption {
	return func(l *redisFormLocker) { l.wait = d }
}

func WithLockLogger(logger *zap.Logger) LockOption {
	return func(l *redisFormLocker) { l.logger = logger }
}

// NewRedisFormLocker creates a locker that uses a per form Redis key
func NewRedisFormLocker(client *redis.Client, ttl time.Duration, opts ...LockOption) Locker {
	l := &redisFormLocker{
		client: client,
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrNop(l.logger)
	return l
}

func formLockKey(formID uuid.UUID) string {
	return "lock:form:" + formID.String()
}

func (l *redisFormLocker) WithFormLock(ctx context.Context, formID uuid.UUID, fn func(ctx context.Context) error) error {
	key := formLockKey(formID)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		held, err := l.release(context.WithoutCancel(ctx), key, token)
		switch {
		case err != nil:
			l.logger.Warn("release form lock", zap.String("form_id", formID.String()), zap.Error(err))
		case !held:
			// The TTL ran out while fn was running; another holder may have overlapped.
			l.logger.Warn("form lock expired before release",
				zap.String("form_id", formID.String()),
				zap.Duration("ttl", l.ttl),
			)
		}
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *redisFormLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire form lock: %w", err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ErrLockNotAcquired
		case <-time.After(acquirePoll):
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// release deletes the key if it still carries token and reports whether it did.
func (l *redisFormLocker) release(ctx context.Context, key, token string) (bool, error) {
	n, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("release form lock: %w", err)
	}
	return n == 1, nil
}
