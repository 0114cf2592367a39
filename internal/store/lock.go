package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when the context ends before the lock frees up.
var ErrLockNotAcquired = errors.New("matching lock not acquired")

const lockKeyPrefix = "matching:lock:"

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ProjectLock serializes matching runs for one project across processes.
type ProjectLock struct {
	client       redis.Cmdable
	ttl          time.Duration
	pollInterval time.Duration
	newToken     func() string
}

func NewProjectLock(client redis.Cmdable, ttl time.Duration) *ProjectLock {
	return &ProjectLock{
		client:       client,
		ttl:          ttl,
		pollInterval: 100 * time.Millisecond,
		newToken:     uuid.NewString,
	}
}

// Acquire blocks until the project's lock is taken or ctx ends. The returned
// release func is safe to call after the TTL has expired.
func (l *ProjectLock) Acquire(ctx context.Context, projectID string) (func(context.Context) error, error) {
	key := lockKeyPrefix + projectID
	token := l.newToken()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					return fmt.Errorf("release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w for project %s: %v", ErrLockNotAcquired, projectID, ctx.Err())
		case <-ticker.C:
		}
	}
}
