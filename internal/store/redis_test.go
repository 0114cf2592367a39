package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-workers/internal/models"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ==========================
// ProjectLock
// ==========================

func TestProjectLock_AcquireAndRelease(t *testing.T) {
	mr, client := newMiniredis(t)
	lock := NewProjectLock(client, time.Minute)

	release, err := lock.Acquire(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("matching:lock:p-1"))
	assert.Equal(t, time.Minute, mr.TTL("matching:lock:p-1"))

	require.NoError(t, release(context.Background()))
	assert.False(t, mr.Exists("matching:lock:p-1"))
}

func TestProjectLock_WaitsForHolder(t *testing.T) {
	_, client := newMiniredis(t)
	lock := NewProjectLock(client, time.Minute)
	lock.pollInterval = 10 * time.Millisecond

	release, err := lock.Acquire(context.Background(), "p-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lock.Acquire(ctx, "p-1")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = release(context.Background())
	}()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	release2, err := lock.Acquire(ctx2, "p-1")
	require.NoError(t, err)
	assert.NoError(t, release2(context.Background()))
}

func TestProjectLock_ReleaseDoesNotStealNewHolder(t *testing.T) {
	mr, client := newMiniredis(t)
	lock := NewProjectLock(client, time.Minute)

	release, err := lock.Acquire(context.Background(), "p-1")
	require.NoError(t, err)

	// Lock expired and someone else took it.
	require.NoError(t, mr.Set("matching:lock:p-1", "other-holder"))

	require.NoError(t, release(context.Background()))
	got, err := mr.Get("matching:lock:p-1")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", got)
}

func TestProjectLock_RedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lock := NewProjectLock(client, time.Minute)
	lock.newToken = func() string { return "tok" }

	mock.ExpectSetNX("matching:lock:p-1", "tok", time.Minute).SetErr(errors.New("READONLY"))

	_, err := lock.Acquire(context.Background(), "p-1")
	assert.ErrorContains(t, err, "READONLY")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ResultCache
// ==========================

func TestResultCache_PutGetInvalidate(t *testing.T) {
	mr, client := newMiniredis(t)
	cache := NewResultCache(client, 5*time.Minute)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, hit)

	ranked := []models.RankedMatch{{ProfileID: "c-1", ProfileName: "Aiko", TotalScore: 100}}
	require.NoError(t, cache.Put(ctx, "p-1", ranked))
	assert.Equal(t, 5*time.Minute, mr.TTL("matching:results:p-1"))

	got, hit, err := cache.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, ranked, got)

	require.NoError(t, cache.Invalidate(ctx, "p-1"))
	assert.False(t, mr.Exists("matching:results:p-1"))
}

func TestResultCache_WithRedisMock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewResultCache(client, time.Minute)
	ctx := context.Background()

	ranked := []models.RankedMatch{{ProfileID: "c-2", TotalScore: 42}}
	data, _ := json.Marshal(ranked)

	mock.ExpectGet("matching:results:p-2").SetErr(errors.New("i/o timeout"))
	mock.ExpectSet("matching:results:p-2", data, time.Minute).SetVal("OK")
	mock.ExpectGet("matching:results:p-3").SetVal("not json")

	_, _, err := cache.Get(ctx, "p-2")
	assert.ErrorContains(t, err, "i/o timeout")

	assert.NoError(t, cache.Put(ctx, "p-2", ranked))

	_, _, err = cache.Get(ctx, "p-3")
	assert.ErrorContains(t, err, "decode result cache")

	assert.NoError(t, mock.ExpectationsWereMet())
}
