//go:build integration

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestDispatcherAndDeadLetter(t *testing.T) {
	fastRetries(t)
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &fakeSender{configured: true, err: assert.AnError}
	StartWorkerPool(ctx, rdb, 1, Handlers{JobTypeEmail: NewEmailWorker(sender).Process})

	d := NewDispatcher(rdb)
	require.NoError(t, d.EnqueueEmail(ctx, EmailJobPayload{ToEmail: "ops@example.com", Subject: "s", Body: "b"}))

	require.Eventually(t, func() bool {
		n, err := DLQLength(ctx, rdb, QueueEmail)
		return err == nil && n == 1
	}, 15*time.Second, 100*time.Millisecond)

	entries, err := DLQEntries(ctx, rdb, QueueEmail, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, JobTypeEmail, entries[0].JobType)
	assert.Equal(t, MaxJobAttempts, entries[0].Attempts)
}

func TestRedisDeduper(t *testing.T) {
	rdb := startRedis(t)
	d := NewRedisDeduper(rdb)
	ctx := context.Background()

	first, err := d.FirstTime(ctx, "stock_alert:x:2024-06-01", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstTime(ctx, "stock_alert:x:2024-06-01", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)
}
