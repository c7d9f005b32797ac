package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr(),
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, redis.Healthcheck(client)(context.Background()))
}

func TestConnect_BadURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "not-a-url",
		ConnectTimeout: time.Second,
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1",
		ConnectTimeout: time.Second,
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
	})
	assert.Error(t, err)
}
