package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskboard/internal/config"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	core, logs := observer.New(zap.InfoLevel)

	client, err := NewClient(context.Background(), config.RedisConfig{
		URL:         "redis://" + mr.Addr(),
		DB:          2,
		PoolSize:    4,
		PingTimeout: time.Second,
	}, zap.New(core))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 2, client.Options().DB)
	assert.Equal(t, 4, client.Options().PoolSize)
	assert.NoError(t, Ping(client)(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("redis connected").Len())
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{URL: "http://not-redis"}, nil)
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := NewClient(context.Background(), config.RedisConfig{
		URL:         "redis://" + addr,
		PingTimeout: 200 * time.Millisecond,
	}, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPing_ClosedClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, nil)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	assert.Error(t, Ping(client)(context.Background()))
}
