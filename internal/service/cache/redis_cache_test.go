package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisCacheUnreachableReportsError(t *testing.T) {
	c := NewRedisCache(RedisConfig{Addr: "127.0.0.1:1"})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok, err := c.GetBytes(ctx, "prices:yahoo:AAPL:1d:5y")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
}
