package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	// Packages
	cache "github.com/mutablelogic/go-agent/pkg/cache"
	redis "github.com/redis/go-redis/v9"
	assert "github.com/stretchr/testify/assert"
)

func Test_cache_001(t *testing.T) {
	assert := assert.New(t)

	// Keys are deterministic and sensitive to each part
	a := cache.Key("openai", "gpt-4o", "hello")
	b := cache.Key("openai", "gpt-4o", "hello")
	c := cache.Key("openai", "gpt-4o", "goodbye")
	assert.Equal(a, b)
	assert.NotEqual(a, c)
	assert.NotEqual(cache.Key("ab", "c"), cache.Key("a", "bc"))
}

func Test_cache_002(t *testing.T) {
	assert := assert.New(t)
	c := cache.NewMemoryCache()

	// Miss returns nil without error
	value, err := c.Get(context.TODO(), "missing")
	assert.NoError(err)
	assert.Nil(value)

	// Set then get
	assert.NoError(c.Set(context.TODO(), "key", []byte("value"), 0))
	value, err = c.Get(context.TODO(), "key")
	assert.NoError(err)
	assert.Equal([]byte("value"), value)

	// Delete
	assert.NoError(c.Delete(context.TODO(), "key"))
	value, err = c.Get(context.TODO(), "key")
	assert.NoError(err)
	assert.Nil(value)
}

func Test_cache_003(t *testing.T) {
	assert := assert.New(t)
	c := cache.NewMemoryCache()

	// Expired entries are misses
	assert.NoError(c.Set(context.TODO(), "key", []byte("value"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	value, err := c.Get(context.TODO(), "key")
	assert.NoError(err)
	assert.Nil(value)
}

func Test_cache_004(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping")
	}
	assert := assert.New(t)

	options, err := redis.ParseURL(url)
	assert.NoError(err)
	c := cache.NewRedisCache(redis.NewClient(options), t.Name())
	assert.NoError(c.Ping(context.TODO()))

	// Miss, set, get, delete round trip
	value, err := c.Get(context.TODO(), "missing")
	assert.NoError(err)
	assert.Nil(value)

	assert.NoError(c.Set(context.TODO(), "key", []byte("value"), time.Minute))
	value, err = c.Get(context.TODO(), "key")
	assert.NoError(err)
	assert.Equal([]byte("value"), value)

	assert.NoError(c.Delete(context.TODO(), "key"))
}
