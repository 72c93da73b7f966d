package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const connectAttempts = 5

// Client wraps the Redis connection used as a lookup cache.
type Client struct {
	rdb *goredis.Client
}

// NewClient connects to Redis with retry.
func NewClient(addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	for i := 0; i < connectAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Println("Connected to Redis")
			return &Client{rdb: rdb}, nil
		}
		log.Printf("Waiting for Redis... (%d/%d)", i+1, connectAttempts)
		time.Sleep(time.Second)
	}
	rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after %d attempts", connectAttempts)
}

// Load returns the cached value for key. A missing key is (nil, false, nil).
func (c *Client) Load(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Store caches value under key for ttl.
func (c *Client) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
