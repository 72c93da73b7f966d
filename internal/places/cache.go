package places

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"
)

// Cache stores raw suggestion payloads by key.
type Cache interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSuggester serves repeated inputs from a Cache. Cache faults never
// fail a lookup; they fall through to the wrapped Suggester.
type CachedSuggester struct {
	next  Suggester
	cache Cache
	ttl   time.Duration
}

// NewCachedSuggester wraps next with cache.
func NewCachedSuggester(next Suggester, cache Cache, ttl time.Duration) *CachedSuggester {
	return &CachedSuggester{next: next, cache: cache, ttl: ttl}
}

func (c *CachedSuggester) Suggest(ctx context.Context, input string) ([]Suggestion, error) {
	key := cacheKey(input)

	data, ok, err := c.cache.Load(ctx, key)
	if err != nil {
		log.Printf("[places] cache load failed: %v", err)
	}
	if ok {
		var out []Suggestion
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
	}

	out, err := c.next.Suggest(ctx, input)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(out); err == nil {
		if err := c.cache.Store(ctx, key, data, c.ttl); err != nil {
			log.Printf("[places] cache store failed: %v", err)
		}
	}
	return out, nil
}

func cacheKey(input string) string {
	return "suggest:" + strings.ToLower(strings.Join(strings.Fields(input), " "))
}
