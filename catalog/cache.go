package catalog

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dramaplay/dramaplay/filesystem"
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/where"
	"github.com/metafates/gache"
)

type cachedResponse struct {
	Body    json.RawMessage `json:"body"`
	Fetched time.Time       `json:"fetched"`
}

// cache keeps raw responses by URL in one gache file. A nil cache misses.
type cache struct {
	lifetime time.Duration

	mu     sync.Mutex
	cacher *gache.Cache[map[string]cachedResponse]
}

func newCache(lifetime time.Duration) *cache {
	return &cache{
		lifetime: lifetime,
		cacher: gache.New[map[string]cachedResponse](&gache.Options{
			Path:       where.Catalog(),
			FileSystem: filesystem.CacheFs{},
		}),
	}
}

func (c *cache) lookup(target string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, err := c.cacher.Get()
	if err != nil {
		log.Warnf("catalog cache: %v", err)
		return nil, false
	}

	entry, ok := entries[target]
	if !ok || time.Since(entry.Fetched) > c.lifetime {
		return nil, false
	}
	return entry.Body, true
}

func (c *cache) store(target string, body []byte) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, _, err := c.cacher.Get()
	if err != nil || entries == nil {
		entries = make(map[string]cachedResponse)
	}

	now := time.Now()
	for k, e := range entries {
		if now.Sub(e.Fetched) > c.lifetime {
			delete(entries, k)
		}
	}

	entries[target] = cachedResponse{Body: body, Fetched: now}
	if err := c.cacher.Set(entries); err != nil {
		log.Warnf("catalog cache: %v", err)
	}
}
