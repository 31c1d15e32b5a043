package service

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agbru/machin/internal/machin"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "machin_result_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	},
	[]string{"result"},
)

// cacheEntry keeps the canonical key next to the digits so that a 64-bit
// hash collision is detected instead of served.
type cacheEntry struct {
	key    string
	digits machin.Digits
}

// resultCache is a bounded LRU cache of rendered results keyed by the
// xxhash of the canonical request key. A zero capacity disables it.
type resultCache struct {
	entries *lru.Cache[uint64, cacheEntry]
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		return &resultCache{}
	}
	// lru.New only fails on a non-positive size.
	l, _ := lru.New[uint64, cacheEntry](capacity)
	return &resultCache{entries: l}
}

// cacheKey renders everything that influences the digits of a result.
func cacheKey(algo string, p machin.Params, opts machin.Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d|%d|%dx%d|", algo, p.Precision, p.Scale, opts.BlockWidth, opts.BlockHeight)
	for i, t := range p.Terms {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d:%d", t.Multiplier, t.Argument)
	}
	return sb.String()
}

func (c *resultCache) get(key string) (machin.Digits, bool) {
	if c.entries == nil {
		return machin.Digits{}, false
	}
	entry, ok := c.entries.Get(xxhash.Sum64String(key))
	if !ok || entry.key != key {
		cacheLookups.WithLabelValues("miss").Inc()
		return machin.Digits{}, false
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return entry.digits, true
}

func (c *resultCache) put(key string, digits machin.Digits) {
	if c.entries == nil {
		return
	}
	c.entries.Add(xxhash.Sum64String(key), cacheEntry{key: key, digits: digits})
}

func (c *resultCache) len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
