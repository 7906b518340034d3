package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// Cache memoises engine results. Results are a pure function of the goal
// snapshot, the edges, the as-of date and the options, so the key is a
// hash of exactly those.
type Cache struct {
	c *ristretto.Cache[string, any]
}

// NewCache returns a cache holding up to maxEntries results, or nil when
// maxEntries is zero.
func NewCache(maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries, // one unit per result
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Cache{c: c}, nil
}

func (c *Cache) get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.c.Get(key)
}

func (c *Cache) set(key string, v any) {
	if c == nil {
		return
	}
	c.c.Set(key, v, 1)
	c.c.Wait()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	if c != nil {
		c.c.Close()
	}
}

type cacheInput struct {
	Op    string                `json:"op"`
	AsOf  goal.Date             `json:"as_of"`
	Opts  Options               `json:"opts"`
	Goals []goal.Goal           `json:"goals"`
	Edges []goal.DependencyEdge `json:"edges"`
}

func cacheKey(op string, asOf goal.Date, opts Options, goals []goal.Goal, edges []goal.DependencyEdge) (string, error) {
	// Timestamps do not affect results.
	stripped := make([]goal.DependencyEdge, len(edges))
	for i, e := range edges {
		e.CreatedAt, e.UpdatedAt = zeroTime, zeroTime
		stripped[i] = e
	}
	data, err := json.Marshal(cacheInput{Op: op, AsOf: asOf, Opts: opts, Goals: goals, Edges: stripped})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
