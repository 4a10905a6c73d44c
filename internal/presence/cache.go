package presence

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MonthKey identifies one calendar month in the application location.
type MonthKey struct {
	Year  int
	Month int
}

// MonthCache keeps the records of recently viewed months.
//
// Writers invalidate by MonthKey. A reader that fetched from storage while an
// invalidation happened must not store its (possibly stale) result, so every
// Get hands out an epoch and Add is a no-op when the epoch moved on.
// A nil *MonthCache is valid and caches nothing.
// Writes made by other processes are not seen until eviction.
type MonthCache struct {
	mu    sync.Mutex
	lru   *lru.Cache[MonthKey, []Record]
	epoch uint64
}

// NewMonthCache returns nil (caching disabled) when size <= 0.
func NewMonthCache(size int) (*MonthCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[MonthKey, []Record](size)
	if err != nil {
		return nil, err
	}
	return &MonthCache{lru: c}, nil
}

// Get returns a copy of the cached records and the epoch to pass to Add.
func (c *MonthCache) Get(k MonthKey) ([]Record, uint64, bool) {
	if c == nil {
		return nil, 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	recs, ok := c.lru.Get(k)
	if !ok {
		return nil, c.epoch, false
	}
	return append([]Record(nil), recs...), c.epoch, true
}

func (c *MonthCache) Add(k MonthKey, recs []Record, epoch uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.lru.Add(k, append([]Record(nil), recs...))
}

func (c *MonthCache) Invalidate(k MonthKey) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.lru.Remove(k)
}
