package dssatfs

import (
	"container/list"
	"fmt"
	"os"
	"sync"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
)

// datasetCache keeps the most recently parsed datasets. Entries are keyed by
// file path, parser and modification stamp so an edited file misses.
type datasetCache struct {
	capacity int

	mu    sync.Mutex
	order *list.List // front is most recently used
	items map[string]*list.Element
}

type cached struct {
	key  string
	data *domain.Dataset
}

func newDatasetCache(capacity int) *datasetCache {
	return &datasetCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// cacheKey fingerprints a file for one parser. ok is false when the file
// cannot be stat'ed.
func cacheKey(format, path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%s|%d|%d", format, path, info.ModTime().UnixNano(), info.Size()), true
}

func (c *datasetCache) get(key string) (*domain.Dataset, bool) {
	if c == nil || c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).data, true
}

func (c *datasetCache) put(key string, d *domain.Dataset) {
	if c == nil || c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cached).data = d
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cached{key: key, data: d})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cached).key)
	}
}

func (c *datasetCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
