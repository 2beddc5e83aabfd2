package projection

import (
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/wx-observation-etl/internal/observation"
)

// Cache memoizes projections per station, capture instant and unit
// preferences. Whoever replaces an observation at an instant already cached
// must call Forget.
type Cache struct {
	cache *lruCache
}

// NewCache creates a cache holding at most maxEntries projections.
func NewCache(maxEntries int) *Cache {
	return &Cache{cache: newLRUCache(maxEntries)}
}

// Project returns the cached projection of o in prefs, computing and storing
// it on a miss. The boolean reports a cache hit.
func (c *Cache) Project(o observation.Observation, prefs UnitPreferences) (*Projection, bool, error) {
	key := cacheKey(o, prefs)
	if p, ok := c.cache.get(key); ok {
		return p, true, nil
	}
	p, err := Project(o, prefs)
	if err != nil {
		return nil, false, err
	}
	c.cache.put(key, p)
	return p, false, nil
}

// Forget drops the projection of o in prefs.
func (c *Cache) Forget(o observation.Observation, prefs UnitPreferences) {
	c.cache.delete(cacheKey(o, prefs))
}

// Len reports the number of cached projections.
func (c *Cache) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

func cacheKey(o observation.Observation, prefs UnitPreferences) string {
	return fmt.Sprintf("%s|%s|%s,%s,%s,%s,%s", o.Station().Name(), o.Time().UTC().Format(time.RFC3339Nano),
		prefs.Temperature, prefs.Pressure, prefs.Distance, prefs.Speed, prefs.ThetaE)
}

// lruCache is a simple thread-safe LRU cache of projections.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *Projection
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*Projection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.remove(e)
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
