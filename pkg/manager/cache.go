package manager

// fifoCache is a bounded map with oldest-first eviction. It is used to keep
// parent directory ids warm during scans and to avoid repeated row lookups in
// GetFSO. It is not safe for concurrent use; callers synchronise access.
type fifoCache struct {
	// capacity is the maximum number of entries retained.
	capacity int
	// values maps keys to cached values.
	values map[string]interface{}
	// order tracks insertion order for eviction.
	order []string
}

// newFIFOCache creates a cache with the specified capacity.
func newFIFOCache(capacity int) *fifoCache {
	return &fifoCache{
		capacity: capacity,
		values:   make(map[string]interface{}, capacity),
	}
}

// get looks up a cached value.
func (c *fifoCache) get(key string) (interface{}, bool) {
	value, ok := c.values[key]
	return value, ok
}

// put inserts or replaces a cached value, evicting the oldest entry if the
// cache is full.
func (c *fifoCache) put(key string, value interface{}) {
	if _, ok := c.values[key]; ok {
		c.values[key] = value
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.values, oldest)
	}
	c.values[key] = value
	c.order = append(c.order, key)
}

// clear drops all cached values.
func (c *fifoCache) clear() {
	c.values = make(map[string]interface{}, c.capacity)
	c.order = nil
}
