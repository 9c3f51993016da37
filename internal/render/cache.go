package render

import "sync"

// Cache remembers the last label dispatched for every workspace so unchanged
// labels are not sent again.
type Cache struct {
	mu     sync.Mutex
	labels map[int]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{labels: make(map[int]string)}
}

// Diff returns the entries of next that differ from the cached label. An id
// without a cached label always counts as changed.
func (c *Cache) Diff(next map[int]string) map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := make(map[int]string)
	for id, label := range next {
		if prev, ok := c.labels[id]; ok && prev == label {
			continue
		}
		changed[id] = label
	}
	return changed
}

// Commit stores the accepted labels and forgets every id not in known.
func (c *Cache) Commit(accepted map[int]string, known map[int]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, label := range accepted {
		c.labels[id] = label
	}
	for id := range c.labels {
		if _, ok := known[id]; !ok {
			delete(c.labels, id)
		}
	}
}

// Reset drops every cached label so the next pass re-emits everything.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = make(map[int]string)
}

// Snapshot returns a copy of the cached labels.
func (c *Cache) Snapshot() map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]string, len(c.labels))
	for id, label := range c.labels {
		out[id] = label
	}
	return out
}

// Len returns the number of cached workspaces.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.labels)
}
