package resolver

import "sync"

// PathCache maps a relative directory path (slash-separated, "" for the
// backup root) to the remote folder identifier it resolved to. Once a path
// is resolved it is never re-resolved or overwritten for the rest of the
// run; this is what prevents duplicate folder creation.
type PathCache struct {
	mu  sync.RWMutex
	ids map[string]string
}

// NewPathCache creates an empty path cache.
func NewPathCache() *PathCache {
	return &PathCache{ids: make(map[string]string)}
}

// Get returns the cached folder ID for the given path, or ("", false).
func (c *PathCache) Get(relPath string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[relPath]
	return id, ok
}

// Set stores a folder ID for the given path. The first write wins; a
// second Set for the same path is ignored and the existing ID returned.
func (c *PathCache) Set(relPath, id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.ids[relPath]; ok {
		return existing
	}
	c.ids[relPath] = id
	return id
}

// Len returns the number of resolved paths.
func (c *PathCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}
