package resolver

import (
	"sync"

	"github.com/bianoble/drive-mirror/internal/remote"
)

// listingCache caches folder listings by folder ID for the run. Each
// remote folder is listed over the network at most once; entries created
// later in the run are reached through the path cache instead of by
// re-listing their parent.
type listingCache struct {
	mu       sync.RWMutex
	children map[string][]remote.Entry
}

func newListingCache() *listingCache {
	return &listingCache{children: make(map[string][]remote.Entry)}
}

func (c *listingCache) get(folderID string) ([]remote.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.children[folderID]
	return entries, ok
}

func (c *listingCache) set(folderID string, entries []remote.Entry) []remote.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.children[folderID]; ok {
		return existing
	}
	c.children[folderID] = entries
	return entries
}
