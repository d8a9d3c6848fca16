package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"ats-scout/internal/domain/job"
)

// ListingCache keeps the most recently loaded result file in memory, keyed by path and
// modification time.
type ListingCache struct {
	dir string

	mu    sync.Mutex
	path  string
	mod   time.Time
	items []job.Listing
}

func NewListingCache(dir string) *ListingCache {
	if dir == "" {
		dir = "."
	}
	return &ListingCache{dir: dir}
}

// Latest returns the listings of the newest result file and its base name.
func (c *ListingCache) Latest() ([]job.Listing, string, error) {
	path, err := LatestCSV(c.dir)
	if err != nil {
		return nil, "", err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items != nil && c.path == path && c.mod.Equal(st.ModTime()) {
		return c.items, filepath.Base(path), nil
	}

	items, err := LoadJobs(path)
	if err != nil {
		return nil, "", err
	}
	c.path, c.mod, c.items = path, st.ModTime(), items
	return items, filepath.Base(path), nil
}

// Invalidate drops the cached file so the next read goes back to disk.
func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	c.path, c.mod, c.items = "", time.Time{}, nil
	c.mu.Unlock()
}
