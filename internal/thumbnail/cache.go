// Package thumbnail materializes preview images on demand and memoizes
// them by URL for the lifetime of one result set.
package thumbnail

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"codeberg.org/snonux/waldl/internal/fetch"
	"codeberg.org/snonux/waldl/internal/imaging"
)

// Handle is a decoded thumbnail ready for display
type Handle struct {
	URL    string
	Image  *image.NRGBA
	Width  int
	Height int
}

// Cache maps thumbnail URLs to decoded handles. Entries are scoped to one
// generation; Reset starts a new one.
type Cache struct {
	getter fetch.Getter
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	entries    map[string]*Handle
}

// NewCache creates an empty cache at generation 0
func NewCache(getter fetch.Getter, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		getter:  getter,
		logger:  logger,
		entries: make(map[string]*Handle),
	}
}

// Generation returns the current generation
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Len returns the number of materialized entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every entry and makes generation current.
func (c *Cache) Reset(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation = generation
	c.entries = make(map[string]*Handle)
}

// Lookup returns the handle for url without fetching.
func (c *Cache) Lookup(url string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[url]
	return h, ok
}

// Materialize returns the handle for url, fetching and decoding it on first
// use. The bool is false while the image is pending: a failed fetch or
// decode stores nothing, so the next call retries.
func (c *Cache) Materialize(ctx context.Context, url string) (*Handle, bool) {
	return c.MaterializeFor(ctx, c.Generation(), url)
}

// MaterializeFor is Materialize for a request issued under generation. If
// the cache moved on while the fetch was in flight the handle is returned
// but not stored.
func (c *Cache) MaterializeFor(ctx context.Context, generation uint64, url string) (*Handle, bool) {
	if h, ok := c.Lookup(url); ok {
		return h, true
	}

	h, err := c.load(ctx, url)
	if err != nil {
		c.logger.Debug("thumbnail pending", "url", url, "error", err)
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		c.logger.Debug("dropping stale thumbnail",
			"url", url, "generation", generation, "current", c.generation)
		return h, true
	}
	if existing, ok := c.entries[url]; ok {
		return existing, true
	}
	c.entries[url] = h
	return h, true
}

func (c *Cache) load(ctx context.Context, url string) (*Handle, error) {
	data, err := c.getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	rgba := imaging.ToNRGBA(img)
	return &Handle{
		URL:    url,
		Image:  rgba,
		Width:  rgba.Rect.Dx(),
		Height: rgba.Rect.Dy(),
	}, nil
}
