// Package catalog loads the readable-content catalog from a YAML file.
// The catalog is the session layer's source of truth for page counts
// and canonical URLs; a session cannot open content the catalog does
// not know.
package catalog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry describes one readable content item.
type Entry struct {
	// ID is the post id the reading frontend navigates by.
	ID string `yaml:"id"`

	// Title of the content.
	Title string `yaml:"title"`

	// URL is the canonical path used for deep links.
	URL string `yaml:"url"`

	// Pages is the page count. Must be >= 1.
	Pages int `yaml:"pages"`

	// Vertical hints that the content reads best in scroll mode
	// (e.g. webtoons). Sessions opened without an explicit mode use it.
	Vertical bool `yaml:"vertical"`

	// Labels are the CMS labels attached to the post.
	Labels []string `yaml:"labels"`
}

// fileSchema is the root structure of catalog.yaml.
type fileSchema struct {
	Content []Entry `yaml:"content"`
}

// Catalog is the in-memory view of the catalog file. Reload replaces
// the whole map atomically.
type Catalog struct {
	mu         sync.RWMutex
	path       string
	byID       map[string]Entry
	lastReload time.Time
}

// New creates a catalog bound to the given file. Call Load before use.
func New(path string) *Catalog {
	return &Catalog{
		path: path,
		byID: make(map[string]Entry),
	}
}

// Load reads and parses the catalog file, replacing the current
// entries. Invalid entries (missing id, page count < 1) are skipped,
// not fatal: one bad row must not take out the whole catalog.
func (c *Catalog) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	var parsed fileSchema
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	byID := make(map[string]Entry, len(parsed.Content))
	for _, entry := range parsed.Content {
		if entry.ID == "" || entry.Pages < 1 {
			continue
		}
		byID[entry.ID] = entry
	}

	c.mu.Lock()
	c.byID = byID
	c.lastReload = time.Now()
	c.mu.Unlock()
	return nil
}

// Get returns the entry for a content id.
func (c *Catalog) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.byID[id]
	return entry, ok
}

// All returns every catalog entry.
func (c *Catalog) All() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.byID))
	for _, entry := range c.byID {
		entries = append(entries, entry)
	}
	return entries
}

// Count returns the number of entries.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}

// LastReload returns when the catalog was last loaded.
func (c *Catalog) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastReload
}
