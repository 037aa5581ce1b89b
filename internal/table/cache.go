package table

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Cache memoizes loaded tables by resolved path. A path is read at most once
// until it is evicted.
type Cache struct {
	opt     Options
	mu      sync.Mutex
	entries map[string]*Table
	reads   int
}

// NewCache returns an empty cache that reads files with opt.
func NewCache(opt Options) *Cache {
	return &Cache{opt: opt, entries: make(map[string]*Table)}
}

// Load returns the cached table for path, reading the file on first use.
// Failed loads are not cached.
func (c *Cache) Load(path string) (*Table, error) {
	key := resolve(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.entries[key]; ok {
		return t, nil
	}
	t, err := ReadFile(key, c.opt)
	if err != nil {
		return nil, err
	}
	c.reads++
	c.entries[key] = t
	return t, nil
}

// Evict drops the cached table for path; the next Load rereads the file.
func (c *Cache) Evict(path string) {
	key := resolve(path)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Reads reports how many times a file has actually been parsed.
func (c *Cache) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Watch evicts path whenever the file is written, replaced or removed, until
// ctx is done. The parent directory is watched so editors that swap files in
// place are noticed.
func (c *Cache) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	key := resolve(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(key)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(key), err)
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if resolve(ev.Name) != key {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					c.Evict(key)
					logger.Debug("source changed, cache evicted", "path", key, "op", ev.Op.String())
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "path", key, "err", err)
			}
		}
	}()
	return nil
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
