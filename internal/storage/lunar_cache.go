package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
)

// LunarCache stores rendered lunar-calendar texts keyed by language
// and timezone. An entry is valid only on the calendar day it was
// written.
type LunarCache struct {
	path string

	mu   sync.RWMutex
	data map[string]Entry
}

func OpenLunarCache(path string) *LunarCache {
	c := &LunarCache{
		path: path,
		data: make(map[string]Entry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read lunar cache, starting empty", "path", path, "error", err)
		}
		return c
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		logger.Warn("lunar cache is corrupt, starting empty", "path", path, "error", err)
		c.data = make(map[string]Entry)
	}
	return c
}

func (c *LunarCache) Get(key string, now time.Time) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || entry.Date != DateString(now) {
		return "", false
	}
	return entry.Text, true
}

func (c *LunarCache) Put(key, text string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = Entry{Date: DateString(now), Text: text}

	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		logger.Error("cannot marshal lunar cache", "error", err)
		return
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("cannot create lunar cache dir", "error", err)
			return
		}
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		logger.Error("cannot write lunar cache", "error", err)
	}
}
