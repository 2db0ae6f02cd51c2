// Package storage holds the persistent pieces: the JSON horoscope
// cache, the lunar text cache and the SQLite user database.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alexguevara007/Astrobot-2.0/internal/logger"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

const dateLayout = "2006-01-02"

// Entry is one cached horoscope text with the day it was generated.
type Entry struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// FileCache is a JSON-backed horoscope cache. Entries are grouped by
// sign, mirroring the on-disk layout:
//
//	{"aries": {"aries_today_false_ru": {"date": "...", "text": "..."}}}
type FileCache struct {
	path string

	mu   sync.RWMutex
	data map[string]map[string]Entry
}

// Key builds the cache key for a generated horoscope.
func Key(sign zodiac.Sign, day zodiac.Day, detailed bool, lang string) string {
	return fmt.Sprintf("%s_%s_%t_%s", sign, day, detailed, lang)
}

// DateString formats a time the way cache entries store their date.
func DateString(t time.Time) string {
	return t.Format(dateLayout)
}

// OpenFileCache loads the cache file. A missing or corrupt file yields
// an empty cache, never an error.
func OpenFileCache(path string) *FileCache {
	c := &FileCache{
		path: path,
		data: make(map[string]map[string]Entry),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read horoscope cache, starting empty", "path", path, "error", err)
		}
		return c
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		logger.Warn("horoscope cache is corrupt, starting empty", "path", path, "error", err)
		c.data = make(map[string]map[string]Entry)
	}
	return c
}

func signOf(key string) string {
	if idx := strings.IndexByte(key, '_'); idx > 0 {
		return key[:idx]
	}
	return key
}

// Get returns the cached entry for the key, if any.
func (c *FileCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bySign, ok := c.data[signOf(key)]
	if !ok {
		return Entry{}, false
	}
	entry, ok := bySign[key]
	return entry, ok
}

// Put stores a text under the key for the given date and persists the
// whole cache to disk.
func (c *FileCache) Put(key, text, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sign := signOf(key)
	if c.data[sign] == nil {
		c.data[sign] = make(map[string]Entry)
	}
	c.data[sign][key] = Entry{Date: date, Text: text}

	return c.persistLocked()
}

// PurgeStale drops every entry not generated on the given day and
// returns how many were removed.
func (c *FileCache) PurgeStale(today string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for sign, bySign := range c.data {
		for key, entry := range bySign {
			if entry.Date != today {
				delete(bySign, key)
				removed++
			}
		}
		if len(bySign) == 0 {
			delete(c.data, sign)
		}
	}

	if removed > 0 {
		if err := c.persistLocked(); err != nil {
			logger.Error("cannot persist cache after purge", "error", err)
		}
	}
	return removed
}

func (c *FileCache) persistLocked() error {
	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}
