package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

func TestKey(t *testing.T) {
	got := Key(zodiac.Aries, zodiac.Today, false, "ru")
	if got != "aries_today_false_ru" {
		t.Errorf("Key = %q", got)
	}

	detailed := Key(zodiac.Aries, zodiac.Today, true, "ru")
	if detailed == got {
		t.Error("detailed flag must change the key")
	}
}

func TestFileCachePutGetPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c := OpenFileCache(path)

	key := Key(zodiac.Aries, zodiac.Today, false, "ru")
	today := DateString(time.Now())

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache must miss")
	}
	if err := c.Put(key, "some text", today); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, ok := c.Get(key)
	if !ok || entry.Text != "some text" || entry.Date != today {
		t.Fatalf("Get = %+v, %v", entry, ok)
	}

	// A fresh cache from the same file sees the entry.
	reloaded := OpenFileCache(path)
	if entry, ok := reloaded.Get(key); !ok || entry.Text != "some text" {
		t.Errorf("reloaded Get = %+v, %v", entry, ok)
	}
}

func TestFileCacheKeyIsolation(t *testing.T) {
	c := OpenFileCache(filepath.Join(t.TempDir(), "cache.json"))
	today := DateString(time.Now())

	brief := Key(zodiac.Leo, zodiac.Today, false, "ru")
	detailed := Key(zodiac.Leo, zodiac.Today, true, "ru")

	if err := c.Put(brief, "short", today); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(detailed); ok {
		t.Error("detailed key must not see the brief entry")
	}
}

func TestFileCachePurgeStale(t *testing.T) {
	c := OpenFileCache(filepath.Join(t.TempDir(), "cache.json"))
	today := DateString(time.Now())
	yesterday := DateString(time.Now().AddDate(0, 0, -1))

	c.Put(Key(zodiac.Aries, zodiac.Today, false, "ru"), "fresh", today)
	c.Put(Key(zodiac.Leo, zodiac.Today, false, "ru"), "stale", yesterday)
	c.Put(Key(zodiac.Leo, zodiac.Tomorrow, false, "ru"), "stale too", yesterday)

	if removed := c.PurgeStale(today); removed != 2 {
		t.Errorf("PurgeStale removed %d, want 2", removed)
	}
	if _, ok := c.Get(Key(zodiac.Aries, zodiac.Today, false, "ru")); !ok {
		t.Error("fresh entry must survive the purge")
	}
	if _, ok := c.Get(Key(zodiac.Leo, zodiac.Today, false, "ru")); ok {
		t.Error("stale entry must be purged")
	}
}

func TestFileCacheCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := OpenFileCache(path)
	if _, ok := c.Get("aries_today_false_ru"); ok {
		t.Error("corrupt cache must behave as empty")
	}
}

func TestLunarCacheSameDayTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunar.json")
	c := OpenLunarCache(path)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	c.Put("ru_Europe-Moscow", "moon text", now)

	if text, ok := c.Get("ru_Europe-Moscow", now); !ok || text != "moon text" {
		t.Fatalf("same-day Get = %q, %v", text, ok)
	}
	if _, ok := c.Get("ru_Europe-Moscow", now.AddDate(0, 0, 1)); ok {
		t.Error("next-day Get must miss")
	}
}
