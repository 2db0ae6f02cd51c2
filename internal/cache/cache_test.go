package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Minute)

	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("unexpected hit for missing key")
	}
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("k", "v", -time.Second)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry must miss")
	}
}

func TestOverwrite(t *testing.T) {
	c := New()
	c.Set("k", "old", time.Minute)
	c.Set("k", "new", time.Minute)

	if v, _ := c.Get("k"); v != "new" {
		t.Errorf("Get = %q, want new", v)
	}
}
