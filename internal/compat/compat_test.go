package compat

import (
	"strings"
	"testing"

	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := NewMatcher()
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	return m
}

func TestLookupSymmetric(t *testing.T) {
	m := newTestMatcher(t)

	ab, ok := m.Lookup(zodiac.Aries, zodiac.Libra)
	if !ok {
		t.Fatal("expected a reading for aries/libra")
	}
	ba, ok := m.Lookup(zodiac.Libra, zodiac.Aries)
	if !ok {
		t.Fatal("expected a reading for libra/aries")
	}
	if ab.General["ru"] != ba.General["ru"] {
		t.Error("pair lookup must be symmetric")
	}
}

func TestLookupCoversAllPairs(t *testing.T) {
	m := newTestMatcher(t)

	for _, a := range zodiac.All {
		for _, b := range zodiac.All {
			if _, ok := m.Lookup(a, b); !ok {
				t.Errorf("no reading for %s/%s", a, b)
			}
		}
	}
}

func TestElementFallback(t *testing.T) {
	m := newTestMatcher(t)

	// aries/leo has no explicit pair entry; both are fire signs.
	reading, ok := m.Lookup(zodiac.Aries, zodiac.Leo)
	if !ok {
		t.Fatal("expected element fallback for aries/leo")
	}
	fire, ok := m.data.Elements["fire_fire"]
	if !ok {
		t.Fatal("dataset is missing fire_fire")
	}
	if reading.General["en"] != fire.General["en"] {
		t.Error("aries/leo should resolve to the fire_fire element reading")
	}
}

func TestRender(t *testing.T) {
	m := newTestMatcher(t)

	for _, lang := range []string{"ru", "en"} {
		text := m.Render(zodiac.Taurus, zodiac.Scorpio, lang)
		if text == "" {
			t.Fatalf("empty render for %s", lang)
		}
		if !strings.Contains(text, zodiac.Taurus.DisplayName(lang)) {
			t.Errorf("%s render misses first sign name: %q", lang, text)
		}
		if !strings.Contains(text, zodiac.Scorpio.DisplayName(lang)) {
			t.Errorf("%s render misses second sign name: %q", lang, text)
		}
	}
}
