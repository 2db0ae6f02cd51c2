// Package compat answers zodiac compatibility questions from the
// embedded dataset. Explicit sign pairs take priority; every other
// combination falls back to the element pairing, so a reading exists
// for all seventy-eight pairs.
package compat

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexguevara007/Astrobot-2.0/internal/locales"
	"github.com/alexguevara007/Astrobot-2.0/internal/zodiac"
)

//go:embed compat.json
var compatJSON []byte

// Reading holds the localized texts for one pairing.
type Reading struct {
	General    map[string]string `json:"general"`
	Love       map[string]string `json:"love"`
	Friendship map[string]string `json:"friendship"`
	Work       map[string]string `json:"work"`
}

type dataset struct {
	Pairs    map[string]Reading `json:"pairs"`
	Elements map[string]Reading `json:"elements"`
}

// Matcher looks up compatibility readings.
type Matcher struct {
	data dataset
}

func NewMatcher() (*Matcher, error) {
	var data dataset
	if err := json.Unmarshal(compatJSON, &data); err != nil {
		return nil, fmt.Errorf("parse embedded compatibility data: %w", err)
	}
	return &Matcher{data: data}, nil
}

func elementKey(s zodiac.Sign) string {
	return strings.ToLower(zodiac.GetInfo(s).Element["en"])
}

// Lookup finds the reading for a pair of signs. Pair keys are
// symmetric: "aries_libra" answers for "libra_aries" too.
func (m *Matcher) Lookup(a, b zodiac.Sign) (Reading, bool) {
	if r, ok := m.data.Pairs[string(a)+"_"+string(b)]; ok {
		return r, true
	}
	if r, ok := m.data.Pairs[string(b)+"_"+string(a)]; ok {
		return r, true
	}

	ea, eb := elementKey(a), elementKey(b)
	if r, ok := m.data.Elements[ea+"_"+eb]; ok {
		return r, true
	}
	if r, ok := m.data.Elements[eb+"_"+ea]; ok {
		return r, true
	}
	return Reading{}, false
}

func localized(texts map[string]string, lang string) string {
	if t := texts[lang]; t != "" {
		return t
	}
	return texts[locales.DefaultLang]
}

// Render builds the full compatibility message for a pair.
func (m *Matcher) Render(a, b zodiac.Sign, lang string) string {
	reading, ok := m.Lookup(a, b)
	if !ok {
		return locales.Get("compat_missing", lang)
	}

	var sb strings.Builder
	sb.WriteString(locales.Get("compat_header", lang,
		"sign1", zodiac.GetInfo(a).Emoji+" "+a.DisplayName(lang),
		"sign2", zodiac.GetInfo(b).Emoji+" "+b.DisplayName(lang),
	))

	sections := []struct {
		key   string
		texts map[string]string
	}{
		{"compat_general", reading.General},
		{"compat_love", reading.Love},
		{"compat_friendship", reading.Friendship},
		{"compat_work", reading.Work},
	}
	for _, s := range sections {
		text := localized(s.texts, lang)
		if text == "" {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(locales.Get(s.key, lang))
		sb.WriteString("\n")
		sb.WriteString(text)
	}
	return sb.String()
}
