// Package locales holds the ru/en string tables and phrase lists used
// across the bot. Strings live in an embedded YAML file; unknown keys
// fall back to Russian, then to the key itself.
package locales

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed strings.yaml
var stringsYAML []byte

// table is the per-language bundle loaded from YAML.
type table struct {
	Strings map[string]string   `yaml:"strings"`
	Lists   map[string][]string `yaml:"lists"`
}

var bundles map[string]table

func init() {
	if err := yaml.Unmarshal(stringsYAML, &bundles); err != nil {
		panic(fmt.Sprintf("locales: bad embedded strings.yaml: %v", err))
	}
}

// DefaultLang is used when a user has no stored language.
const DefaultLang = "ru"

// Supported maps language codes to their display names.
var Supported = map[string]string{
	"ru": "Русский",
	"en": "English",
}

// Get returns the string for key in lang, substituting {name} placeholders
// from pairs (name1, value1, name2, value2, ...).
func Get(key, lang string, pairs ...string) string {
	b, ok := bundles[lang]
	if !ok {
		b = bundles[DefaultLang]
	}
	text, ok := b.Strings[key]
	if !ok {
		if fallback, ok2 := bundles[DefaultLang].Strings[key]; ok2 {
			text = fallback
		} else {
			return key
		}
	}
	if len(pairs) == 0 {
		return text
	}
	repl := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		repl = append(repl, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(repl...).Replace(text)
}

// List returns a phrase list (tones, intros, magic 8-ball answers) for lang,
// falling back to Russian.
func List(key, lang string) []string {
	if b, ok := bundles[lang]; ok {
		if l, ok2 := b.Lists[key]; ok2 && len(l) > 0 {
			return l
		}
	}
	return bundles[DefaultLang].Lists[key]
}
