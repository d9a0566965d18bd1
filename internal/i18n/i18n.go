// Package i18n loads the embedded locale tables and resolves message keys.
package i18n

import (
	"embed"
	"fmt"
	"maps"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var files embed.FS

// Names maps language codes to the label shown on the language keyboard.
var Names = map[string]string{
	"en": "🇬🇧 English",
	"it": "🇮🇹 Italiano",
}

// Args holds {placeholder} substitutions.
type Args map[string]any

type Bundle struct {
	tables   map[string]map[string]string
	enabled  []string
	fallback string
}

// Load reads the tables of the enabled languages plus the fallback.
func Load(enabled []string, fallback string) (*Bundle, error) {
	b := &Bundle{tables: map[string]map[string]string{}, fallback: fallback}
	want := append([]string{fallback}, enabled...)
	for _, lang := range want {
		if _, ok := b.tables[lang]; ok {
			continue
		}
		raw, err := files.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("i18n: no locale %q: %w", lang, err)
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", lang, err)
		}
		b.tables[lang] = table
	}
	for _, lang := range enabled {
		if !contains(b.enabled, lang) {
			b.enabled = append(b.enabled, lang)
		}
	}
	return b, nil
}

// Enabled returns the selectable languages in configuration order.
func (b *Bundle) Enabled() []string { return append([]string(nil), b.enabled...) }

func (b *Bundle) IsEnabled(lang string) bool { return contains(b.enabled, lang) }

// Pick returns lang if enabled, else def.
func (b *Bundle) Pick(lang, def string) string {
	if b.IsEnabled(lang) {
		return lang
	}
	return def
}

// Keys returns every key of a language table, sorted.
func (b *Bundle) Keys(lang string) []string {
	var keys []string
	for k := range b.tables[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Localizer resolves keys for one language. Replacements are applied to
// every string after the per-call Args.
type Localizer struct {
	lang         string
	table        map[string]string
	fallback     map[string]string
	replacements Args
}

func (b *Bundle) Localizer(lang string, replacements Args) *Localizer {
	if _, ok := b.tables[lang]; !ok {
		lang = b.fallback
	}
	return &Localizer{
		lang:         lang,
		table:        b.tables[lang],
		fallback:     b.tables[b.fallback],
		replacements: replacements,
	}
}

func (l *Localizer) Language() string { return l.lang }

// Get returns the text for key. Missing keys fall back to the fallback
// language and then to the key itself.
func (l *Localizer) Get(key string, args ...Args) string {
	s, ok := l.table[key]
	if !ok {
		s, ok = l.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return substitute(s, l.replacements)
	}
	// one pass, so placeholders inside argument values stay literal
	all := maps.Clone(l.replacements)
	if all == nil {
		all = Args{}
	}
	for _, a := range args {
		maps.Copy(all, a)
	}
	return substitute(s, all)
}

// Boolmoji renders a flag as an emoji.
func (l *Localizer) Boolmoji(v bool) string {
	if v {
		return l.Get("emoji_yes")
	}
	return l.Get("emoji_no")
}

func substitute(s string, a Args) string {
	if len(a) == 0 || !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, len(a)*2)
	for k, v := range a {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
