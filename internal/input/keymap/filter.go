package keymap

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Filter admits bindings whose locale and platform suit the running
// system. A binding locale of "" matches every locale, "en" matches any
// English locale and "en_GB" matches only British English. Platforms
// match exactly or through "". The zero Filter admits everything.
type Filter struct {
	locales   []string
	platforms []string
}

// NewFilter creates a filter for the given locale (e.g. "en_GB" or
// "en-GB") and platform (e.g. "linux"). Empty values admit every binding
// for that dimension.
func NewFilter(locale, platform string) Filter {
	var f Filter
	if loc := NormalizeLocale(locale); loc != "" {
		f.locales = expand(loc, "_")
	}
	if p := strings.TrimSpace(platform); p != "" {
		f.platforms = []string{p, ""}
	}
	return f
}

// Locales returns the accepted locales, most specific first.
func (f Filter) Locales() []string { return slices.Clone(f.locales) }

// Platforms returns the accepted platforms, most specific first.
func (f Filter) Platforms() []string { return slices.Clone(f.platforms) }

// Matches reports whether b applies to the filter's locale and platform.
func (f Filter) Matches(b *Binding) bool {
	if b == nil {
		return false
	}
	if f.locales != nil && !slices.Contains(f.locales, NormalizeLocale(b.locale)) {
		return false
	}
	if f.platforms != nil && !slices.Contains(f.platforms, strings.TrimSpace(b.platform)) {
		return false
	}
	return true
}

// NormalizeLocale returns the canonical underscore form of a BCP 47 or
// POSIX style locale, e.g. "EN-gb" becomes "en_GB". Values that do not
// parse are returned trimmed.
func NormalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	return strings.ReplaceAll(tag.String(), "-", "_")
}

// expand breaks "en_GB" into ["en_GB", "en", ""].
func expand(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts)+1)
	for i := len(parts); i > 0; i-- {
		out = append(out, strings.Join(parts[:i], sep))
	}
	return append(out, "")
}
