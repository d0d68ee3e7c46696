package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// Bundle holds the translation tables of every namespace. Files are named
// <namespace>.<locale>.json.
type Bundle struct {
	fallback   string
	supported  []string
	matcher    language.Matcher
	order      []string
	namespaces map[string]*goi18n.Bundle
	ids        map[string][]string
}

// Props are the resolved strings of one locale, by namespace then key.
type Props map[string]map[string]string

// Get returns the string for key in ns, or key itself when missing.
func (p Props) Get(ns, key string) string {
	if v, ok := p[ns][key]; ok && v != "" {
		return v
	}
	return key
}

// LoadEmbedded loads the locales compiled into the binary.
func LoadEmbedded(fallback string, supported []string) (*Bundle, error) {
	return Load(locales, "locales", fallback, supported)
}

// Load parses every message file under dir in fsys.
func Load(fsys fs.FS, dir string, fallback string, supported []string) (*Bundle, error) {
	if !contains(supported, fallback) {
		supported = append([]string{fallback}, supported...)
	}

	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("parse fallback locale %q: %w", fallback, err)
	}

	tags := []language.Tag{fallbackTag}
	order := []string{fallback}
	for _, l := range supported {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", l, err)
		}
		if tag != fallbackTag {
			tags = append(tags, tag)
			order = append(order, l)
		}
	}

	b := &Bundle{
		fallback:   fallback,
		supported:  append([]string(nil), supported...),
		matcher:    language.NewMatcher(tags),
		order:      order,
		namespaces: map[string]*goi18n.Bundle{},
		ids:        map[string][]string{},
	}
	sort.Strings(b.supported)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locales %s: %w", dir, err)
	}

	seen := map[string]map[string]struct{}{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		ns, locale, ok := splitFileName(e.Name())
		if !ok || !b.IsSupported(locale) {
			continue
		}

		nb, exists := b.namespaces[ns]
		if !exists {
			nb = goi18n.NewBundle(fallbackTag)
			nb.RegisterUnmarshalFunc("json", json.Unmarshal)
			b.namespaces[ns] = nb
			seen[ns] = map[string]struct{}{}
		}

		mf, err := nb.LoadMessageFileFS(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", e.Name(), err)
		}

		for _, m := range mf.Messages {
			if _, dup := seen[ns][m.ID]; dup {
				continue
			}
			seen[ns][m.ID] = struct{}{}
			b.ids[ns] = append(b.ids[ns], m.ID)
		}
	}

	for ns, ids := range b.ids {
		sort.Strings(ids)
		b.ids[ns] = ids
	}

	return b, nil
}

func splitFileName(name string) (ns string, locale string, ok bool) {
	base := strings.TrimSuffix(name, ".json")
	ns, locale, ok = strings.Cut(base, ".")
	return ns, locale, ok && ns != "" && locale != ""
}

func (b *Bundle) Default() string { return b.fallback }

func (b *Bundle) Supported() []string {
	return append([]string(nil), b.supported...)
}

func (b *Bundle) IsSupported(locale string) bool {
	return contains(b.supported, locale)
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// Namespaces lists the loaded namespaces.
func (b *Bundle) Namespaces() []string {
	out := make([]string, 0, len(b.namespaces))
	for ns := range b.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// T returns the translation of key in ns for locale, falling back to the
// default locale and finally to key.
func (b *Bundle) T(locale, ns, key string) string {
	nb, ok := b.namespaces[ns]
	if !ok {
		return key
	}

	msg, err := goi18n.NewLocalizer(nb, locale, b.fallback).Localize(&goi18n.LocalizeConfig{
		MessageID: key,
	})
	if err != nil || msg == "" {
		return key
	}
	return msg
}

// Props resolves every key of the given namespaces for locale.
func (b *Bundle) Props(locale string, namespaces ...string) Props {
	props := make(Props, len(namespaces))
	for _, ns := range namespaces {
		table := make(map[string]string, len(b.ids[ns]))
		for _, id := range b.ids[ns] {
			table[id] = b.T(locale, ns, id)
		}
		props[ns] = table
	}
	return props
}

// Match picks the best supported locale for an Accept-Language header value.
func (b *Bundle) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}

	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return b.order[idx]
}
