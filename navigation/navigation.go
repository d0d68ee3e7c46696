package navigation

import (
	"strings"
	"sync"
)

// Location is a navigation target. An empty Locale keeps the visitor's current locale.
type Location struct {
	Path   string
	Locale string
}

// Navigator replaces the current history entry with the given location.
type Navigator interface {
	Replace(loc Location)
}

// Mailbox is a Navigator that holds the latest requested replacement until the
// HTTP layer picks it up with Take.
type Mailbox struct {
	mu      sync.Mutex
	pending *Location
	count   int
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Replace records loc as the pending navigation, overriding any untaken one.
func (m *Mailbox) Replace(loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = &loc
	m.count++
}

// Take returns the pending navigation, if any, and clears it.
func (m *Mailbox) Take() (Location, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return Location{}, false
	}

	loc := *m.pending
	m.pending = nil
	return loc, true
}

// Count returns how many navigations were requested over the mailbox lifetime.
func (m *Mailbox) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Href renders loc as a URL path. The default locale is served without prefix.
func Href(loc Location, current, defaultLocale string) string {
	locale := loc.Locale
	if locale == "" {
		locale = current
	}

	path := "/" + strings.TrimLeft(loc.Path, "/")

	if locale == "" || locale == defaultLocale {
		return path
	}

	if path == "/" {
		return "/" + locale
	}

	return "/" + locale + path
}
