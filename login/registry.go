package login

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ory-kratos-login/navigation"
)

// Mounted is a view together with the mailbox it navigates through.
type Mounted struct {
	View       *View
	Navigation *navigation.Mailbox
}

// Registry keeps the mounted login view of each visitor session.
type Registry struct {
	auth  Authenticator
	opts  []ViewOption
	views *expirable.LRU[string, *Mounted]
}

// NewRegistry creates a Registry holding at most size views, each dropped
// ttl after it was last mounted. Dropped views are closed.
func NewRegistry(auth Authenticator, size int, ttl time.Duration, opts ...ViewOption) *Registry {
	onEvict := func(_ string, m *Mounted) {
		m.View.Close()
	}

	return &Registry{
		auth:  auth,
		opts:  opts,
		views: expirable.NewLRU[string, *Mounted](size, onEvict, ttl),
	}
}

// Mount tears down the previous view of sessionID, if any, and mounts a fresh one.
func (r *Registry) Mount(sessionID, path string) *Mounted {
	if prev, ok := r.views.Peek(sessionID); ok {
		prev.View.Close()
	}

	mailbox := navigation.NewMailbox()
	m := &Mounted{
		View:       NewView(path, r.auth, mailbox, r.opts...),
		Navigation: mailbox,
	}

	r.views.Add(sessionID, m)

	return m
}

// Lookup returns the view currently mounted for sessionID.
func (r *Registry) Lookup(sessionID string) (*Mounted, bool) {
	return r.views.Get(sessionID)
}

// Unmount closes and forgets the view of sessionID.
func (r *Registry) Unmount(sessionID string) {
	r.views.Remove(sessionID)
}

// Len returns the number of mounted views.
func (r *Registry) Len() int {
	return r.views.Len()
}
