package login

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ory-kratos-login/navigation"
)

// DefaultRedirectDelay is the pause between a successful sign-in and the
// navigation to the application root.
const DefaultRedirectDelay = 1500 * time.Millisecond

// ProviderCredentials is the provider name passed to the Authenticator.
const ProviderCredentials = "credentials"

var (
	ErrBusy   = errors.New("a sign-in is already in progress")
	ErrClosed = errors.New("login view is closed")
)

// SignInOptions tunes a single sign-in call.
type SignInOptions struct {
	// Redirect asks the provider to navigate by itself. The view always sets it to false.
	Redirect bool
}

// SignInResult is what the credential provider reports for a completed call.
type SignInResult struct {
	OK     bool
	Status int
	Error  string
	URL    string

	// SessionToken is relayed to the visitor session when OK is true.
	SessionToken string
	IdentityID   string
}

// Authenticator verifies credentials against the identity provider.
type Authenticator interface {
	SignIn(ctx context.Context, provider string, creds Credentials, opts SignInOptions) (*SignInResult, error)
}

// Outcome summarizes a Submit call for the presentation layer.
type Outcome int

const (
	OutcomeSignedIn Outcome = iota + 1
	OutcomeErrored
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSignedIn:
		return "signed_in"
	case OutcomeErrored:
		return "errored"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Timer is the subset of *time.Timer the view relies on.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// View holds the state of one mounted login page.
type View struct {
	path      string
	auth      Authenticator
	navigator navigation.Navigator
	logger    *slog.Logger
	afterFunc AfterFunc
	delay     time.Duration
	reset     bool

	mu       sync.Mutex
	loading  bool
	closed   bool
	timer    Timer
	timerGen uint64
	result   *SignInResult
	rejected string
}

type ViewOption func(v *View)

func WithLogger(logger *slog.Logger) ViewOption {
	return func(v *View) {
		v.logger = logger
	}
}

func WithRedirectDelay(d time.Duration) ViewOption {
	return func(v *View) {
		v.delay = d
	}
}

func WithAfterFunc(fn AfterFunc) ViewOption {
	return func(v *View) {
		v.afterFunc = fn
	}
}

// WithRejectionReset makes a logical rejection from the provider reset the
// loading state and surface MsgRejected instead of leaving the view busy.
func WithRejectionReset(reset bool) ViewOption {
	return func(v *View) {
		v.reset = reset
	}
}

// NewView mounts a login view served at path.
func NewView(path string, auth Authenticator, navigator navigation.Navigator, opts ...ViewOption) *View {
	v := &View{
		path:      path,
		auth:      auth,
		navigator: navigator,
		logger:    slog.Default(),
		afterFunc: realAfterFunc,
		delay:     DefaultRedirectDelay,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Path returns the route the view is mounted on, without locale.
func (v *View) Path() string {
	return v.path
}

// Loading reports whether the submit control is currently disabled.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Rejection returns the message key of the last surfaced provider rejection.
func (v *View) Rejection() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rejected
}

// Result returns the last successful sign-in result, if any.
func (v *View) Result() (*SignInResult, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result, v.result != nil
}

// Submit verifies creds with the Authenticator and drives the loading state.
func (v *View) Submit(ctx context.Context, creds Credentials) (Outcome, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0, ErrClosed
	}
	if v.loading {
		v.mu.Unlock()
		return 0, ErrBusy
	}
	v.loading = true
	v.rejected = ""
	v.mu.Unlock()

	res, err := v.auth.SignIn(ctx, ProviderCredentials, creds, SignInOptions{Redirect: false})
	if err != nil {
		v.logger.ErrorContext(ctx, "Login error", slog.Any("error", err))

		v.mu.Lock()
		v.loading = false
		v.mu.Unlock()

		return OutcomeErrored, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if res != nil && res.OK {
		v.result = res
		if v.closed {
			return OutcomeSignedIn, nil
		}

		v.timerGen++
		gen := v.timerGen
		v.timer = v.afterFunc(v.delay, func() { v.finishSignIn(gen) })

		return OutcomeSignedIn, nil
	}

	if v.reset {
		v.loading = false
		v.rejected = MsgRejected
	}

	return OutcomeRejected, nil
}

func (v *View) finishSignIn(gen uint64) {
	v.mu.Lock()
	if v.closed || gen != v.timerGen {
		v.mu.Unlock()
		return
	}
	v.timer = nil
	v.mu.Unlock()

	v.navigator.Replace(navigation.Location{Path: "/"})

	v.mu.Lock()
	v.loading = false
	v.mu.Unlock()
}

// ChangeLanguage replaces the current route with the same path under locale.
func (v *View) ChangeLanguage(locale string) {
	v.navigator.Replace(navigation.Location{Path: v.path, Locale: locale})
}

// Close tears the view down and cancels a pending post sign-in navigation.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true

	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// Closed reports whether Close has been called.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
