package login

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ory-kratos-login/navigation"
)

type fakeAuthenticator struct {
	mu    sync.Mutex
	calls []Credentials
	opts  []SignInOptions
	res   *SignInResult
	err   error
}

func (f *fakeAuthenticator) SignIn(_ context.Context, provider string, creds Credentials, opts SignInOptions) (*SignInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if provider != ProviderCredentials {
		return nil, errors.New("unexpected provider " + provider)
	}

	f.calls = append(f.calls, creds)
	f.opts = append(f.opts, opts)
	return f.res, f.err
}

func (f *fakeAuthenticator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Fire runs every scheduled callback, including stopped ones, to mimic a
// timer whose callback raced with Stop.
func (c *fakeClock) Fire() {
	for _, t := range c.timers {
		t.fn()
	}
}

type recordingNavigator struct {
	locations []navigation.Location
}

func (n *recordingNavigator) Replace(loc navigation.Location) {
	n.locations = append(n.locations, loc)
}

func newTestView(auth Authenticator, nav navigation.Navigator, clock *fakeClock, opts ...ViewOption) *View {
	opts = append([]ViewOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAfterFunc(clock.AfterFunc),
	}, opts...)
	return NewView("/login", auth, nav, opts...)
}

var creds = Credentials{Email: "jane@example.com", Password: "secret"}

func TestSubmitSuccessNavigatesAfterDelay(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: true, Status: 200}}
	nav := &recordingNavigator{}
	clock := &fakeClock{}
	v := newTestView(auth, nav, clock)

	outcome, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSignedIn, outcome)

	assert.True(t, v.Loading())
	assert.Empty(t, nav.locations)
	require.Len(t, clock.timers, 1)
	assert.Equal(t, 1500*time.Millisecond, clock.timers[0].delay)

	require.Len(t, auth.opts, 1)
	assert.False(t, auth.opts[0].Redirect)
	assert.Equal(t, creds, auth.calls[0])

	clock.Fire()

	assert.False(t, v.Loading())
	assert.Equal(t, []navigation.Location{{Path: "/"}}, nav.locations)
}

func TestSubmitErrorResetsImmediately(t *testing.T) {
	auth := &fakeAuthenticator{err: errors.New("connection refused")}
	nav := &recordingNavigator{}
	clock := &fakeClock{}
	v := newTestView(auth, nav, clock)

	outcome, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeErrored, outcome)

	assert.False(t, v.Loading())
	assert.Empty(t, clock.timers)
	assert.Empty(t, nav.locations)
	assert.Empty(t, v.Rejection())
}

func TestSubmitRejectionKeepsLoading(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: false, Status: 401, Error: "CredentialsSignin"}}
	nav := &recordingNavigator{}
	clock := &fakeClock{}
	v := newTestView(auth, nav, clock)

	outcome, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)

	assert.True(t, v.Loading())
	assert.Empty(t, clock.timers)
	assert.Empty(t, nav.locations)

	_, err = v.Submit(context.Background(), creds)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, auth.Calls())
}

func TestSubmitNilResultIsRejection(t *testing.T) {
	auth := &fakeAuthenticator{}
	v := newTestView(auth, &recordingNavigator{}, &fakeClock{})

	outcome, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.True(t, v.Loading())
}

func TestSubmitRejectionWithReset(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: false, Status: 401}}
	v := newTestView(auth, &recordingNavigator{}, &fakeClock{}, WithRejectionReset(true))

	outcome, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.False(t, v.Loading())
	assert.Equal(t, MsgRejected, v.Rejection())

	auth.res = &SignInResult{OK: true}
	_, err = v.Submit(context.Background(), creds)
	require.NoError(t, err)
	assert.Empty(t, v.Rejection())
}

func TestSubmitWhileLoadingIsRefused(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: true}}
	clock := &fakeClock{}
	v := newTestView(auth, &recordingNavigator{}, clock)

	_, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)

	_, err = v.Submit(context.Background(), creds)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, auth.Calls())
	assert.Len(t, clock.timers, 1)
}

func TestCloseCancelsPendingNavigation(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: true}}
	nav := &recordingNavigator{}
	clock := &fakeClock{}
	v := newTestView(auth, nav, clock)

	_, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)

	v.Close()
	v.Close()
	require.Len(t, clock.timers, 1)
	assert.True(t, clock.timers[0].stopped)

	clock.Fire()
	assert.Empty(t, nav.locations)
	assert.True(t, v.Loading())

	_, err = v.Submit(context.Background(), creds)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestChangeLanguage(t *testing.T) {
	nav := &recordingNavigator{}
	v := newTestView(&fakeAuthenticator{}, nav, &fakeClock{})

	v.ChangeLanguage("vi")

	assert.Equal(t, []navigation.Location{{Path: "/login", Locale: "vi"}}, nav.locations)
}

func TestDefaultRedirectDelayWithRealTimer(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: true}}
	mailbox := navigation.NewMailbox()
	v := NewView("/login", auth, mailbox,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRedirectDelay(10*time.Millisecond),
	)

	_, err := v.Submit(context.Background(), creds)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return !v.Loading() }, time.Second, 5*time.Millisecond)

	loc, ok := mailbox.Take()
	require.True(t, ok)
	assert.Equal(t, "/", loc.Path)
	assert.Equal(t, 1, mailbox.Count())
}
