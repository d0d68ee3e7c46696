package login

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryMountReplacesPreviousView(t *testing.T) {
	auth := &fakeAuthenticator{res: &SignInResult{OK: true}}
	clock := &fakeClock{}
	r := NewRegistry(auth, 10, time.Minute, WithAfterFunc(clock.AfterFunc))

	first := r.Mount("sid", "/login")
	_, err := first.View.Submit(context.Background(), creds)
	require.NoError(t, err)

	second := r.Mount("sid", "/login")
	assert.True(t, first.View.Closed())
	assert.False(t, second.View.Closed())
	assert.True(t, clock.timers[0].stopped)

	clock.Fire()
	_, ok := first.Navigation.Take()
	assert.False(t, ok)

	got, ok := r.Lookup("sid")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryEvictionClosesView(t *testing.T) {
	r := NewRegistry(&fakeAuthenticator{}, 1, time.Minute)

	a := r.Mount("a", "/login")
	b := r.Mount("b", "/login")

	assert.True(t, a.View.Closed())
	assert.False(t, b.View.Closed())

	_, ok := r.Lookup("a")
	assert.False(t, ok)

	r.Unmount("b")
	assert.True(t, b.View.Closed())
	assert.Equal(t, 0, r.Len())
}
