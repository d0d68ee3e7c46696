package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ory-kratos-login/login"
)

type stubAuthenticator struct {
	res *login.SignInResult
	err error
}

func (s stubAuthenticator) SignIn(context.Context, string, login.Credentials, login.SignInOptions) (*login.SignInResult, error) {
	return s.res, s.err
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		stub    stubAuthenticator
		outcome string
	}{
		{"signed in", stubAuthenticator{res: &login.SignInResult{OK: true}}, outcomeSignedIn},
		{"rejected", stubAuthenticator{res: &login.SignInResult{OK: false}}, outcomeRejected},
		{"nil result", stubAuthenticator{}, outcomeRejected},
		{"errored", stubAuthenticator{err: errors.New("boom")}, outcomeErrored},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := testutil.ToFloat64(SignIns.WithLabelValues(tc.outcome))

			res, err := Instrument(tc.stub).SignIn(context.Background(), login.ProviderCredentials, login.Credentials{}, login.SignInOptions{})

			assert.Equal(t, tc.stub.res, res)
			assert.Equal(t, tc.stub.err, err)
			assert.Equal(t, before+1, testutil.ToFloat64(SignIns.WithLabelValues(tc.outcome)))
		})
	}
}
