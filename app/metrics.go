package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ory-kratos-login/login"
)

const (
	Namespace = "kratos_login"

	LabelOutcome = "outcome"

	outcomeSignedIn = "signed_in"
	outcomeRejected = "rejected"
	outcomeErrored  = "errored"
)

var SignIns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "sign_ins_total",
		Help:      "Sign-in attempts by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var SignInDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      "sign_in_duration_seconds",
		Help:      "Duration of sign-in calls to the identity provider",
		Namespace: Namespace,
		Buckets:   prometheus.DefBuckets,
	},
	[]string{LabelOutcome},
)

// instrumentedAuthenticator records the outcome and latency of every sign-in.
type instrumentedAuthenticator struct {
	next     login.Authenticator
	counter  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func Instrument(next login.Authenticator) login.Authenticator {
	return &instrumentedAuthenticator{next: next, counter: SignIns, duration: SignInDuration}
}

func (a *instrumentedAuthenticator) SignIn(ctx context.Context, provider string, creds login.Credentials, opts login.SignInOptions) (*login.SignInResult, error) {
	start := time.Now()

	res, err := a.next.SignIn(ctx, provider, creds, opts)

	outcome := outcomeErrored
	switch {
	case err != nil:
	case res != nil && res.OK:
		outcome = outcomeSignedIn
	default:
		outcome = outcomeRejected
	}

	a.counter.WithLabelValues(outcome).Inc()
	a.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return res, err
}
