package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	ory "github.com/ory/client-go"

	"ory-kratos-login/delivery/model"
	"ory-kratos-login/login"
)

// ErrorCredentialsSignin is reported in SignInResult.Error when Kratos refuses
// the submitted credentials.
const ErrorCredentialsSignin = "CredentialsSignin"

var (
	ErrUnsupportedProvider = errors.New("unsupported sign-in provider")
	ErrNoSessionToken      = errors.New("kratos did not return a session token")
	ErrInactiveSession     = errors.New("kratos session is not active")
)

// KratosAuthenticator signs visitors in through the native login flow of the
// Kratos public API.
type KratosAuthenticator struct {
	client   *ory.APIClient
	tokenize string
	verifier Verifier
	logger   *slog.Logger
}

type KratosOption func(*KratosAuthenticator)

// WithTokenizer exchanges the session token for a JWT minted with template and
// checks it with verifier before the sign-in is reported as successful.
func WithTokenizer(template string, verifier Verifier) KratosOption {
	return func(k *KratosAuthenticator) {
		k.tokenize = template
		k.verifier = verifier
	}
}

func WithKratosLogger(logger *slog.Logger) KratosOption {
	return func(k *KratosAuthenticator) {
		k.logger = logger
	}
}

// configureOryClient is a helper to set up the connection to Ory Kratos.
func configureOryClient(publicURL string, httpClient *http.Client) *ory.APIClient {
	conf := ory.NewConfiguration()
	conf.Servers = ory.ServerConfigurations{
		{
			URL: publicURL, // Kratos Public API
		},
	}
	if httpClient != nil {
		conf.HTTPClient = httpClient
	}
	return ory.NewAPIClient(conf)
}

func NewKratosAuthenticator(publicURL string, httpClient *http.Client, opts ...KratosOption) *KratosAuthenticator {
	k := &KratosAuthenticator{
		client: configureOryClient(publicURL, httpClient),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// SignIn implements login.Authenticator. Refused credentials are reported as
// a result with OK unset and a nil error, every other failure as an error.
func (k *KratosAuthenticator) SignIn(ctx context.Context, provider string, creds login.Credentials, _ login.SignInOptions) (*login.SignInResult, error) {
	if provider != login.ProviderCredentials {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}

	flow, _, err := k.client.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("creating login flow: %w", err)
	}

	updateBody := ory.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: creds.Email,
		Password:   creds.Password,
	}

	loginFlowBody := ory.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&updateBody)

	result, resp, err := k.client.FrontendAPI.UpdateLoginFlow(ctx).
		Flow(flow.GetId()).
		UpdateLoginFlowBody(loginFlowBody).
		Execute()
	if err != nil {
		if isRefusedLogin(err) {
			status := http.StatusUnauthorized
			if resp != nil {
				status = resp.StatusCode
			}
			k.logger.DebugContext(ctx, "kratos refused credentials", slog.Int("status", status))
			return &login.SignInResult{OK: false, Status: status, Error: ErrorCredentialsSignin}, nil
		}
		return nil, fmt.Errorf("submitting login flow: %w", err)
	}

	token := result.GetSessionToken()
	if token == "" {
		return nil, ErrNoSessionToken
	}

	identity := result.Session.GetIdentity()

	if k.tokenize != "" {
		if err := k.exchange(ctx, token); err != nil {
			return nil, err
		}
	}

	return &login.SignInResult{
		OK:           true,
		Status:       http.StatusOK,
		SessionToken: token,
		IdentityID:   identity.GetId(),
	}, nil
}

// exchange asks Kratos to tokenize the session and verifies the minted JWT.
func (k *KratosAuthenticator) exchange(ctx context.Context, token string) error {
	tokenizedSession, _, err := k.client.FrontendAPI.ToSession(ctx).
		XSessionToken(token).
		TokenizeAs(k.tokenize).
		Execute()
	if err != nil {
		return fmt.Errorf("tokenizing session: %w", err)
	}

	if !tokenizedSession.HasTokenized() {
		return errors.New("kratos did not return a tokenized session")
	}

	if k.verifier == nil {
		return nil
	}

	if _, err := k.verifier.Verify(ctx, tokenizedSession.GetTokenized()); err != nil {
		return fmt.Errorf("verifying tokenized session: %w", err)
	}

	return nil
}

// isRefusedLogin reports whether Kratos answered the submission with the
// login flow again, which it does when the credentials are wrong.
func isRefusedLogin(err error) bool {
	var genericError *ory.GenericOpenAPIError
	if !errors.As(err, &genericError) {
		return false
	}

	switch genericError.Model().(type) {
	case ory.LoginFlow, *ory.LoginFlow:
		return true
	}
	return false
}

// WhoAmI resolves the identity behind a session token.
func (k *KratosAuthenticator) WhoAmI(ctx context.Context, token string) (*model.Identity, error) {
	session, _, err := k.client.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}

	if !session.GetActive() {
		return nil, ErrInactiveSession
	}

	identity := session.GetIdentity()

	res := &model.Identity{ID: identity.GetId()}
	if traits, ok := identity.GetTraits().(map[string]interface{}); ok {
		res.Email, _ = traits["email"].(string)
	}

	return res, nil
}

// Logout revokes the session token.
func (k *KratosAuthenticator) Logout(ctx context.Context, token string) error {
	body := ory.NewPerformNativeLogoutBody(token)

	if _, err := k.client.FrontendAPI.PerformNativeLogout(ctx).PerformNativeLogoutBody(*body).Execute(); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}
