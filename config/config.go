package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config struct {
	Logger  Logger  `envPrefix:"LOGGER_"`
	HTTP    HTTP    `envPrefix:"HTTP_"`
	Kratos  Kratos  `envPrefix:"KRATOS_"`
	Session Session `envPrefix:"SESSION_"`
	Login   Login   `envPrefix:"LOGIN_"`
	Locale  Locale  `envPrefix:"LOCALE_"`
	Sentry  Sentry  `envPrefix:"SENTRY_"`
}

type Logger struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

type HTTP struct {
	Address         string        `env:"ADDRESS,expand" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// Login submissions allowed per second and per client IP.
	LoginRate  float64 `env:"LOGIN_RATE" envDefault:"1"`
	LoginBurst int     `env:"LOGIN_BURST" envDefault:"5"`
}

type Kratos struct {
	PublicURL string `env:"PUBLIC_URL,expand" envDefault:"http://127.0.0.1:4433"`
	// When set, sessions are exchanged for a JWT using this tokenizer template
	// and verified against JWKSURL.
	TokenizeTemplate string        `env:"TOKENIZE_TEMPLATE"`
	JWKSURL          string        `env:"JWKS_URL,expand"`
	JWKSRefresh      time.Duration `env:"JWKS_REFRESH" envDefault:"5m"`
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type Session struct {
	Name       string `env:"NAME" envDefault:"kratos_login"`
	AuthKey    string `env:"AUTH_KEY,required,notEmpty"`
	EncryptKey string `env:"ENCRYPT_KEY"`
	MaxAge     int    `env:"MAX_AGE" envDefault:"86400"`
	Secure     bool   `env:"SECURE" envDefault:"false"`
}

type Login struct {
	RedirectDelay time.Duration `env:"REDIRECT_DELAY" envDefault:"1500ms"`
	// ResetOnReject resets the loading state and shows an error when Kratos
	// rejects the credentials.
	ResetOnReject bool          `env:"RESET_ON_REJECT" envDefault:"false"`
	MaxViews      int           `env:"MAX_VIEWS" envDefault:"10000"`
	ViewTTL       time.Duration `env:"VIEW_TTL" envDefault:"15m"`
}

type Locale struct {
	Default   string   `env:"DEFAULT" envDefault:"en"`
	Supported []string `env:"SUPPORTED" envDefault:"en,vi" envSeparator:","`
}

type Sentry struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

func Parse() (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: "KRATOS_LOGIN_",
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &conf, nil
}
