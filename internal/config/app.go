package config

import (
	"sync"
	"time"
)

type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"assessment-proctor"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Port    string `env:"APP_PORT" envDefault:":8080"`
	BaseURL string `env:"APP_URL" envDefault:"http://localhost:5173"`
	// CompanyName signs the WhatsApp messages sent to candidates.
	CompanyName string `env:"COMPANY_NAME" envDefault:"Mobeng"`
	// RecruiterPasscode guards the recruiter dashboard and its API.
	RecruiterPasscode string `env:"RECRUITER_PASSCODE"`

	SessionInactivityTTL time.Duration `env:"SESSION_INACTIVITY_TTL" envDefault:"30m"`
	JanitorInterval      time.Duration `env:"SESSION_JANITOR_INTERVAL" envDefault:"1m"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"120"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	LogJSON         bool          `env:"LOG_JSON" envDefault:"false"`
	LogDebug        bool          `env:"LOG_DEBUG" envDefault:"false"`
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = &AppConfig{}
		mustParse(appConfig)
	})
	return appConfig
}
