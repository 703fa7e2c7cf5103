package portal

import (
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries the client's environment-driven settings.
type Config struct {
	// BaseURL is the portal backend root, e.g. http://localhost:9090.
	BaseURL string `env:"PORTAL_API_URL" env-default:"http://localhost:9090" env-description:"portal backend base URL"`
	// RequestTimeout bounds every backend call through the default HTTP
	// client. Individual operations define no additional timeouts.
	RequestTimeout time.Duration `env:"PORTAL_HTTP_TIMEOUT" env-default:"30s" env-description:"HTTP request timeout"`
	// StatePath locates the client-local state database.
	StatePath string `env:"PORTAL_STATE_PATH" env-default:"portal_state.db" env-description:"path to the local session state database"`
}

// LoadConfig reads configuration from the environment, applying defaults for
// anything unset.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to read environment configuration")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}
