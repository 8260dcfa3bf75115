package config

import (
	"context"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

type AppConfig struct {
	HTTPAddr string `env:"PHARMALIST_HTTP_ADDR" envDefault:":8080"`

	// Bounded timeouts for the two external collaborators.
	CompleteTimeout time.Duration `env:"PHARMALIST_COMPLETE_TIMEOUT" envDefault:"30s"`
	QueryTimeout    time.Duration `env:"PHARMALIST_QUERY_TIMEOUT" envDefault:"15s"`

	// HTTP rate limiting
	RateLimitPerSec float64 `env:"PHARMALIST_RATE_LIMIT" envDefault:"10"`
	RateLimitBurst  int     `env:"PHARMALIST_RATE_BURST" envDefault:"20"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func IsDebug() bool {
	return os.Getenv("PHARMALIST_DEBUG") == "true"
}
