package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds the process-wide application configuration. It is resolved
// from the environment once at startup and passed explicitly to the handlers.
type Settings struct {
	// Project allow-list for the webhook filter.
	Project         string `envconfig:"SENTRY_PROJECT"`
	Organization    string `envconfig:"SENTRY_ORGANIZATION"`
	FilterByProject bool   `envconfig:"SENTRY_FILTER_BY_PROJECT" default:"false"`

	// DSN of the monitoring platform. Only its presence is ever reported,
	// the value must not leave the process.
	SentryDSN string `envconfig:"SENTRY_DSN"`

	// Optional GlitchTip API access used to enrich webhook events with
	// stacktrace details.
	GlitchTipBaseURL  string `envconfig:"GLITCHTIP_BASE_URL"`
	GlitchTipAPIToken string `envconfig:"GLITCHTIP_API_TOKEN"`
}

func GetSettings() Settings {
	var settings Settings
	if err := envconfig.Process("", &settings); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return settings
}
