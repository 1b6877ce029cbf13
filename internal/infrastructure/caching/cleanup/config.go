package cleanup

import (
	"time"

	"github.com/AtRiskMedia/storefront-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval time.Duration
}

// NewConfig reads the interval from the already-initialized /pkg/config variables.
func NewConfig() *Config {
	return &Config{CleanupInterval: config.CleanupInterval}
}
