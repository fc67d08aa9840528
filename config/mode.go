package config

import (
	"os"
	"strings"
)

// ModeKey is the environment variable selecting the environment mode.
const ModeKey = "GO_ENV_MODE"

type Mode string

const (
	DevMode  Mode = "development"
	ProMode  Mode = "production"
	TestMode Mode = "test"
)

// ParseMode maps the usual spellings onto a Mode. Unknown values are
// development.
func ParseMode(env string) Mode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// CurrentMode reads GO_ENV_MODE.
func CurrentMode() Mode {
	return ParseMode(os.Getenv(ModeKey))
}

// fileSuffixes lists the environment file suffixes loaded for m, in order.
func (m Mode) fileSuffixes() []string {
	switch m {
	case ProMode:
		return []string{"production", "prod"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"development", "dev"}
	}
}
