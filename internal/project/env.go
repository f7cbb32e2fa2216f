package project

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/piwi3910/PlateNest/internal/model"
)

// EnvOverrides holds settings read from PLATENEST_* environment variables.
// Unset variables leave the corresponding field at its zero value.
type EnvOverrides struct {
	Margin    float64 `envconfig:"MARGIN"`
	Scale     float64 `envconfig:"SCALE"`
	Step      int     `envconfig:"STEP"`
	Profile   string  `envconfig:"PROFILE"`
	Algorithm string  `envconfig:"ALGORITHM"`
	LogLevel  string  `envconfig:"LOG_LEVEL"`
}

// LoadEnv reads the PLATENEST_* environment variables.
func LoadEnv() (EnvOverrides, error) {
	var env EnvOverrides
	if err := envconfig.Process("platenest", &env); err != nil {
		return EnvOverrides{}, err
	}
	return env, nil
}

// Apply copies the set overrides into the config. Environment values win over
// the config file.
func (e EnvOverrides) Apply(cfg *model.AppConfig) {
	if e.Margin > 0 {
		cfg.DefaultMargin = e.Margin
	}
	if e.Scale > 0 {
		cfg.DefaultScale = e.Scale
	}
	if e.Step > 0 {
		cfg.DefaultStep = e.Step
	}
	if e.Profile != "" {
		cfg.DefaultPlateProfile = e.Profile
	}
	if e.Algorithm != "" {
		cfg.DefaultAlgorithm = model.Algorithm(e.Algorithm)
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
}

// ParseLogLevel maps a config log level name to a slog level. Unknown names
// fall back to info.
func ParseLogLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
