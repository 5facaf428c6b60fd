package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/video-overlay/internal/overlay"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const (
	EnvAdvancedThreshold = "OVERLAY_ADVANCED_THRESHOLD"
	EnvSpeakerStabilize  = "OVERLAY_SPEAKER_STABILIZE"
	EnvFocusTimeout      = "OVERLAY_FOCUS_TIMEOUT"
	EnvAdvancedPhases    = "OVERLAY_ADVANCED_PHASES"
	EnvNightPhases       = "OVERLAY_NIGHT_PHASES"
	EnvPrivatePhases     = "OVERLAY_PRIVATE_PHASES"
	EnvDefaultPhase      = "OVERLAY_DEFAULT_PHASE"
	EnvDevice            = "OVERLAY_DEVICE"
	EnvLogLevel          = "OVERLAY_LOG_LEVEL"
	EnvLogFormat         = "OVERLAY_LOG_FORMAT"
)

type Config struct {
	Overlay   overlay.Config
	LogLevel  string
	LogFormat string
}

// Load reads .env files (missing ones are skipped) and then OVERLAY_*
// variables on top of the defaults. Variables already set in the process
// environment win over .env files.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an env lookup function. Every bad value is
// reported, not just the first.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		Overlay:   overlay.DefaultConfig(),
		LogLevel:  "info",
		LogFormat: "json",
	}
	var err error

	if v, ok := lookup(EnvAdvancedThreshold); ok {
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", EnvAdvancedThreshold, perr))
		}
		cfg.Overlay.AdvancedThreshold = n
	}
	if v, ok := lookup(EnvSpeakerStabilize); ok {
		d, perr := time.ParseDuration(strings.TrimSpace(v))
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", EnvSpeakerStabilize, perr))
		}
		cfg.Overlay.SpeakerStabilizeDelay = d
	}
	if v, ok := lookup(EnvFocusTimeout); ok {
		d, perr := time.ParseDuration(strings.TrimSpace(v))
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", EnvFocusTimeout, perr))
		}
		cfg.Overlay.ManualFocusTimeout = d
	}
	if v, ok := lookup(EnvAdvancedPhases); ok {
		cfg.Overlay.AdvancedPhases = phases(v)
	}
	if v, ok := lookup(EnvNightPhases); ok {
		cfg.Overlay.NightPhases = phases(v)
	}
	if v, ok := lookup(EnvPrivatePhases); ok {
		cfg.Overlay.PrivatePhases = phases(v)
	}
	if v, ok := lookup(EnvDefaultPhase); ok {
		cfg.Overlay.DefaultPhase = overlay.Phase(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvDevice); ok {
		cfg.Overlay.Device = overlay.Device(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.LogFormat = strings.TrimSpace(v)
	}

	if err != nil {
		return Config{}, err
	}
	if verr := cfg.Overlay.Validate(); verr != nil {
		return Config{}, verr
	}
	return cfg, nil
}

// phases splits a comma separated list, dropping blanks.
func phases(v string) []overlay.Phase {
	var out []overlay.Phase
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, overlay.Phase(p))
		}
	}
	return out
}
