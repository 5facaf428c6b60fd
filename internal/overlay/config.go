package overlay

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/multierr"
)

type Phase string

type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
)

// Config is fixed for the lifetime of a Controller.
type Config struct {
	AdvancedThreshold     int
	SpeakerStabilizeDelay time.Duration
	ManualFocusTimeout    time.Duration

	AdvancedPhases []Phase // debate / vote
	NightPhases    []Phase
	PrivatePhases  []Phase

	// DefaultPhase replaces an empty phase in a room snapshot.
	DefaultPhase Phase
	Device       Device
}

func DefaultConfig() Config {
	return Config{
		AdvancedThreshold:     4,
		SpeakerStabilizeDelay: 500 * time.Millisecond,
		ManualFocusTimeout:    10 * time.Second,
		AdvancedPhases:        []Phase{"DAY_DEBATE", "DAY_VOTE"},
		NightPhases:           []Phase{"NIGHT"},
		PrivatePhases:         []Phase{"NIGHT_SABOTEURS", "NIGHT_PRIVATE", "ROLE_REVEAL"},
		DefaultPhase:          "LOBBY",
		Device:                DeviceDesktop,
	}
}

func (c Config) Mobile() bool { return c.Device == DeviceMobile }

func (c Config) Validate() error {
	var err error
	if c.AdvancedThreshold < 1 {
		err = multierr.Append(err, fmt.Errorf("advanced threshold must be >= 1, got %d", c.AdvancedThreshold))
	}
	if c.SpeakerStabilizeDelay < 0 {
		err = multierr.Append(err, fmt.Errorf("speaker stabilize delay must not be negative, got %v", c.SpeakerStabilizeDelay))
	}
	if c.ManualFocusTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("manual focus timeout must be positive, got %v", c.ManualFocusTimeout))
	}
	if c.Device != DeviceDesktop && c.Device != DeviceMobile {
		err = multierr.Append(err, fmt.Errorf("unknown device class %q", c.Device))
	}
	if c.DefaultPhase == "" {
		err = multierr.Append(err, errors.New("default phase must not be empty"))
	}
	return err
}

func (c Config) clone() Config {
	c.AdvancedPhases = slices.Clone(c.AdvancedPhases)
	c.NightPhases = slices.Clone(c.NightPhases)
	c.PrivatePhases = slices.Clone(c.PrivatePhases)
	return c
}
