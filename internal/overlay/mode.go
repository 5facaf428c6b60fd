package overlay

import (
	"errors"
	"strings"
)

var ErrUnknownMode = errors.New("unknown mode")
var ErrModeNotSelectable = errors.New("mode cannot be picked by the user")
var ErrModeLocked = errors.New("overlay is off or hidden")
var ErrUnknownParticipant = errors.New("unknown participant")

type Mode string

const (
	ModeOff           Mode = "OFF"
	ModeInline        Mode = "INLINE"
	ModeSplit         Mode = "SPLIT"
	ModeAdvancedFocus Mode = "ADVANCED_FOCUS"
	ModePIP           Mode = "PIP"
	ModeHidden        Mode = "HIDDEN"
)

var allModes = []Mode{ModeOff, ModeInline, ModeSplit, ModeAdvancedFocus, ModePIP, ModeHidden}

// IsAdvanced reports whether m is one of the debate layouts.
func (m Mode) IsAdvanced() bool {
	return m == ModeSplit || m == ModeAdvancedFocus
}

// Selectable reports whether a user may switch to m directly.
func (m Mode) Selectable() bool {
	return m == ModeInline || m.IsAdvanced()
}

func (m Mode) String() string { return string(m) }

func ParseMode(s string) (Mode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, m := range allModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrUnknownMode
}
