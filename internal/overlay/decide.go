package overlay

// Inputs is everything the layout decision looks at.
type Inputs struct {
	Joined         bool
	Phase          Phase
	ActivePlayers  int
	Mobile         bool
	MobileOverride bool

	// Current is the mode on screen right now.
	Current Mode
	// InAdvanced is true when the previous decision already entered the
	// advanced category; a SPLIT default only happens on entry.
	InAdvanced bool
}

type Decision struct {
	Mode       Mode
	InAdvanced bool
}

type phaseSet map[Phase]struct{}

func newPhaseSet(phases []Phase) phaseSet {
	s := make(phaseSet, len(phases))
	for _, p := range phases {
		s[p] = struct{}{}
	}
	return s
}

func (s phaseSet) has(p Phase) bool {
	_, ok := s[p]
	return ok
}

type rules struct {
	threshold int
	advanced  phaseSet
	night     phaseSet
	private   phaseSet
}

func newRules(cfg Config) rules {
	return rules{
		threshold: cfg.AdvancedThreshold,
		advanced:  newPhaseSet(cfg.AdvancedPhases),
		night:     newPhaseSet(cfg.NightPhases),
		private:   newPhaseSet(cfg.PrivatePhases),
	}
}

// Decide applies the layout rules for cfg to in. First match wins.
func Decide(cfg Config, in Inputs) Decision {
	return newRules(cfg).decide(in)
}

func (r rules) decide(in Inputs) Decision {
	switch {
	case !in.Joined:
		return Decision{Mode: ModeOff}

	case r.private.has(in.Phase):
		return Decision{Mode: ModeHidden}

	case r.night.has(in.Phase):
		if in.Mobile {
			return Decision{Mode: ModeInline}
		}
		return Decision{Mode: ModePIP}

	case r.advancedPhase(in.Phase, in.ActivePlayers):
		if in.Mobile && !in.MobileOverride {
			return Decision{Mode: ModeInline}
		}
		// Already inside: whatever the user picked stays.
		if in.Current.IsAdvanced() || (in.InAdvanced && in.Current.Selectable()) {
			return Decision{Mode: in.Current, InAdvanced: true}
		}
		return Decision{Mode: ModeSplit, InAdvanced: true}

	default:
		return Decision{Mode: ModeInline}
	}
}

// eligible is rule 4's precondition without the mobile gate.
func (r rules) eligible(joined bool, phase Phase, players int) bool {
	if !joined || r.private.has(phase) || r.night.has(phase) {
		return false
	}
	return r.advancedPhase(phase, players)
}

func (r rules) advancedPhase(phase Phase, players int) bool {
	return r.advanced.has(phase) && players >= r.threshold
}
