package overlay

import (
	"slices"
	"time"

	"github.com/DoyleJ11/video-overlay/pkg/types"
	"go.uber.org/zap"
)

type Participant struct {
	ID          string
	DisplayName string
	Alive       bool
	HasVideo    bool
	HasAudio    bool
}

type FocusState struct {
	ParticipantID string
	Manual        bool
	ExpiresAt     time.Time // zero unless Manual
}

type ActiveSpeaker struct {
	CandidateID  string
	StabilizedID string
}

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// Controller decides which overlay layout is on screen. It is not safe for
// concurrent use: drive it from one goroutine and hand it a Scheduler that
// fires on that goroutine.
type Controller struct {
	cfg   Config
	rules rules
	sched Scheduler
	log   *zap.Logger

	mode       Mode
	prevMode   Mode
	phase      Phase
	players    int
	joined     bool
	inAdvanced bool
	mobileAdv  bool
	roster     []Participant

	speaker      ActiveSpeaker
	speakerTimer Timer
	speakerGen   uint64

	focus      FocusState
	focusTimer Timer
	focusGen   uint64

	observers registry
	destroyed bool
}

func NewController(cfg Config, sched Scheduler, opts ...Option) *Controller {
	cfg = cfg.clone()
	c := &Controller{
		cfg:       cfg,
		rules:     newRules(cfg),
		sched:     sched,
		log:       zap.NewNop(),
		mode:      ModeOff,
		prevMode:  ModeOff,
		phase:     cfg.DefaultPhase,
		observers: newRegistry(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With(zap.String("device", string(cfg.Device)))
	return c
}

func (c *Controller) OnModeChange(fn func(ModeChange)) (unsubscribe func()) {
	return c.observers.mode.add(fn)
}

func (c *Controller) OnFocusChange(fn func(FocusChange)) (unsubscribe func()) {
	return c.observers.focus.add(fn)
}

func (c *Controller) OnActiveSpeakerChange(fn func(SpeakerChange)) (unsubscribe func()) {
	return c.observers.speaker.add(fn)
}

// ApplySnapshot rebuilds the roster from a room snapshot and re-evaluates the mode.
func (c *Controller) ApplySnapshot(s types.RoomSnapshot) {
	if c.destroyed {
		return
	}

	phase := Phase(s.Phase)
	if phase == "" {
		phase = c.cfg.DefaultPhase
	}

	roster := make([]Participant, 0, len(s.Players))
	alive := 0
	for _, p := range s.Players {
		if p.ID == "" {
			continue
		}
		roster = append(roster, Participant{
			ID:          p.ID,
			DisplayName: p.Name,
			Alive:       p.Alive,
			HasVideo:    p.HasVideo,
			HasAudio:    p.HasAudio,
		})
		if p.Alive {
			alive++
		}
	}

	c.phase = phase
	c.players = alive
	c.roster = roster
	c.reconcileFocus()
	c.evaluate()
}

func (c *Controller) SetJoined(joined bool) {
	if c.destroyed || c.joined == joined {
		return
	}
	c.joined = joined
	c.evaluate()
}

// RequestMode is an explicit user pick. It skips the decision rules; the
// next re-evaluation may still move away from it.
func (c *Controller) RequestMode(m Mode) error {
	if c.destroyed {
		return nil
	}
	if !m.Selectable() {
		return ErrModeNotSelectable
	}
	if c.mode == ModeOff || c.mode == ModeHidden {
		return ErrModeLocked
	}
	c.setMode(m)
	return nil
}

func (c *Controller) ActivateMobileAdvanced() {
	if c.destroyed || c.mobileAdv {
		return
	}
	c.mobileAdv = true
	c.evaluate()
}

// DeactivateMobileAdvanced clears the latch and drops back to INLINE if an
// advanced layout is showing.
func (c *Controller) DeactivateMobileAdvanced() {
	if c.destroyed || !c.mobileAdv {
		return
	}
	c.mobileAdv = false
	if c.cfg.Mobile() {
		// Back behind the gate: the next activation is a fresh entry.
		c.inAdvanced = false
	}
	if c.mode.IsAdvanced() {
		c.setMode(ModeInline)
	}
}

// Destroy cancels pending timers and drops every observer. Everything after
// it is a no-op.
func (c *Controller) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.stopSpeakerTimer()
	c.stopFocusTimer()
	c.observers.close()
	c.roster = nil
	c.log.Debug("controller destroyed", zap.String("last_mode", string(c.mode)))
}

func (c *Controller) Destroyed() bool { return c.destroyed }

func (c *Controller) Mode() Mode {
	if c.destroyed {
		return ModeOff
	}
	return c.mode
}

func (c *Controller) PreviousMode() Mode {
	if c.destroyed {
		return ModeOff
	}
	return c.prevMode
}

func (c *Controller) IsAdvanced() bool {
	return !c.destroyed && c.mode.IsAdvanced()
}

func (c *Controller) Phase() Phase {
	if c.destroyed {
		return c.cfg.DefaultPhase
	}
	return c.phase
}

func (c *Controller) ActivePlayers() int {
	if c.destroyed {
		return 0
	}
	return c.players
}

func (c *Controller) MobileAdvanced() bool {
	return !c.destroyed && c.mobileAdv
}

// AdvancedEligible reports whether the live phase and player count allow an
// advanced layout, ignoring the mobile gate.
func (c *Controller) AdvancedEligible() bool {
	if c.destroyed {
		return false
	}
	return c.rules.eligible(c.joined, c.phase, c.players)
}

func (c *Controller) Participants() []Participant {
	if c.destroyed {
		return nil
	}
	return slices.Clone(c.roster)
}

func (c *Controller) evaluate() {
	d := c.rules.decide(Inputs{
		Joined:         c.joined,
		Phase:          c.phase,
		ActivePlayers:  c.players,
		Mobile:         c.cfg.Mobile(),
		MobileOverride: c.mobileAdv,
		Current:        c.mode,
		InAdvanced:     c.inAdvanced,
	})
	c.inAdvanced = d.InAdvanced
	c.setMode(d.Mode)
}

func (c *Controller) setMode(next Mode) {
	if next == c.mode {
		return
	}
	c.prevMode = c.mode
	c.mode = next
	c.log.Info("mode transition",
		zap.String("from", string(c.prevMode)),
		zap.String("to", string(next)),
		zap.String("phase", string(c.phase)),
		zap.Int("players", c.players))

	c.observers.mode.emit(c.log, ModeChange{
		Mode:          next,
		PreviousMode:  c.prevMode,
		Phase:         c.phase,
		ActivePlayers: c.players,
	})
}

func (c *Controller) inRoster(id string) bool {
	return slices.ContainsFunc(c.roster, func(p Participant) bool { return p.ID == id })
}
