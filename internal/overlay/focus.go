package overlay

import (
	"time"

	"go.uber.org/zap"
)

// SignalSpeaker records a raw speaker-activity signal. The candidate is
// promoted once no other signal arrives for SpeakerStabilizeDelay.
func (c *Controller) SignalSpeaker(id string) {
	if c.destroyed || id == "" {
		return
	}
	c.speaker.CandidateID = id
	c.stopSpeakerTimer()
	gen := c.speakerGen
	c.speakerTimer = c.sched.AfterFunc(c.cfg.SpeakerStabilizeDelay, func() { c.stabilizeSpeaker(gen) })
}

func (c *Controller) stabilizeSpeaker(gen uint64) {
	if c.destroyed || gen != c.speakerGen {
		return
	}
	c.speakerTimer = nil

	id := c.speaker.CandidateID
	if id != c.speaker.StabilizedID {
		c.speaker.StabilizedID = id
		c.log.Debug("active speaker", zap.String("participant", id))
		c.observers.speaker.emit(c.log, SpeakerChange{ParticipantID: id})
	}

	// Focus may have drifted from the speaker, e.g. after they left and rejoined.
	if !c.focus.Manual {
		c.setFocus(id, false)
	}
}

// PinFocus is a manual focus pick. It expires after ManualFocusTimeout.
func (c *Controller) PinFocus(id string) error {
	if c.destroyed {
		return nil
	}
	if !c.inRoster(id) {
		return ErrUnknownParticipant
	}
	c.setFocus(id, true)
	return nil
}

// ReleaseFocus drops a manual pin and follows the active speaker again.
func (c *Controller) ReleaseFocus() {
	if c.destroyed || !c.focus.Manual {
		return
	}
	c.releaseManual()
}

func (c *Controller) ActiveSpeakerID() string {
	if c.destroyed {
		return ""
	}
	return c.speaker.StabilizedID
}

func (c *Controller) Speaker() ActiveSpeaker {
	if c.destroyed {
		return ActiveSpeaker{}
	}
	return c.speaker
}

func (c *Controller) FocusedParticipantID() string {
	if c.destroyed {
		return ""
	}
	return c.focus.ParticipantID
}

func (c *Controller) Focus() FocusState {
	if c.destroyed {
		return FocusState{}
	}
	return c.focus
}

func (c *Controller) setFocus(id string, manual bool) {
	if id == c.focus.ParticipantID && manual == c.focus.Manual {
		return
	}
	c.stopFocusTimer()

	prev := c.focus.ParticipantID
	c.focus = FocusState{ParticipantID: id, Manual: manual}
	if manual {
		gen := c.focusGen
		c.focus.ExpiresAt = c.sched.Now().Add(c.cfg.ManualFocusTimeout)
		c.focusTimer = c.sched.AfterFunc(c.cfg.ManualFocusTimeout, func() { c.expireFocus(gen) })
	}
	c.emitFocus(prev)
}

func (c *Controller) expireFocus(gen uint64) {
	if c.destroyed || gen != c.focusGen {
		return
	}
	c.focusTimer = nil
	c.log.Debug("manual focus expired", zap.String("participant", c.focus.ParticipantID))
	c.releaseManual()
}

func (c *Controller) releaseManual() {
	c.stopFocusTimer()
	current := c.focus.ParticipantID
	if target := c.speaker.StabilizedID; target != "" && target != current {
		c.setFocus(target, false)
		return
	}
	c.focus.Manual = false
	c.focus.ExpiresAt = time.Time{}
	c.emitFocus(current)
}

// reconcileFocus runs after a roster rebuild. A focused participant that
// left the room loses focus to the active speaker, if still present.
func (c *Controller) reconcileFocus() {
	if c.focus.ParticipantID == "" || c.inRoster(c.focus.ParticipantID) {
		return
	}
	target := c.speaker.StabilizedID
	if !c.inRoster(target) {
		target = ""
	}
	c.setFocus(target, false)
}

func (c *Controller) emitFocus(prev string) {
	c.log.Debug("focus",
		zap.String("participant", c.focus.ParticipantID),
		zap.String("previous", prev),
		zap.Bool("manual", c.focus.Manual))
	c.observers.focus.emit(c.log, FocusChange{
		ParticipantID:         c.focus.ParticipantID,
		PreviousParticipantID: prev,
		Manual:                c.focus.Manual,
	})
}

// Stopping bumps the generation so a callback already queued on the loop
// is ignored when it runs.
func (c *Controller) stopSpeakerTimer() {
	c.speakerGen++
	if c.speakerTimer != nil {
		c.speakerTimer.Stop()
		c.speakerTimer = nil
	}
}

func (c *Controller) stopFocusTimer() {
	c.focusGen++
	if c.focusTimer != nil {
		c.focusTimer.Stop()
		c.focusTimer = nil
	}
}
