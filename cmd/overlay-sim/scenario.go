package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/DoyleJ11/video-overlay/internal/overlay"
	"github.com/DoyleJ11/video-overlay/internal/session"
	"github.com/DoyleJ11/video-overlay/pkg/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrExpectation = errors.New("expectation failed")

// Scenario is a scripted run of room updates and user actions.
//
//	name: vote-then-night
//	device: desktop
//	steps:
//	  - join: true
//	  - snapshot: {phase: DAY_VOTE, players: [{id: a, alive: true}]}
//	  - speaker: a
//	  - wait: 600ms
//	  - expect_mode: SPLIT
type Scenario struct {
	Name   string `yaml:"name"`
	Device string `yaml:"device,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Step holds exactly one action; the first non-empty field wins.
type Step struct {
	Join           *bool               `yaml:"join,omitempty"`
	Snapshot       *types.RoomSnapshot `yaml:"snapshot,omitempty"`
	Speaker        string              `yaml:"speaker,omitempty"`
	Mode           string              `yaml:"mode,omitempty"`
	Focus          string              `yaml:"focus,omitempty"`
	ReleaseFocus   bool                `yaml:"release_focus,omitempty"`
	MobileAdvanced *bool               `yaml:"mobile_advanced,omitempty"`
	Wait           time.Duration       `yaml:"wait,omitempty"`
	ExpectMode     string              `yaml:"expect_mode,omitempty"`
}

func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Play feeds every step into s. Rejected user actions are logged, a failed
// expect_mode stops the run.
func Play(ctx context.Context, s *session.Session, sc Scenario, log *zap.Logger) error {
	for i, st := range sc.Steps {
		if err := play(ctx, s, st, log); err != nil {
			return fmt.Errorf("%s step %d: %w", sc.Name, i+1, err)
		}
	}
	return nil
}

func play(ctx context.Context, s *session.Session, st Step, log *zap.Logger) error {
	switch {
	case st.Join != nil:
		return s.Send(ctx, session.SetJoined{Joined: *st.Join})

	case st.Snapshot != nil:
		return s.Send(ctx, session.ApplySnapshot{Snapshot: *st.Snapshot})

	case st.Speaker != "":
		return s.Send(ctx, session.SpeakerSignal{ParticipantID: st.Speaker})

	case st.Mode != "":
		m, err := overlay.ParseMode(st.Mode)
		if err != nil {
			return fmt.Errorf("%q: %w", st.Mode, err)
		}
		reply := make(chan error, 1)
		if err := s.Send(ctx, session.PickMode{Mode: m, Reply: reply}); err != nil {
			return err
		}
		return logRejected(ctx, reply, log, zap.String("mode", st.Mode))

	case st.Focus != "":
		reply := make(chan error, 1)
		if err := s.Send(ctx, session.PinFocus{ParticipantID: st.Focus, Reply: reply}); err != nil {
			return err
		}
		return logRejected(ctx, reply, log, zap.String("focus", st.Focus))

	case st.ReleaseFocus:
		return s.Send(ctx, session.ReleaseFocus{})

	case st.MobileAdvanced != nil:
		return s.Send(ctx, session.SetMobileAdvanced{Enabled: *st.MobileAdvanced})

	case st.Wait > 0:
		select {
		case <-time.After(st.Wait):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	case st.ExpectMode != "":
		want, err := overlay.ParseMode(st.ExpectMode)
		if err != nil {
			return fmt.Errorf("%q: %w", st.ExpectMode, err)
		}
		reply := make(chan session.View, 1)
		if err := s.Send(ctx, session.GetState{Reply: reply}); err != nil {
			return err
		}
		select {
		case v := <-reply:
			if v.Mode != want {
				return fmt.Errorf("%w: want mode %s, got %s", ErrExpectation, want, v.Mode)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		return errors.New("empty step")
	}
}

func logRejected(ctx context.Context, reply <-chan error, log *zap.Logger, field zap.Field) error {
	select {
	case err := <-reply:
		if err != nil {
			log.Warn("action rejected", field, zap.Error(err))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logNotifications drains out until the session closes it.
func logNotifications(out <-chan session.Notification, log *zap.Logger) {
	for n := range out {
		switch n.Kind {
		case session.KindMode:
			log.Info("mode",
				zap.Int("version", n.Version),
				zap.String("mode", string(n.Mode.Mode)),
				zap.String("previous", string(n.Mode.PreviousMode)),
				zap.String("phase", string(n.Mode.Phase)),
				zap.Int("players", n.Mode.ActivePlayers))
		case session.KindFocus:
			log.Info("focus",
				zap.Int("version", n.Version),
				zap.String("participant", n.Focus.ParticipantID),
				zap.String("previous", n.Focus.PreviousParticipantID),
				zap.Bool("manual", n.Focus.Manual))
		case session.KindSpeaker:
			log.Info("speaker",
				zap.Int("version", n.Version),
				zap.String("participant", n.Speaker.ParticipantID))
		}
	}
}
