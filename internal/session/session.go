package session

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/video-overlay/internal/overlay"
	"github.com/DoyleJ11/video-overlay/pkg/types"
	"go.uber.org/zap"
)

var ErrSessionClosed = errors.New("session closed")

type Msg interface{ isSessionMsg() }

type ApplySnapshot struct {
	Snapshot types.RoomSnapshot
}

func (ApplySnapshot) isSessionMsg() {}

// SetJoined is pushed when the video transport connects or disconnects.
type SetJoined struct{ Joined bool }

func (SetJoined) isSessionMsg() {}

type SpeakerSignal struct{ ParticipantID string }

func (SpeakerSignal) isSessionMsg() {}

// PickMode is a user layout pick. Reply is optional.
type PickMode struct {
	Mode  overlay.Mode
	Reply chan error
}

func (PickMode) isSessionMsg() {}

type PinFocus struct {
	ParticipantID string
	Reply         chan error
}

func (PinFocus) isSessionMsg() {}

type ReleaseFocus struct{}

func (ReleaseFocus) isSessionMsg() {}

type SetMobileAdvanced struct{ Enabled bool }

func (SetMobileAdvanced) isSessionMsg() {}

type Subscribe struct {
	ClientID string
	Outbox   chan Notification // where this renderer wants notifications
}

func (Subscribe) isSessionMsg() {}

type Unsubscribe struct{ ClientID string }

func (Unsubscribe) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// timerFired carries a controller timer callback back onto the loop.
type timerFired struct{ fn func() }

func (timerFired) isSessionMsg() {}

type Kind string

const (
	KindMode    Kind = "mode"
	KindFocus   Kind = "focus"
	KindSpeaker Kind = "speaker"
)

type Notification struct {
	Kind    Kind
	Version int
	Mode    *overlay.ModeChange
	Focus   *overlay.FocusChange
	Speaker *overlay.SpeakerChange
}

type Counts struct {
	Mode    int
	Focus   int
	Speaker int
}

type View struct {
	Version          int
	NumClients       int
	Mode             overlay.Mode
	PreviousMode     overlay.Mode
	Phase            overlay.Phase
	ActivePlayers    int
	AdvancedEligible bool
	MobileAdvanced   bool
	Focus            overlay.FocusState
	Speaker          overlay.ActiveSpeaker
	Participants     []overlay.Participant
	Counts           Counts
}

type Session struct {
	id      string
	inbox   chan Msg
	ctrl    *overlay.Controller
	version int
	counts  Counts
	clients map[string]chan Notification
	done    chan struct{}
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewSession(parent context.Context, id string, cfg overlay.Config, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session", id))

	s := &Session{
		id:      id,
		inbox:   make(chan Msg, 64), // Small buffer
		clients: make(map[string]chan Notification),
		done:    make(chan struct{}),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.ctrl = overlay.NewController(cfg, loopScheduler{s}, overlay.WithLogger(log))
	s.ctrl.OnModeChange(func(m overlay.ModeChange) {
		s.counts.Mode++
		s.broadcast(Notification{Kind: KindMode, Mode: &m})
	})
	s.ctrl.OnFocusChange(func(f overlay.FocusChange) {
		s.counts.Focus++
		s.broadcast(Notification{Kind: KindFocus, Focus: &f})
	})
	s.ctrl.OnActiveSpeakerChange(func(sp overlay.SpeakerChange) {
		s.counts.Speaker++
		s.broadcast(Notification{Kind: KindSpeaker, Speaker: &sp})
	})

	go s.loop()
	return s
}

func (s *Session) ID() string { return s.id }

// Expose the inbox so tests or the session bootstrap can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Send delivers m unless the session has already shut down.
func (s *Session) Send(ctx context.Context, m Msg) error {
	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- m:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has torn the controller down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case ApplySnapshot:
				s.ctrl.ApplySnapshot(msg.Snapshot)

			case SetJoined:
				s.ctrl.SetJoined(msg.Joined)

			case SpeakerSignal:
				s.ctrl.SignalSpeaker(msg.ParticipantID)

			case PickMode:
				reply(msg.Reply, s.ctrl.RequestMode(msg.Mode))

			case PinFocus:
				reply(msg.Reply, s.ctrl.PinFocus(msg.ParticipantID))

			case ReleaseFocus:
				s.ctrl.ReleaseFocus()

			case SetMobileAdvanced:
				if msg.Enabled {
					s.ctrl.ActivateMobileAdvanced()
				} else {
					s.ctrl.DeactivateMobileAdvanced()
				}

			case Subscribe:
				// Register renderer + send the current mode immediately
				if old, ok := s.clients[msg.ClientID]; ok && old != msg.Outbox {
					close(old) // replaced: tell the old reader to stop
				}
				s.clients[msg.ClientID] = msg.Outbox
				cur := overlay.ModeChange{
					Mode:          s.ctrl.Mode(),
					PreviousMode:  s.ctrl.PreviousMode(),
					Phase:         s.ctrl.Phase(),
					ActivePlayers: s.ctrl.ActivePlayers(),
				}
				s.send(msg.ClientID, msg.Outbox, Notification{Kind: KindMode, Version: s.version, Mode: &cur})

			case Unsubscribe:
				delete(s.clients, msg.ClientID)

			case GetState:
				msg.Reply <- s.view()

			case timerFired:
				msg.fn()

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) view() View {
	return View{
		Version:          s.version,
		NumClients:       len(s.clients),
		Mode:             s.ctrl.Mode(),
		PreviousMode:     s.ctrl.PreviousMode(),
		Phase:            s.ctrl.Phase(),
		ActivePlayers:    s.ctrl.ActivePlayers(),
		AdvancedEligible: s.ctrl.AdvancedEligible(),
		MobileAdvanced:   s.ctrl.MobileAdvanced(),
		Focus:            s.ctrl.Focus(),
		Speaker:          s.ctrl.Speaker(),
		Participants:     s.ctrl.Participants(),
		Counts:           s.counts,
	}
}

func (s *Session) shutdown() {
	s.ctrl.Destroy()
	for id, ch := range s.clients {
		close(ch) // Tell renderer no more notifications
		delete(s.clients, id)
	}
	s.cancel()
	s.log.Debug("session closed")
	close(s.done)
}

func (s *Session) broadcast(n Notification) {
	s.version++
	n.Version = s.version
	for id, ch := range s.clients {
		s.send(id, ch, n)
	}
}

func (s *Session) send(id string, ch chan Notification, n Notification) {
	select {
	case ch <- n:
		//ok
	default:
		// Renderer is slow/full - drop it.
		s.log.Warn("dropping slow subscriber", zap.String("client", id))
		close(ch)
		delete(s.clients, id)
	}
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

type loopScheduler struct{ s *Session }

func (ls loopScheduler) Now() time.Time { return time.Now() }

func (ls loopScheduler) AfterFunc(d time.Duration, fn func()) overlay.Timer {
	return time.AfterFunc(d, func() {
		select {
		case ls.s.inbox <- timerFired{fn: fn}:
		case <-ls.s.ctx.Done():
		}
	})
}
