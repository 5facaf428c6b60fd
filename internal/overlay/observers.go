package overlay

import (
	"slices"

	"go.uber.org/zap"
)

type ModeChange struct {
	Mode          Mode
	PreviousMode  Mode
	Phase         Phase
	ActivePlayers int
}

type FocusChange struct {
	ParticipantID         string
	PreviousParticipantID string
	Manual                bool
}

type SpeakerChange struct {
	ParticipantID string
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

type subscribers[T any] struct {
	kind   string
	nextID int
	subs   []subscriber[T]
	closed bool
}

func (s *subscribers[T]) add(fn func(T)) func() {
	if s.closed || fn == nil {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber[T]) bool { return sub.id == id })
	}
}

func (s *subscribers[T]) emit(log *zap.Logger, v T) {
	for _, sub := range slices.Clone(s.subs) {
		if s.closed {
			return
		}
		s.deliver(log, sub, v)
	}
}

func (s *subscribers[T]) deliver(log *zap.Logger, sub subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("observer panicked",
				zap.String("kind", s.kind),
				zap.Int("observer", sub.id),
				zap.Any("panic", r))
		}
	}()
	sub.fn(v)
}

func (s *subscribers[T]) close() {
	s.closed = true
	s.subs = nil
}

type registry struct {
	mode    subscribers[ModeChange]
	focus   subscribers[FocusChange]
	speaker subscribers[SpeakerChange]
}

func newRegistry() registry {
	return registry{
		mode:    subscribers[ModeChange]{kind: "mode"},
		focus:   subscribers[FocusChange]{kind: "focus"},
		speaker: subscribers[SpeakerChange]{kind: "speaker"},
	}
}

func (r *registry) close() {
	r.mode.close()
	r.focus.close()
	r.speaker.close()
}
