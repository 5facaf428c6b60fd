package overlay

import (
	"fmt"
	"sort"
	"time"

	"github.com/DoyleJ11/video-overlay/pkg/types"
)

// fakeScheduler fires timers only when the test advances its clock.
type fakeScheduler struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	seq     int
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Unix(1_700_000_000, 0)}
}

func (s *fakeScheduler) Now() time.Time { return s.now }

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.seq++
	t := &fakeTimer{s: s, seq: s.seq, at: s.now.Add(d), fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires due timers in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		due := s.due(target)
		if due == nil {
			break
		}
		s.now = due.at
		due.fired = true
		due.fn()
	}
	s.now = target
}

func (s *fakeScheduler) due(target time.Time) *fakeTimer {
	var pending []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(target) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at.Equal(pending[j].at) {
			return pending[i].seq < pending[j].seq
		}
		return pending[i].at.Before(pending[j].at)
	})
	return pending[0]
}

// Pending counts timers that are armed and not yet fired.
func (s *fakeScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recorder struct {
	modes    []ModeChange
	focus    []FocusChange
	speakers []SpeakerChange
}

func record(c *Controller) *recorder {
	r := &recorder{}
	c.OnModeChange(func(m ModeChange) { r.modes = append(r.modes, m) })
	c.OnFocusChange(func(f FocusChange) { r.focus = append(r.focus, f) })
	c.OnActiveSpeakerChange(func(s SpeakerChange) { r.speakers = append(r.speakers, s) })
	return r
}

func (r *recorder) lastFocus() FocusChange {
	if len(r.focus) == 0 {
		return FocusChange{}
	}
	return r.focus[len(r.focus)-1]
}

func snapshot(phase string, alive int) types.RoomSnapshot {
	s := types.RoomSnapshot{Phase: phase}
	for i := 1; i <= alive; i++ {
		s.Players = append(s.Players, types.Player{
			ID:       fmt.Sprintf("p%d", i),
			Name:     fmt.Sprintf("Player %d", i),
			Alive:    true,
			HasVideo: true,
			HasAudio: true,
		})
	}
	return s
}

func testConfig(device Device) Config {
	cfg := DefaultConfig()
	cfg.Device = device
	return cfg
}

func newTestController(device Device) (*Controller, *fakeScheduler, *recorder) {
	sched := newFakeScheduler()
	c := NewController(testConfig(device), sched)
	return c, sched, record(c)
}
