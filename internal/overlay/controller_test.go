package overlay

import (
	"testing"
	"time"

	"github.com/DoyleJ11/video-overlay/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestController_VoteThenPrivateNight(t *testing.T) {
	c, _, rec := newTestController(DeviceDesktop)

	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	require.Equal(t, ModeSplit, c.Mode())

	c.ApplySnapshot(snapshot("NIGHT_SABOTEURS", 5))
	require.Equal(t, ModeHidden, c.Mode())
	require.Equal(t, ModeSplit, c.PreviousMode())

	require.Len(t, rec.modes, 3) // OFF->INLINE on join, ->SPLIT, ->HIDDEN
	assert.Equal(t, ModeChange{Mode: ModeHidden, PreviousMode: ModeSplit, Phase: "NIGHT_SABOTEURS", ActivePlayers: 5}, rec.modes[2])
}

func TestController_RequestModeTwice_OneNotification(t *testing.T) {
	c, _, rec := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	before := len(rec.modes)

	require.NoError(t, c.RequestMode(ModeAdvancedFocus))
	require.NoError(t, c.RequestMode(ModeAdvancedFocus))

	assert.Len(t, rec.modes, before+1)
	assert.Equal(t, ModeAdvancedFocus, c.Mode())
	assert.True(t, c.IsAdvanced())
}

func TestController_SameSnapshotIsNoop(t *testing.T) {
	c, _, rec := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_DEBATE", 6))
	before := len(rec.modes)

	c.ApplySnapshot(snapshot("DAY_DEBATE", 6))
	c.ApplySnapshot(snapshot("DAY_DEBATE", 7))
	assert.Len(t, rec.modes, before)
}

func TestController_ThresholdBoundary(t *testing.T) {
	below, _, _ := newTestController(DeviceDesktop)
	below.SetJoined(true)
	below.ApplySnapshot(snapshot("DAY_VOTE", 3))
	assert.Equal(t, ModeInline, below.Mode())
	assert.False(t, below.AdvancedEligible())

	at, _, _ := newTestController(DeviceDesktop)
	at.SetJoined(true)
	at.ApplySnapshot(snapshot("DAY_VOTE", 4))
	assert.Equal(t, ModeSplit, at.Mode())
	assert.True(t, at.AdvancedEligible())
}

func TestController_DeadPlayersDoNotCount(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	c.SetJoined(true)

	s := snapshot("DAY_VOTE", 5)
	s.Players[0].Alive = false
	s.Players[1].Alive = false
	c.ApplySnapshot(s)

	assert.Equal(t, 3, c.ActivePlayers())
	assert.Len(t, c.Participants(), 5)
	assert.Equal(t, ModeInline, c.Mode())
}

func TestController_MobileGate(t *testing.T) {
	c, _, _ := newTestController(DeviceMobile)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	require.Equal(t, ModeInline, c.Mode())
	assert.True(t, c.AdvancedEligible())

	c.ActivateMobileAdvanced()
	require.Equal(t, ModeSplit, c.Mode())
	assert.True(t, c.MobileAdvanced())

	c.DeactivateMobileAdvanced()
	require.Equal(t, ModeInline, c.Mode())

	c.ActivateMobileAdvanced()
	require.Equal(t, ModeSplit, c.Mode())
	c.DeactivateMobileAdvanced()

	c.ApplySnapshot(snapshot("DAY_VOTE", 6))
	assert.Equal(t, ModeInline, c.Mode())
}

func TestController_DesktopLatchClearKeepsOverlayClosed(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ActivateMobileAdvanced()
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	require.Equal(t, ModeSplit, c.Mode())

	c.DeactivateMobileAdvanced()
	require.Equal(t, ModeInline, c.Mode())

	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	assert.Equal(t, ModeInline, c.Mode())
}

func TestController_MobileNightIsInline(t *testing.T) {
	c, _, _ := newTestController(DeviceMobile)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("NIGHT", 5))
	assert.Equal(t, ModeInline, c.Mode())
}

func TestController_UserCloseSticksInsideCategory(t *testing.T) {
	c, _, rec := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_DEBATE", 5))
	require.Equal(t, ModeSplit, c.Mode())

	require.NoError(t, c.RequestMode(ModeInline))
	before := len(rec.modes)

	c.ApplySnapshot(snapshot("DAY_VOTE", 6))
	assert.Equal(t, ModeInline, c.Mode())
	assert.Len(t, rec.modes, before)

	// Leaving and coming back is a fresh entry.
	c.ApplySnapshot(snapshot("NIGHT", 6))
	assert.Equal(t, ModePIP, c.Mode())
	c.ApplySnapshot(snapshot("DAY_DEBATE", 6))
	assert.Equal(t, ModeSplit, c.Mode())
}

func TestController_UserFullScreenSurvivesUpdates(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_DEBATE", 5))
	require.NoError(t, c.RequestMode(ModeAdvancedFocus))

	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	assert.Equal(t, ModeAdvancedFocus, c.Mode())
}

func TestController_ThresholdDropAndRise(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	require.NoError(t, c.RequestMode(ModeAdvancedFocus))

	c.ApplySnapshot(snapshot("DAY_VOTE", 3))
	require.Equal(t, ModeInline, c.Mode())

	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	assert.Equal(t, ModeSplit, c.Mode())
}

func TestController_RequestModeRejects(t *testing.T) {
	c, _, rec := newTestController(DeviceDesktop)

	assert.ErrorIs(t, c.RequestMode(ModeSplit), ErrModeLocked)

	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	assert.ErrorIs(t, c.RequestMode(ModePIP), ErrModeNotSelectable)
	assert.ErrorIs(t, c.RequestMode(ModeHidden), ErrModeNotSelectable)

	c.ApplySnapshot(snapshot("ROLE_REVEAL", 5))
	before := len(rec.modes)
	assert.ErrorIs(t, c.RequestMode(ModeSplit), ErrModeLocked)
	assert.Len(t, rec.modes, before)
}

func TestController_LeaveTurnsOff(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))

	c.SetJoined(false)
	assert.Equal(t, ModeOff, c.Mode())
	assert.False(t, c.AdvancedEligible())
}

func TestController_MalformedSnapshotDefaults(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	c.SetJoined(true)

	c.ApplySnapshot(types.RoomSnapshot{})
	assert.Equal(t, Phase("LOBBY"), c.Phase())
	assert.Empty(t, c.Participants())
	assert.Equal(t, ModeInline, c.Mode())

	c.ApplySnapshot(types.RoomSnapshot{Phase: "DAY_VOTE", Players: []types.Player{
		{ID: "", Alive: true},
		{ID: "p1", Alive: true},
	}})
	assert.Len(t, c.Participants(), 1)
	assert.Equal(t, 1, c.ActivePlayers())
}

func TestController_ObserverPanicIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	c := NewController(DefaultConfig(), newFakeScheduler(), WithLogger(zap.New(core)))

	var first, last []Mode
	c.OnModeChange(func(m ModeChange) { first = append(first, m.Mode) })
	c.OnModeChange(func(ModeChange) { panic("renderer blew up") })
	c.OnModeChange(func(m ModeChange) { last = append(last, m.Mode) })

	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))

	assert.Equal(t, []Mode{ModeInline, ModeSplit}, first)
	assert.Equal(t, []Mode{ModeInline, ModeSplit}, last)
	assert.Equal(t, ModeSplit, c.Mode())
	assert.Equal(t, 2, logs.FilterMessage("observer panicked").Len())
}

func TestController_Unsubscribe(t *testing.T) {
	c, _, _ := newTestController(DeviceDesktop)
	calls := 0
	unsubscribe := c.OnModeChange(func(ModeChange) { calls++ })

	c.SetJoined(true)
	unsubscribe()
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))

	assert.Equal(t, 1, calls)
}

func TestController_DestroyIsFinal(t *testing.T) {
	c, sched, rec := newTestController(DeviceDesktop)
	c.SetJoined(true)
	c.ApplySnapshot(snapshot("DAY_VOTE", 5))
	c.SignalSpeaker("p1")
	require.NoError(t, c.PinFocus("p2"))
	require.Equal(t, 2, sched.Pending())

	c.Destroy()
	assert.Equal(t, 0, sched.Pending())
	modes, focus, speakers := len(rec.modes), len(rec.focus), len(rec.speakers)

	sched.Advance(time.Minute)
	c.SignalSpeaker("p3")
	c.ApplySnapshot(snapshot("NIGHT", 5))
	c.SetJoined(false)
	c.ActivateMobileAdvanced()
	c.DeactivateMobileAdvanced()
	c.ReleaseFocus()
	assert.NoError(t, c.RequestMode(ModeInline))
	assert.NoError(t, c.PinFocus("p1"))
	sched.Advance(time.Minute)
	c.Destroy()

	assert.Len(t, rec.modes, modes)
	assert.Len(t, rec.focus, focus)
	assert.Len(t, rec.speakers, speakers)

	assert.True(t, c.Destroyed())
	assert.Equal(t, ModeOff, c.Mode())
	assert.Equal(t, ModeOff, c.PreviousMode())
	assert.False(t, c.IsAdvanced())
	assert.False(t, c.AdvancedEligible())
	assert.Empty(t, c.FocusedParticipantID())
	assert.Empty(t, c.ActiveSpeakerID())
	assert.Nil(t, c.Participants())
	assert.Equal(t, 0, c.ActivePlayers())
	assert.Equal(t, FocusState{}, c.Focus())
	assert.Equal(t, ActiveSpeaker{}, c.Speaker())
}
