package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/secret"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
)

func testCards() []experience.CardDefinition {
	return []experience.CardDefinition{
		{ID: 1, AnswerDigest: secret.Digest("vela"), Asset: "card_1"},
		{ID: 2, AnswerDigest: secret.Digest("estrella"), Asset: "card_2"},
	}
}

type cardRig struct {
	sched     *ManualScheduler
	machine   *CardInteractionMachine
	profile   *experience.Profile
	eventLog  *events.EventLog
	completed int
}

func newCardRig(t *testing.T) *cardRig {
	t.Helper()
	rig := &cardRig{
		sched:    NewManualScheduler(t0),
		profile:  experience.NewProfile(),
		eventLog: events.NewEventLog(nil),
	}
	rig.machine = NewCardInteractionMachine(rig.sched, rig.eventLog, logger.NewLogger(),
		testCards(), rig.profile, func() {}, func() { rig.completed++ })
	return rig
}

func TestOpenRunsExpandThenFlip(t *testing.T) {
	rig := newCardRig(t)

	require.True(t, rig.machine.Open(1))
	assert.Equal(t, experience.PhaseExpanding, rig.machine.Phase())
	assert.True(t, rig.machine.Locked())

	rig.sched.Advance(cardStageDelay)
	assert.Equal(t, experience.PhaseFlipped, rig.machine.Phase())
	assert.True(t, rig.machine.Locked(), "flip motion is still running")

	rig.sched.Advance(cardStageDelay)
	assert.Equal(t, experience.PhaseFlipped, rig.machine.Phase())
	assert.False(t, rig.machine.Locked(), "input unlocks when the flip settles")

	id, open := rig.machine.ActiveCard()
	assert.True(t, open)
	assert.Equal(t, 1, id)
}

func TestRapidDoubleOpenKeepsOneCard(t *testing.T) {
	rig := newCardRig(t)

	require.True(t, rig.machine.Open(1))
	assert.False(t, rig.machine.Open(2), "second tap during the animation is dropped")

	rig.sched.Advance(2 * cardStageDelay)
	id, open := rig.machine.ActiveCard()
	assert.True(t, open)
	assert.Equal(t, 1, id, "the drop must not queue card 2 behind card 1")
	assert.False(t, rig.machine.Open(2), "a second card cannot open over the first")
}

func TestOpenSolvedCardIsDropped(t *testing.T) {
	rig := newCardRig(t)
	rig.profile.MarkSolved(1)

	assert.False(t, rig.machine.Open(1))
	assert.Equal(t, experience.PhaseClosed, rig.machine.Phase())
}

func TestOpenUnknownCardIsDropped(t *testing.T) {
	rig := newCardRig(t)

	assert.False(t, rig.machine.Open(99))
	assert.False(t, rig.machine.Locked())
}

func TestWrongAnswerKeepsCardOpen(t *testing.T) {
	rig := newCardRig(t)
	rig.machine.Open(1)
	rig.sched.Advance(2 * cardStageDelay)

	assert.False(t, rig.machine.SubmitAnswer("farol"))
	assert.Equal(t, experience.PhaseFlipped, rig.machine.Phase())
	assert.True(t, rig.machine.PulseActive())
	assert.False(t, rig.profile.HasSolved(1), "rejection touches no progress state")

	rejected := rig.eventLog.GetByType(events.EventTypeAnswerRejected)
	assert.Len(t, rejected, 1)
}

func TestCorrectAnswerClosesSolved(t *testing.T) {
	rig := newCardRig(t)
	rig.machine.Open(1)
	rig.sched.Advance(2 * cardStageDelay)

	require.True(t, rig.machine.SubmitAnswer(" VELA "))
	assert.Equal(t, experience.PhaseCollapsing, rig.machine.Phase())
	assert.False(t, rig.profile.HasSolved(1), "solved commits at close, not at accept")

	rig.sched.Advance(cardStageDelay)
	assert.Equal(t, experience.PhaseClosed, rig.machine.Phase())
	assert.True(t, rig.profile.HasSolved(1))
	_, open := rig.machine.ActiveCard()
	assert.False(t, open)

	solved := rig.eventLog.GetByType(events.EventTypeCardSolved)
	assert.Len(t, solved, 1)
}

func TestAnswerDuringAnimationIsDropped(t *testing.T) {
	rig := newCardRig(t)
	rig.machine.Open(1)

	// Still EXPANDING: the input slot does not exist yet.
	assert.False(t, rig.machine.SubmitAnswer("vela"))

	rig.sched.Advance(cardStageDelay)
	// FLIPPED but the flip motion is still settling.
	assert.False(t, rig.machine.SubmitAnswer("vela"))
	assert.False(t, rig.profile.HasSolved(1))
}

func TestCloseUnsolvedReturnsCardToSlot(t *testing.T) {
	rig := newCardRig(t)
	rig.machine.Open(1)
	rig.sched.Advance(2 * cardStageDelay)

	require.True(t, rig.machine.Close(false))
	assert.False(t, rig.machine.Close(false), "re-close during the collapse is dropped")

	rig.sched.Advance(cardStageDelay)
	assert.False(t, rig.profile.HasSolved(1))
	assert.True(t, rig.machine.Open(1), "an unsolved card can be reopened")
}

func TestAllSolvedFiresCompleteAfterPause(t *testing.T) {
	rig := newCardRig(t)

	solve := func(id int, answer string) {
		require.True(t, rig.machine.Open(id))
		rig.sched.Advance(2 * cardStageDelay)
		require.True(t, rig.machine.SubmitAnswer(answer))
		rig.sched.Advance(cardStageDelay)
	}

	solve(1, "vela")
	assert.Equal(t, 0, rig.completed)

	solve(2, "estrella")
	assert.Equal(t, 0, rig.completed, "the complete pause has not elapsed yet")

	rig.sched.Advance(completePause)
	assert.Equal(t, 1, rig.completed)
}

func TestTeardownCancelsPendingStages(t *testing.T) {
	rig := newCardRig(t)
	rig.machine.Open(1)

	rig.machine.Teardown()
	rig.sched.Advance(time.Minute)

	assert.Equal(t, experience.PhaseExpanding, rig.machine.Phase(),
		"no stage timer may fire after teardown")
	assert.Equal(t, 0, rig.completed)
}
