package gameroom

import (
	"context"
	"testing"
	"time"
	"virada/internal/game/match"
	"virada/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitGameOver(t *testing.T, h *harness, id string) *match.State {
	t.Helper()
	var last *match.State
	require.Eventually(t, func() bool {
		st, _, err := h.applier.Load(context.Background(), id)
		if err != nil {
			return false
		}
		last = st
		return st.Phase == match.PhaseGameOver && st.ResultsReported
	}, 10*time.Second, 5*time.Millisecond)
	return last
}

func assertReported(t *testing.T, h *harness, st *match.State) {
	t.Helper()
	require.Eventually(t, func() bool { return len(h.recorder.all()) >= len(st.Order) }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	results := h.recorder.all()
	require.Len(t, results, len(st.Order))
	winners := 0
	for _, r := range results {
		assert.Equal(t, st.MatchID, r.MatchID)
		assert.Equal(t, st.Score(r.PlayerID), r.CardsCollected)
		if r.Won {
			winners++
			assert.Equal(t, st.Winner, r.PlayerID)
		}
	}
	if st.Winner == "" {
		assert.Zero(t, winners)
	} else {
		assert.Equal(t, 1, winners)
	}
}

func TestBotsPlayFullMatch(t *testing.T) {
	h := newHarness(t, fastRules())
	gr, st, err := h.manager.CreateRoom(context.Background(), botRoom("m1"))
	require.NoError(t, err)
	assert.Equal(t, match.PhaseWaitingForPlay, st.Phase)

	final := waitGameOver(t, h, gr.ID)
	assert.Equal(t, match.EndVictory, final.EndReason)
	assert.Equal(t, final.CardsPerPlayer, final.Score(final.Winner))
	assert.NoError(t, final.Validate())
	assertReported(t, h, final)

	select {
	case <-gr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room did not tear down after the match")
	}
	assert.True(t, gr.IsFinished())
}

func TestBotsPlayWithFlipDelay(t *testing.T) {
	rules := fastRules()
	rules.CardsPerPlayer = 5
	rules.FlipDelay = 2 * time.Millisecond
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), botRoom("m1"))
	require.NoError(t, err)
	final := waitGameOver(t, h, gr.ID)
	assert.Equal(t, match.EndVictory, final.EndReason)
	assertReported(t, h, final)
}

func TestTurnTimeoutAutoPlaysHumans(t *testing.T) {
	rules := fastRules()
	rules.CardsPerPlayer = 3
	rules.TurnTimeout = 5 * time.Millisecond
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)
	final := waitGameOver(t, h, gr.ID)
	assert.Equal(t, match.EndVictory, final.EndReason)
	assert.Greater(t, final.Round, 0)
}

func TestResultsReportedOnceAcrossControllers(t *testing.T) {
	rules := fastRules()
	rules.CardsPerPlayer = 5
	rules.BotDelayMin = 10 * time.Millisecond
	rules.BotDelayMax = 20 * time.Millisecond

	a := newHarness(t, rules)
	b := newHarnessOn(t, a.store, rules, a.recorder)

	gr, _, err := a.manager.CreateRoom(context.Background(), botRoom("m1"))
	require.NoError(t, err)
	other, err := b.manager.Lookup(context.Background(), gr.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.ID, other.ID)

	final := waitGameOver(t, a, gr.ID)
	assertReported(t, a, final)
}

func TestCreateRoomIsIdempotent(t *testing.T) {
	rules := fastRules()
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr1, st1, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)
	gr2, st2, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)

	assert.Same(t, gr1, gr2)
	assert.Equal(t, st1.Players["alice"].Pile.IDs(), st2.Players["alice"].Pile.IDs())
	assert.Equal(t, st1.CurrentTurn, st2.CurrentTurn)

	st, err := gr1.InitializeMatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Round)
}

func TestCreateRoomRejectsBadRoom(t *testing.T) {
	h := newHarness(t, fastRules())
	room := humanRoom("m1")
	room.Participants = room.Participants[:1]

	_, _, err := h.manager.CreateRoom(context.Background(), room)
	assert.ErrorIs(t, err, match.ErrInvalidConfiguration)
	assert.NotContains(t, h.manager.ActiveRooms(), "m1")

	_, _, err = h.applier.Load(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrRoomGone)
}

func TestCreateRoomAssignsID(t *testing.T) {
	h := newHarness(t, fastRules())
	room := humanRoom("")
	gr, st, err := h.manager.CreateRoom(context.Background(), room)
	require.NoError(t, err)
	assert.NotEmpty(t, gr.ID)
	assert.Equal(t, gr.ID, st.MatchID)
}

func TestRequestRevealRejectsWrongPlayer(t *testing.T) {
	rules := fastRules()
	rules.FirstTurn = match.FirstTurnHost
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)

	_, err = gr.RequestReveal(context.Background(), "bob")
	assert.ErrorIs(t, err, match.ErrNotYourTurn)
	_, err = gr.RequestReveal(context.Background(), "mallory")
	assert.ErrorIs(t, err, match.ErrUnknownPlayer)

	st, err := gr.RequestReveal(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Round)
	assert.Equal(t, "alice", st.LastRevealed.By)
}

func TestStaleBotMoveChangesNothing(t *testing.T) {
	rules := fastRules()
	rules.FirstTurn = match.FirstTurnHost
	a := NewApplier(memory.New(), nullLogger())
	gr := NewGameRoom("m1", botRoom("m1"), a, Options{Rules: rules, Logger: nullLogger(), Rand: NewRand(5)})

	_, err := gr.InitializeMatch(context.Background())
	require.NoError(t, err)
	// Outro controlador joga a vez do bot antes do timer deste disparar.
	_, err = gr.RequestReveal(context.Background(), "bot-1")
	require.NoError(t, err)
	_, before, err := a.Load(context.Background(), "m1")
	require.NoError(t, err)

	gr.botMove("bot-1", 0)

	st, after, err := a.Load(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, st.Round)

	_, err = a.Apply(context.Background(), "m1", gr.revealMutator("bot-1", intPtr(0)))
	assert.ErrorIs(t, err, match.ErrStaleTurn)
}

func TestForceEndAsWinReportsWinner(t *testing.T) {
	rules := fastRules()
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)
	st, err := gr.ForceEndAsWin(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, match.EndForfeit, st.EndReason)

	final := waitGameOver(t, h, gr.ID)
	assert.Equal(t, "bob", final.Winner)
	assertReported(t, h, final)

	_, err = h.manager.Lookup(context.Background(), gr.ID)
	assert.ErrorIs(t, err, match.ErrInvalidPhase)
}

func TestRoomChangedAbandonsWhenPlayerLeaves(t *testing.T) {
	rules := fastRules()
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)

	room := humanRoom("m1")
	room.Participants = room.Participants[:1]
	require.NoError(t, gr.RoomChanged(context.Background(), room))

	final := waitGameOver(t, h, gr.ID)
	assert.Equal(t, match.EndAbandoned, final.EndReason)
	assert.Empty(t, final.Winner)
	assertReported(t, h, final)
}

func TestRoomChangedDeletesEmptiedMatch(t *testing.T) {
	rules := fastRules()
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)
	require.NoError(t, gr.RoomChanged(context.Background(), match.Room{ID: "m1"}))

	select {
	case <-gr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room was not torn down")
	}
	_, _, err = h.applier.Load(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrRoomGone)
	assert.Empty(t, h.recorder.all())

	_, err = h.manager.Lookup(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrRoomGone)
}

func TestReplaceWithBotTakesOverSeats(t *testing.T) {
	rules := fastRules()
	rules.CardsPerPlayer = 4
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)
	for _, id := range []string{"alice", "bob"} {
		st, err := gr.ReplaceWithBot(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, st.IsBot(id))
	}
	assert.Zero(t, gr.Room().Humans())

	final := waitGameOver(t, h, gr.ID)
	assert.Equal(t, match.EndVictory, final.EndReason)
}

func TestSubscribeEndsWithFinalSnapshot(t *testing.T) {
	rules := fastRules()
	rules.CardsPerPlayer = 4
	rules.TurnTimeout = 0
	h := newHarness(t, rules)

	gr, _, err := h.manager.CreateRoom(context.Background(), humanRoom("m1"))
	require.NoError(t, err)
	states, cancel := gr.Subscribe()
	defer cancel()

	_, err = gr.ForceEndAsWin(context.Background(), "alice")
	require.NoError(t, err)

	var last *match.State
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case st, ok := <-states:
			if !ok {
				done = true
				continue
			}
			last = st
		case <-timeout:
			t.Fatal("subscription was not closed")
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, match.PhaseGameOver, last.Phase)
	assert.Equal(t, "alice", last.Winner)
}

func intPtr(v int) *int { return &v }

func TestManagerRoomChangedDeletesFinishedMatch(t *testing.T) {
	h := newHarness(t, fastRules())
	ctx := context.Background()

	gr, _, err := h.manager.CreateRoom(ctx, humanRoom("m1"))
	require.NoError(t, err)
	_, err = gr.ForceEndAsWin(ctx, "alice")
	require.NoError(t, err)
	waitGameOver(t, h, "m1")

	_, err = h.manager.Lookup(ctx, "m1")
	require.ErrorIs(t, err, match.ErrInvalidPhase)

	require.NoError(t, h.manager.RoomChanged(ctx, "m1", match.Room{ID: "m1"}))
	_, _, err = h.applier.Load(ctx, "m1")
	assert.ErrorIs(t, err, ErrRoomGone)
	assert.Nil(t, h.manager.GetRoom("m1"))

	assert.ErrorIs(t, h.manager.RoomChanged(ctx, "m1", match.Room{ID: "m1"}), ErrRoomGone)
}
