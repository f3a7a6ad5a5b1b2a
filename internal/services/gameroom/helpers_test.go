package gameroom

import (
	"context"
	"sync"
	"testing"
	"time"
	"virada/internal/game/match"
	"virada/internal/services/stats"
	"virada/internal/store"
	"virada/internal/store/memory"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// countingRecorder guarda todos os envios, inclusive repetidos.
type countingRecorder struct {
	mu      sync.Mutex
	results []stats.Result
}

func (c *countingRecorder) ReportMatchResult(_ context.Context, r stats.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
	return nil
}

func (c *countingRecorder) all() []stats.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stats.Result(nil), c.results...)
}

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func fastRules() match.Rules {
	return match.Rules{
		CardsPerPlayer: 10,
		FirstTurn:      match.FirstTurnRandom,
		Transfer:       match.TransferRandom,
		BotDelayMin:    time.Millisecond,
		BotDelayMax:    3 * time.Millisecond,
	}
}

func botRoom(id string) match.Room {
	return match.Room{
		ID:              id,
		HostID:          "bot-1",
		RequiredPlayers: 2,
		Participants: []match.Participant{
			{ID: "bot-1", DisplayName: "Bot 1", Style: "neon-circuit", IsBot: true},
			{ID: "bot-2", DisplayName: "Bot 2", Style: "flux-ember", IsBot: true},
		},
	}
}

func humanRoom(id string) match.Room {
	return match.Room{
		ID:              id,
		HostID:          "alice",
		RequiredPlayers: 2,
		Participants: []match.Participant{
			{ID: "alice", DisplayName: "Alice", Style: "neon-circuit"},
			{ID: "bob", DisplayName: "Bob", Style: "flux-ember"},
		},
	}
}

type harness struct {
	store    store.Store
	applier  *Applier
	manager  *RoomManager
	recorder *countingRecorder
}

// newHarness sobe um RoomManager sobre um store em memória e o derruba no fim do teste.
func newHarness(t *testing.T, rules match.Rules) *harness {
	t.Helper()
	st := memory.New()
	return newHarnessOn(t, st, rules, &countingRecorder{})
}

func newHarnessOn(t *testing.T, st store.Store, rules match.Rules, rec *countingRecorder) *harness {
	t.Helper()
	applier := NewApplier(st, nullLogger())
	rm := NewRoomManager(applier, Options{
		Rules:    rules,
		Recorder: rec,
		Logger:   nullLogger(),
		Rand:     NewRand(42),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = rm.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("room manager did not stop")
		}
	})
	return &harness{store: st, applier: applier, manager: rm, recorder: rec}
}

func (h *harness) load(t *testing.T, id string) (*match.State, uint64) {
	t.Helper()
	st, v, err := h.applier.Load(context.Background(), id)
	require.NoError(t, err)
	return st, v
}
