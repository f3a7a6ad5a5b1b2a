package stats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Precisa de DATABASE_URL apontando para um Postgres descartável.
func TestPostgresRecorder(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx))
	require.NoError(t, pg.EnsureSchema(ctx))

	player := "player-" + uuid.NewString()
	now := time.Now().UTC()
	results := []Result{
		{MatchID: uuid.NewString(), PlayerID: player, Won: true, CardsCollected: 10, At: now},
		{MatchID: uuid.NewString(), PlayerID: player, Won: true, CardsCollected: 10, At: now},
		{MatchID: uuid.NewString(), PlayerID: player, Won: false, CardsCollected: 6, At: now},
	}
	for _, r := range results {
		require.NoError(t, pg.ReportMatchResult(ctx, r))
	}
	// Reenvio da mesma partida não conta de novo.
	require.NoError(t, pg.ReportMatchResult(ctx, results[0]))

	s, err := pg.Load(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, 3, s.GamesPlayed)
	assert.Equal(t, 2, s.GamesWon)
	assert.Equal(t, 1, s.GamesLost)
	assert.Equal(t, 26, s.TotalScore)
	assert.Equal(t, 10, s.BestScore)
	assert.Equal(t, 0, s.WinStreak)
	assert.Equal(t, 2, s.BestWinStreak)

	empty, err := pg.Load(ctx, "nobody-"+uuid.NewString())
	require.NoError(t, err)
	assert.Zero(t, empty.GamesPlayed)
}
