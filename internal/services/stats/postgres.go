package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_results (
	match_id        TEXT        NOT NULL,
	player_id       TEXT        NOT NULL,
	won             BOOLEAN     NOT NULL,
	cards_collected INTEGER     NOT NULL,
	reported_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (match_id, player_id)
);
CREATE TABLE IF NOT EXISTS player_stats (
	player_id       TEXT PRIMARY KEY,
	games_played    INTEGER NOT NULL DEFAULT 0,
	games_won       INTEGER NOT NULL DEFAULT 0,
	games_lost      INTEGER NOT NULL DEFAULT 0,
	total_score     INTEGER NOT NULL DEFAULT 0,
	best_score      INTEGER NOT NULL DEFAULT 0,
	win_streak      INTEGER NOT NULL DEFAULT 0,
	best_win_streak INTEGER NOT NULL DEFAULT 0
);`

const insertResult = `
INSERT INTO match_results (match_id, player_id, won, cards_collected, reported_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (match_id, player_id) DO NOTHING`

// $2 é 1 para vitória e 0 para derrota.
const upsertStats = `
INSERT INTO player_stats AS ps
	(player_id, games_played, games_won, games_lost, total_score, best_score, win_streak, best_win_streak)
VALUES ($1, 1, $2, 1 - $2, $3, $3, $2, $2)
ON CONFLICT (player_id) DO UPDATE SET
	games_played    = ps.games_played + 1,
	games_won       = ps.games_won + EXCLUDED.games_won,
	games_lost      = ps.games_lost + EXCLUDED.games_lost,
	total_score     = ps.total_score + EXCLUDED.total_score,
	best_score      = GREATEST(ps.best_score, EXCLUDED.best_score),
	win_streak      = CASE WHEN EXCLUDED.games_won = 1 THEN ps.win_streak + 1 ELSE 0 END,
	best_win_streak = GREATEST(ps.best_win_streak,
		CASE WHEN EXCLUDED.games_won = 1 THEN ps.win_streak + 1 ELSE 0 END)`

const selectStats = `
SELECT games_played, games_won, games_lost, total_score, best_score, win_streak, best_win_streak
FROM player_stats WHERE player_id = $1`

// Postgres grava o resultado e atualiza o agregado na mesma transação.
// A chave (match_id, player_id) torna o envio repetido inofensivo.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema cria as tabelas se ainda não existirem.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create stats schema: %w", err)
	}
	return nil
}

func (p *Postgres) ReportMatchResult(ctx context.Context, r Result) error {
	won := 0
	if r.Won {
		won = 1
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insertResult, r.MatchID, r.PlayerID, r.Won, r.CardsCollected, r.At)
		if err != nil {
			return fmt.Errorf("insert match result: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, upsertStats, r.PlayerID, won, r.CardsCollected); err != nil {
			return fmt.Errorf("upsert player stats: %w", err)
		}
		return nil
	})
}

// Load devolve o agregado do jogador; zero se ele nunca jogou.
func (p *Postgres) Load(ctx context.Context, playerID string) (PlayerStats, error) {
	s := PlayerStats{PlayerID: playerID}
	err := p.pool.QueryRow(ctx, selectStats, playerID).Scan(
		&s.GamesPlayed, &s.GamesWon, &s.GamesLost, &s.TotalScore,
		&s.BestScore, &s.WinStreak, &s.BestWinStreak,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("load player stats: %w", err)
	}
	return s, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() { p.pool.Close() }
