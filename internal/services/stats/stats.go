// Package stats recebe o resultado de cada participante ao fim da partida
// e mantém o agregado por jogador.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Result é o que a partida informa de cada participante, uma única vez.
type Result struct {
	MatchID        string    `json:"matchId"`
	PlayerID       string    `json:"playerId"`
	Won            bool      `json:"won"`
	CardsCollected int       `json:"cardsCollected"`
	At             time.Time `json:"at"`
}

// Recorder é o coletor externo de estatísticas.
type Recorder interface {
	ReportMatchResult(ctx context.Context, r Result) error
}

// Reader consulta o agregado de um jogador. *Memory e *Postgres satisfazem.
type Reader interface {
	Load(ctx context.Context, playerID string) (PlayerStats, error)
}

// PlayerStats é o agregado de um jogador.
type PlayerStats struct {
	PlayerID      string `json:"playerId"`
	GamesPlayed   int    `json:"gamesPlayed"`
	GamesWon      int    `json:"gamesWon"`
	GamesLost     int    `json:"gamesLost"`
	TotalScore    int    `json:"totalScore"`
	BestScore     int    `json:"bestScore"`
	WinStreak     int    `json:"winStreak"`
	BestWinStreak int    `json:"bestWinStreak"`
}

// Apply soma um resultado ao agregado.
func (p *PlayerStats) Apply(r Result) {
	p.GamesPlayed++
	p.TotalScore += r.CardsCollected
	if r.CardsCollected > p.BestScore {
		p.BestScore = r.CardsCollected
	}
	if r.Won {
		p.GamesWon++
		p.WinStreak++
		if p.WinStreak > p.BestWinStreak {
			p.BestWinStreak = p.WinStreak
		}
	} else {
		p.GamesLost++
		p.WinStreak = 0
	}
}

// WinRate é a taxa de vitórias em porcentagem inteira (arredondada).
func (p PlayerStats) WinRate() int {
	if p.GamesPlayed == 0 {
		return 0
	}
	return (p.GamesWon*100 + p.GamesPlayed/2) / p.GamesPlayed
}

// ============================================================================
// Memory
// ============================================================================

// Memory guarda tudo no processo. Resultados repetidos da mesma partida e jogador são ignorados.
type Memory struct {
	mu      sync.Mutex
	results []Result
	seen    map[string]struct{}
	players map[string]*PlayerStats
}

func NewMemory() *Memory {
	return &Memory{
		seen:    make(map[string]struct{}),
		players: make(map[string]*PlayerStats),
	}
}

func (m *Memory) ReportMatchResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := r.MatchID + "/" + r.PlayerID
	if _, dup := m.seen[key]; dup {
		return nil
	}
	m.seen[key] = struct{}{}
	m.results = append(m.results, r)

	p, ok := m.players[r.PlayerID]
	if !ok {
		p = &PlayerStats{PlayerID: r.PlayerID}
		m.players[r.PlayerID] = p
	}
	p.Apply(r)
	return nil
}

// Results devolve uma cópia dos resultados recebidos, em ordem de chegada.
func (m *Memory) Results() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.results...)
}

func (m *Memory) Stats(playerID string) (PlayerStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return PlayerStats{PlayerID: playerID}, false
	}
	return *p, true
}

// Load satisfaz Reader; jogador desconhecido volta zerado.
func (m *Memory) Load(_ context.Context, playerID string) (PlayerStats, error) {
	s, _ := m.Stats(playerID)
	return s, nil
}

// ============================================================================
// Multi
// ============================================================================

// Multi repassa cada resultado para todos os recorders e junta os erros.
type Multi []Recorder

func (m Multi) ReportMatchResult(ctx context.Context, r Result) error {
	var result *multierror.Error
	for _, rec := range m {
		if rec == nil {
			continue
		}
		if err := rec.ReportMatchResult(ctx, r); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
