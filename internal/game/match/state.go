package match

import (
	"fmt"
	"time"
	"virada/internal/game/card"
	"virada/internal/game/player"
)

// Action descreve o que aconteceu com a última carta revelada.
type Action string

const (
	ActionCollected   Action = "collected"
	ActionTransferred Action = "transferred"
	ActionPassed      Action = "passed"
)

// LastReveal registra a última resolução para quem assiste a partida.
type LastReveal struct {
	CardID    string      `json:"cardId,omitempty"`
	Symbol    card.Symbol `json:"symbol,omitempty"`
	TrueStyle card.Style  `json:"trueStyle,omitempty"`
	Action    Action      `json:"action"`
	By        string      `json:"by"`
	// From é o dono que cedeu uma carta na transferência; vazio se a pilha dele estava vazia.
	From string `json:"from,omitempty"`
	// To é quem recebeu a carta revelada (ou a vez, no caso de passar).
	To                string    `json:"to,omitempty"`
	TransferredCardID string    `json:"transferredCardId,omitempty"`
	At                time.Time `json:"at"`
}

// State é o documento autoritativo da partida. Só é alterado pelas operações
// deste pacote, aplicadas de forma transacional sobre uma cópia decodificada.
type State struct {
	MatchID         string                    `json:"matchId"`
	Phase           Phase                     `json:"phase"`
	CurrentTurn     string                    `json:"currentTurn"`
	Order           []string                  `json:"order"`
	HostID          string                    `json:"hostId"`
	Players         map[string]*player.Player `json:"players"`
	CardsPerPlayer  int                       `json:"cardsPerPlayer"`
	Transfer        TransferMode              `json:"transfer"`
	Round           int                       `json:"round"`
	LastRevealed    *LastReveal               `json:"lastRevealed,omitempty"`
	LastAction      time.Time                 `json:"lastAction"`
	TurnStartedAt   time.Time                 `json:"turnStartedAt"`
	Winner          string                    `json:"winner,omitempty"`
	EndReason       string                    `json:"endReason,omitempty"`
	ResultsReported bool                      `json:"resultsReported"`
}

// NewState cria uma partida vazia em Setup.
func NewState(matchID string) *State {
	return &State{
		MatchID: matchID,
		Phase:   PhaseSetup,
		Players: make(map[string]*player.Player),
	}
}

func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Order = append([]string(nil), s.Order...)
	cp.Players = make(map[string]*player.Player, len(s.Players))
	for id, p := range s.Players {
		cp.Players[id] = p.Clone()
	}
	if s.LastRevealed != nil {
		lr := *s.LastRevealed
		cp.LastRevealed = &lr
	}
	return &cp
}

// Player devolve o jogador ou ErrUnknownPlayer.
func (s *State) Player(id string) (*player.Player, error) {
	p, ok := s.Players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	return p, nil
}

// Current é o jogador da vez; nil antes da distribuição.
func (s *State) Current() *player.Player {
	return s.Players[s.CurrentTurn]
}

// Owner devolve o jogador cujo estilo é style.
func (s *State) Owner(style card.Style) *player.Player {
	for _, id := range s.Order {
		if p := s.Players[id]; p != nil && p.Style == style {
			return p
		}
	}
	return nil
}

// NextPlayer é o próximo na ordem da sala, circular.
func (s *State) NextPlayer(id string) string {
	for i, pid := range s.Order {
		if pid == id {
			return s.Order[(i+1)%len(s.Order)]
		}
	}
	return ""
}

// Score é o número de cartas coletadas pelo jogador.
func (s *State) Score(id string) int {
	if p := s.Players[id]; p != nil {
		return p.CardsInWinPile()
	}
	return 0
}

// IsBot diz se o assento é controlado por bot.
func (s *State) IsBot(id string) bool {
	p := s.Players[id]
	return p != nil && p.IsBot
}

// TotalCards é o total esperado de cartas em jogo.
func (s *State) TotalCards() int {
	return len(s.Order) * s.CardsPerPlayer
}
