package player

import (
	"virada/internal/game/card"
)

// Player é o estado de um participante dentro da partida.
// Style é o estilo escolhido no lobby e identifica quais cartas são dele.
type Player struct {
	ID          string         `json:"playerId"`
	DisplayName string         `json:"displayName,omitempty"`
	Style       card.Style     `json:"style"`
	IsBot       bool           `json:"isBot"`
	Pile        card.Pile      `json:"pile"`
	Collected   card.Collected `json:"collected"`
}

func NewPlayer(id, displayName string, style card.Style, isBot bool) *Player {
	return &Player{
		ID:          id,
		DisplayName: displayName,
		Style:       style,
		IsBot:       isBot,
		Pile:        card.Pile{},
		Collected:   card.Collected{},
	}
}

// Owns diz se a carta pertence a este jogador pelas regras.
func (p *Player) Owns(c card.Card) bool {
	return c.TrueStyle == p.Style
}

// CardCount soma pilha e coletadas.
func (p *Player) CardCount() int {
	return p.Pile.Size() + p.Collected.Size()
}

func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Pile = p.Pile.Clone()
	cp.Collected = p.Collected.Clone()
	return &cp
}
