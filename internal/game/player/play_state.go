package player

import (
	"fmt"
	"virada/internal/game/card"
)

// FlipTop vira a carta do topo no lugar e a devolve.
func (p *Player) FlipTop() (card.Card, error) {
	top, err := p.Pile.Top()
	if err != nil {
		return card.Card{}, fmt.Errorf("player %s: %w", p.ID, err)
	}
	top = top.Reveal()
	if err := p.Pile.SetTop(top); err != nil {
		return card.Card{}, err
	}
	return top, nil
}

// TakeTop remove a carta do topo da pilha.
func (p *Player) TakeTop() (card.Card, error) {
	c, err := p.Pile.Pop()
	if err != nil {
		return card.Card{}, fmt.Errorf("player %s: %w", p.ID, err)
	}
	return c, nil
}

// Collect guarda a carta de forma permanente.
func (p *Player) Collect(c card.Card) {
	p.Collected.Add(c)
}

// Receive coloca uma carta transferida no topo, virada para baixo.
func (p *Player) Receive(c card.Card) {
	p.Pile.Push(c.Hide())
}

// GiveRandom retira uma carta de posição aleatória. ok é false se a pilha está vazia.
func (p *Player) GiveRandom(r card.Source) (card.Card, bool) {
	if p.Pile.Size() == 0 {
		return card.Card{}, false
	}
	c, err := p.Pile.DrawRandom(r)
	return c, err == nil
}

// GiveTop retira a carta do topo. ok é false se a pilha está vazia.
func (p *Player) GiveTop() (card.Card, bool) {
	c, err := p.Pile.Pop()
	return c, err == nil
}

// HasNoMoreMoves verifica se o jogador não tem mais cartas para virar.
func (p *Player) HasNoMoreMoves() bool {
	return p.Pile.Size() == 0
}

// CardsInWinPile retorna a contagem de cartas coletadas.
func (p *Player) CardsInWinPile() int {
	return p.Collected.Size()
}

// WinCondition é atingida quando o jogador recuperou todas as suas cartas.
func (p *Player) WinCondition(cardsPerPlayer int) bool {
	return cardsPerPlayer > 0 && p.Collected.Size() >= cardsPerPlayer
}
