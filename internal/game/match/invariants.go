package match

import (
	"fmt"
	"virada/internal/game/card"
)

// Validate confere as invariantes estruturais do documento:
// conservação de cartas, ids únicos, coletadas só com cartas do próprio estilo
// e cartas de pilha viradas para baixo fora de FlippingCard.
// Uma falha aqui é defeito; o estado não pode ser gravado.
func (s *State) Validate() error {
	if s.Phase == PhaseSetup {
		if len(s.Players) != 0 {
			return fmt.Errorf("%w: players present before initialization", ErrInvariantViolation)
		}
		return nil
	}

	if len(s.Order) != len(s.Players) {
		return fmt.Errorf("%w: order has %d ids, players map has %d", ErrInvariantViolation, len(s.Order), len(s.Players))
	}
	styles := make(map[card.Style]string, len(s.Order))
	for _, id := range s.Order {
		p, ok := s.Players[id]
		if !ok || p == nil {
			return fmt.Errorf("%w: %s in order but not in players", ErrInvariantViolation, id)
		}
		if other, dup := styles[p.Style]; dup {
			return fmt.Errorf("%w: %s and %s share style %s", ErrInvariantViolation, other, id, p.Style)
		}
		styles[p.Style] = id
	}

	if _, ok := s.Players[s.CurrentTurn]; !ok {
		return fmt.Errorf("%w: current turn %q is not a player", ErrInvariantViolation, s.CurrentTurn)
	}
	if s.Winner != "" {
		if _, ok := s.Players[s.Winner]; !ok {
			return fmt.Errorf("%w: winner %q is not a player", ErrInvariantViolation, s.Winner)
		}
	}

	seen := make(map[string]string, s.TotalCards())
	perStyle := make(map[card.Style]int, len(styles))
	track := func(c card.Card, where string) error {
		if prev, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: card %s found in %s and %s", ErrInvariantViolation, c.ID, prev, where)
		}
		if _, ok := styles[c.TrueStyle]; !ok {
			return fmt.Errorf("%w: card %s has unowned style %s", ErrInvariantViolation, c.ID, c.TrueStyle)
		}
		seen[c.ID] = where
		perStyle[c.TrueStyle]++
		return nil
	}

	for _, id := range s.Order {
		p := s.Players[id]
		for i, c := range p.Pile {
			if err := track(c, id+"/pile"); err != nil {
				return err
			}
			if c.IsRevealed() && !(s.Phase == PhaseFlippingCard && id == s.CurrentTurn && i == len(p.Pile)-1) {
				return fmt.Errorf("%w: card %s is face up in %s's pile", ErrInvariantViolation, c.ID, id)
			}
		}
		for _, c := range p.Collected {
			if err := track(c, id+"/collected"); err != nil {
				return err
			}
			if c.TrueStyle != p.Style {
				return fmt.Errorf("%w: %s collected card %s of style %s", ErrInvariantViolation, id, c.ID, c.TrueStyle)
			}
		}
	}

	if len(seen) != s.TotalCards() {
		return fmt.Errorf("%w: %d cards in play, expected %d", ErrInvariantViolation, len(seen), s.TotalCards())
	}
	for style, n := range perStyle {
		if n != s.CardsPerPlayer {
			return fmt.Errorf("%w: style %s has %d cards, expected %d", ErrInvariantViolation, style, n, s.CardsPerPlayer)
		}
	}
	return nil
}
