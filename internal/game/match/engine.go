package match

import (
	"errors"
	"fmt"
	"time"
	"virada/internal/game/card"
	"virada/internal/game/deck"
	"virada/internal/game/player"
)

// ============================================================================
// Inicialização
// ============================================================================

// Initialize executa Setup → Shuffling → Distributing → WaitingForPlay de uma vez.
// Numa partida já iniciada devolve ErrAlreadyInitialized e não altera nada.
func (s *State) Initialize(room Room, rules Rules, src card.Source, newID deck.IDFunc, now time.Time) error {
	if s.Phase != PhaseSetup {
		return fmt.Errorf("%w: match %s is in phase %s", ErrAlreadyInitialized, s.MatchID, s.Phase)
	}
	if err := rules.Validate(); err != nil {
		return err
	}
	if err := room.Validate(rules.CardsPerPlayer); err != nil {
		return err
	}

	cards, err := deck.Build(room.Seats(), rules.CardsPerPlayer, newID)
	if err != nil {
		return err
	}

	s.Phase = PhaseShuffling
	card.Shuffle(cards, src)

	s.Phase = PhaseDistributing
	piles, err := deck.Distribute(cards, len(room.Participants), rules.CardsPerPlayer)
	if err != nil {
		return err
	}

	s.Order = make([]string, 0, len(room.Participants))
	s.Players = make(map[string]*player.Player, len(room.Participants))
	for k, part := range room.Participants {
		p := player.NewPlayer(part.ID, part.DisplayName, part.Style, part.IsBot)
		p.Pile = piles[k]
		s.Players[part.ID] = p
		s.Order = append(s.Order, part.ID)
	}

	s.HostID = room.Host()
	s.CardsPerPlayer = rules.CardsPerPlayer
	s.Transfer = rules.Transfer
	switch rules.FirstTurn {
	case FirstTurnHost:
		s.CurrentTurn = s.HostID
	default:
		s.CurrentTurn = s.Order[src.IntN(len(s.Order))]
	}

	s.Round = 0
	s.LastAction = now
	s.TurnStartedAt = now
	s.Phase = PhaseWaitingForPlay
	return nil
}

// ============================================================================
// Jogadas
// ============================================================================

// checkActor aplica as pré-condições de uma jogada do jogador da vez.
func (s *State) checkActor(playerID string) (*player.Player, error) {
	if s.Phase != PhaseWaitingForPlay {
		return nil, fmt.Errorf("%w: match is in phase %s", ErrInvalidPhase, s.Phase)
	}
	p, err := s.Player(playerID)
	if err != nil {
		return nil, err
	}
	if s.CurrentTurn != playerID {
		return nil, fmt.Errorf("%w: it is %s's turn", ErrNotYourTurn, s.CurrentTurn)
	}
	return p, nil
}

// ExpectTurn confirma que a jogada agendada para (playerID, round) ainda vale.
// Bots e o relógio de turno chamam isto dentro da transação antes de agir.
func (s *State) ExpectTurn(playerID string, round int) error {
	if s.Phase != PhaseWaitingForPlay || s.Round != round {
		return fmt.Errorf("%w: scheduled for round %d, match is at round %d (%s)", ErrStaleTurn, round, s.Round, s.Phase)
	}
	if s.CurrentTurn != playerID {
		return fmt.Errorf("%w: it is %s's turn", ErrNotYourTurn, s.CurrentTurn)
	}
	return nil
}

// Flip vira a carta do topo do jogador da vez: WaitingForPlay → FlippingCard.
func (s *State) Flip(playerID string, now time.Time) (card.Card, error) {
	p, err := s.checkActor(playerID)
	if err != nil {
		return card.Card{}, err
	}
	if p.HasNoMoreMoves() {
		return card.Card{}, fmt.Errorf("%w: %s has no cards", ErrEmptyPile, playerID)
	}

	c, err := p.FlipTop()
	if err != nil {
		return card.Card{}, err
	}
	s.Phase = PhaseFlippingCard
	s.LastAction = now
	return c, nil
}

// Resolve aplica a regra de posse sobre a carta virada:
// FlippingCard → ResolvingCard → WaitingForPlay | GameOver.
func (s *State) Resolve(src card.Source, now time.Time) error {
	if s.Phase != PhaseFlippingCard {
		return fmt.Errorf("%w: nothing to resolve in phase %s", ErrInvalidPhase, s.Phase)
	}
	s.Phase = PhaseResolvingCard

	actor := s.Current()
	if actor == nil {
		return fmt.Errorf("%w: current turn %q has no player", ErrInvariantViolation, s.CurrentTurn)
	}
	c, err := actor.TakeTop()
	if err != nil {
		return fmt.Errorf("%w: flipped card vanished: %v", ErrInvariantViolation, err)
	}

	rec := &LastReveal{
		CardID:    c.ID,
		Symbol:    c.Symbol,
		TrueStyle: c.TrueStyle,
		By:        actor.ID,
		At:        now,
	}

	if actor.Owns(c) {
		actor.Collect(c)
		rec.Action = ActionCollected
		rec.To = actor.ID
	} else {
		owner := s.Owner(c.TrueStyle)
		if owner == nil {
			return fmt.Errorf("%w: card %s has style %s with no owner", ErrInvariantViolation, c.ID, c.TrueStyle)
		}
		owner.Collect(c)
		rec.Action = ActionTransferred
		rec.To = owner.ID

		var taken card.Card
		var ok bool
		if s.Transfer == TransferTop {
			taken, ok = owner.GiveTop()
		} else {
			taken, ok = owner.GiveRandom(src)
		}
		if ok {
			actor.Receive(taken)
			rec.From = owner.ID
			rec.TransferredCardID = taken.ID
		}
		s.CurrentTurn = owner.ID
	}

	s.LastRevealed = rec
	s.endTurn(now)

	if winner := s.findWinner(); winner != "" {
		s.finish(winner, EndVictory, now)
		return nil
	}
	s.Phase = PhaseWaitingForPlay
	return nil
}

// Reveal é a jogada completa: vira e resolve na mesma transação.
// Com a pilha vazia a vez passa adiante sem revelar nada.
func (s *State) Reveal(playerID string, src card.Source, now time.Time) error {
	if _, err := s.Flip(playerID, now); err != nil {
		if errors.Is(err, ErrEmptyPile) {
			return s.PassEmpty(playerID, now)
		}
		return err
	}
	return s.Resolve(src, now)
}

// PassEmpty passa a vez de um jogador sem cartas na pilha. Evita que a partida trave.
func (s *State) PassEmpty(playerID string, now time.Time) error {
	p, err := s.checkActor(playerID)
	if err != nil {
		return err
	}
	if !p.HasNoMoreMoves() {
		return fmt.Errorf("%w: %s still has %d cards", ErrInvalidPhase, playerID, p.Pile.Size())
	}

	next := s.NextPlayer(playerID)
	s.CurrentTurn = next
	s.LastRevealed = &LastReveal{Action: ActionPassed, By: playerID, To: next, At: now}
	s.endTurn(now)
	return nil
}

// ============================================================================
// Fim de partida e mudanças de sala
// ============================================================================

// ForceEnd encerra a partida fora da regra normal (W.O. ou abandono).
// winnerID vazio encerra sem vencedor.
func (s *State) ForceEnd(winnerID, reason string, now time.Time) error {
	if s.Phase.IsTerminal() {
		return fmt.Errorf("%w: match already over", ErrInvalidPhase)
	}
	if winnerID != "" {
		if _, err := s.Player(winnerID); err != nil {
			return err
		}
	}
	s.Round++
	s.finish(winnerID, reason, now)
	return nil
}

// ReplaceWithBot entrega o assento de um humano desconectado para um bot.
func (s *State) ReplaceWithBot(playerID string) error {
	if s.Phase.IsTerminal() {
		return fmt.Errorf("%w: match already over", ErrInvalidPhase)
	}
	p, err := s.Player(playerID)
	if err != nil {
		return err
	}
	p.IsBot = true
	return nil
}

// MarkResultsReported reivindica o envio das estatísticas. Só uma reivindicação vence.
func (s *State) MarkResultsReported() error {
	if !s.Phase.IsTerminal() {
		return fmt.Errorf("%w: match is not over", ErrInvalidPhase)
	}
	if s.ResultsReported {
		return ErrAlreadyReported
	}
	s.ResultsReported = true
	return nil
}

func (s *State) endTurn(now time.Time) {
	s.Round++
	s.LastAction = now
	s.TurnStartedAt = now
}

func (s *State) finish(winnerID, reason string, now time.Time) {
	s.Phase = PhaseGameOver
	s.Winner = winnerID
	s.EndReason = reason
	s.LastAction = now
}

func (s *State) findWinner() string {
	for _, id := range s.Order {
		if p := s.Players[id]; p != nil && p.WinCondition(s.CardsPerPlayer) {
			return id
		}
	}
	return ""
}
