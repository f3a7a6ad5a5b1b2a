package deck

import (
	"errors"
	"fmt"
	"virada/internal/game/card"

	"github.com/google/uuid"
)

// ErrInvalidConfiguration sinaliza uma sala/baralho que não pode iniciar partida.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// MinPlayers é o mínimo de participantes para montar o baralho.
const MinPlayers = 2

// Seat é um participante na ordem da sala com o estilo escolhido.
type Seat struct {
	PlayerID string
	Style    card.Style
}

// IDFunc gera ids únicos de carta.
type IDFunc func() string

// NewID é o gerador padrão (UUID v4).
func NewID() string { return uuid.NewString() }

// Validate confere os assentos antes de qualquer carta ser criada.
func Validate(seats []Seat, cardsPerPlayer int) error {
	if len(seats) < MinPlayers {
		return fmt.Errorf("%w: need at least %d players, got %d", ErrInvalidConfiguration, MinPlayers, len(seats))
	}
	if cardsPerPlayer < 1 {
		return fmt.Errorf("%w: cards per player must be positive, got %d", ErrInvalidConfiguration, cardsPerPlayer)
	}

	players := make(map[string]struct{}, len(seats))
	styles := make(map[card.Style]string, len(seats))
	for i, s := range seats {
		if s.PlayerID == "" {
			return fmt.Errorf("%w: seat %d has no player id", ErrInvalidConfiguration, i)
		}
		if _, dup := players[s.PlayerID]; dup {
			return fmt.Errorf("%w: player %s appears twice", ErrInvalidConfiguration, s.PlayerID)
		}
		players[s.PlayerID] = struct{}{}

		if s.Style == "" {
			return fmt.Errorf("%w: player %s has no style", ErrInvalidConfiguration, s.PlayerID)
		}
		// Dois jogadores com o mesmo estilo tornariam o dono de cada carta ambíguo.
		if other, dup := styles[s.Style]; dup {
			return fmt.Errorf("%w: players %s and %s share style %s", ErrInvalidConfiguration, other, s.PlayerID, s.Style)
		}
		styles[s.Style] = s.PlayerID
	}
	return nil
}

// Build cria cardsPerPlayer cartas ocultas por assento, na ordem dos assentos.
// Nada aqui é aleatório além dos ids; o embaralhamento é feito à parte.
func Build(seats []Seat, cardsPerPlayer int, newID IDFunc) ([]card.Card, error) {
	if err := Validate(seats, cardsPerPlayer); err != nil {
		return nil, err
	}
	if newID == nil {
		newID = NewID
	}

	cards := make([]card.Card, 0, len(seats)*cardsPerPlayer)
	seen := make(map[string]struct{}, cap(cards))
	for _, s := range seats {
		for i := 0; i < cardsPerPlayer; i++ {
			c, err := card.New(newID(), card.SymbolAt(i), s.Style)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
			}
			if _, dup := seen[c.ID]; dup {
				return nil, fmt.Errorf("%w: id generator produced duplicate %s", ErrInvalidConfiguration, c.ID)
			}
			seen[c.ID] = struct{}{}
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// Distribute corta a lista em n fatias contíguas de tamanho per.
// A fatia k vira a pilha do assento k, de baixo para cima.
func Distribute(cards []card.Card, n, per int) ([]card.Pile, error) {
	if n < 1 || per < 1 || len(cards) != n*per {
		return nil, fmt.Errorf("%w: cannot split %d cards into %d piles of %d", ErrInvalidConfiguration, len(cards), n, per)
	}

	piles := make([]card.Pile, n)
	for k := 0; k < n; k++ {
		slice := cards[k*per : (k+1)*per]
		pile := make(card.Pile, per)
		copy(pile, slice)
		piles[k] = pile
	}
	return piles, nil
}
