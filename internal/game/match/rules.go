package match

import (
	"fmt"
	"time"
)

// FirstTurnMode decide quem começa.
type FirstTurnMode string

const (
	FirstTurnRandom FirstTurnMode = "random"
	FirstTurnHost   FirstTurnMode = "host"
)

// TransferMode decide de onde sai a carta tomada do dono na transferência forçada.
type TransferMode string

const (
	TransferRandom TransferMode = "random"
	TransferTop    TransferMode = "top"
)

// Rules reúne as constantes de uma partida.
type Rules struct {
	CardsPerPlayer int
	FirstTurn      FirstTurnMode
	Transfer       TransferMode
	// FlipDelay é a pausa entre virar e resolver. Zero resolve na mesma transação.
	FlipDelay   time.Duration
	TurnTimeout time.Duration
	BotDelayMin time.Duration
	BotDelayMax time.Duration
}

func DefaultRules() Rules {
	return Rules{
		CardsPerPlayer: 10,
		FirstTurn:      FirstTurnRandom,
		Transfer:       TransferRandom,
		FlipDelay:      0,
		TurnTimeout:    30 * time.Second,
		BotDelayMin:    1500 * time.Millisecond,
		BotDelayMax:    3 * time.Second,
	}
}

func (r Rules) Validate() error {
	if r.CardsPerPlayer < 1 {
		return fmt.Errorf("%w: cards per player must be positive", ErrInvalidConfiguration)
	}
	switch r.FirstTurn {
	case FirstTurnRandom, FirstTurnHost:
	default:
		return fmt.Errorf("%w: unknown first turn mode %q", ErrInvalidConfiguration, r.FirstTurn)
	}
	switch r.Transfer {
	case TransferRandom, TransferTop:
	default:
		return fmt.Errorf("%w: unknown transfer mode %q", ErrInvalidConfiguration, r.Transfer)
	}
	if r.FlipDelay < 0 || r.TurnTimeout < 0 || r.BotDelayMin < 0 || r.BotDelayMax < r.BotDelayMin {
		return fmt.Errorf("%w: invalid timings", ErrInvalidConfiguration)
	}
	return nil
}
