package match

import (
	"errors"
	"virada/internal/game/deck"
)

// Erros de regra. NotYourTurn, InvalidPhase, EmptyPile e StaleTurn são avisos
// transitórios para o cliente; InvariantViolation é defeito e nunca é gravado.
var (
	ErrInvalidConfiguration = deck.ErrInvalidConfiguration
	ErrNotYourTurn          = errors.New("not your turn")
	ErrInvalidPhase         = errors.New("invalid phase")
	ErrEmptyPile            = errors.New("empty pile")
	ErrUnknownPlayer        = errors.New("unknown player")
	ErrStaleTurn            = errors.New("stale turn")
	ErrAlreadyInitialized   = errors.New("match already initialized")
	ErrAlreadyReported      = errors.New("results already reported")
	ErrInvariantViolation   = errors.New("invariant violation")
)

// IsRejection diz se o erro é uma jogada recusada (não fatal, só um aviso).
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrInvalidPhase) ||
		errors.Is(err, ErrEmptyPile) ||
		errors.Is(err, ErrStaleTurn)
}
