// START OF FILE virada/internal/services/gameroom/room_logic.go
package gameroom

import (
	"context"
	"errors"
	"fmt"
	"time"
	"virada/internal/game/match"
	"virada/internal/services/stats"
	"virada/internal/store"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ============================================================================
// Reação a cada retrato
// ============================================================================

// onSnapshot repassa o retrato e decide o que a sala precisa agendar.
// Devolve true quando a sala pode encerrar.
func (gr *GameRoom) onSnapshot(ctx context.Context, st *match.State) bool {
	gr.mu.Lock()
	gr.latest = st
	for _, ch := range gr.subs {
		offerState(ch, st.Clone())
	}
	gr.mu.Unlock()
	gr.publish(st)

	switch st.Phase {
	case match.PhaseGameOver:
		gr.stopTimers()
		gr.finished.Store(true)
		if st.ResultsReported {
			return true
		}
		return gr.claimResults(ctx)

	case match.PhaseWaitingForPlay:
		gr.stopFlip()
		cur := st.Current()
		if cur == nil {
			return false
		}
		if cur.HasNoMoreMoves() {
			gr.bot.Stop()
			gr.clock.Disarm()
			gr.passEmpty(cur.ID, st.Round)
			return false
		}

		gr.bot.Consider(st)
		if !cur.IsBot && gr.opts.Rules.TurnTimeout > 0 {
			remaining := gr.opts.Rules.TurnTimeout - gr.opts.Now().Sub(st.TurnStartedAt)
			gr.clock.Arm(cur.ID, st.Round, remaining)
		} else {
			gr.clock.Disarm()
		}

	case match.PhaseFlippingCard:
		gr.bot.Stop()
		gr.clock.Disarm()
		gr.armFlip(st.Round, gr.opts.Rules.FlipDelay-gr.opts.Now().Sub(st.LastAction))
	}
	return false
}

// claimResults reivindica o envio das estatísticas pelo store. Só quem grava
// ResultsReported envia, então cada participante é informado uma vez só.
func (gr *GameRoom) claimResults(ctx context.Context) bool {
	claimed, err := gr.applier.Apply(ctx, gr.ID, func(s *match.State) error {
		return s.MarkResultsReported()
	})
	switch {
	case err == nil:
		if rerr := gr.reportResults(ctx, claimed); rerr != nil {
			gr.log.WithError(rerr).Error("[GameRoom] Failed to report some match results.")
		}
		return true
	case errors.Is(err, ErrTransactionConflict):
		// Outro controlador mexeu primeiro; o próximo retrato diz quem ficou com o envio.
		return false
	case errors.Is(err, match.ErrAlreadyReported):
		return true
	default:
		gr.log.WithError(err).Error("[GameRoom] Could not claim result reporting.")
		return true
	}
}

func (gr *GameRoom) reportResults(ctx context.Context, st *match.State) error {
	var result *multierror.Error
	for _, id := range st.Order {
		r := stats.Result{
			MatchID:        st.MatchID,
			PlayerID:       id,
			Won:            id == st.Winner,
			CardsCollected: st.Score(id),
			At:             gr.opts.Now(),
		}
		if err := gr.opts.Recorder.ReportMatchResult(ctx, r); err != nil {
			result = multierror.Append(result, fmt.Errorf("player %s: %w", id, err))
		}
	}
	gr.log.WithFields(logrus.Fields{
		"winner": st.Winner,
		"reason": st.EndReason,
	}).Info("[GameRoom] Match over, results reported.")
	return result.ErrorOrNil()
}

func (gr *GameRoom) publish(st *match.State) {
	if gr.opts.Publisher == nil {
		return
	}
	if err := gr.opts.Publisher.PublishState(st); err != nil {
		gr.log.WithError(err).Warn("[GameRoom] Failed to publish state.")
	}
}

// ============================================================================
// Jogadas
// ============================================================================

// revealMutator monta a transação de "revelar o topo". Com round != nil a jogada
// foi agendada e só vale se ainda for a mesma vez.
func (gr *GameRoom) revealMutator(playerID string, round *int) Mutator {
	return func(s *match.State) error {
		if round != nil {
			if err := s.ExpectTurn(playerID, *round); err != nil {
				return err
			}
		}
		now := gr.opts.Now()
		if gr.opts.Rules.FlipDelay <= 0 {
			return s.Reveal(playerID, gr.opts.Rand, now)
		}
		_, err := s.Flip(playerID, now)
		if errors.Is(err, match.ErrEmptyPile) {
			return s.PassEmpty(playerID, now)
		}
		return err
	}
}

// botMove é chamado pelo BotDriver quando o tempo de pensar acaba.
func (gr *GameRoom) botMove(bot string, round int) {
	gr.scheduled("bot move", bot, gr.revealMutator(bot, &round))
}

// turnExpired joga pelo humano que deixou o tempo acabar.
func (gr *GameRoom) turnExpired(playerID string, round int) {
	gr.log.WithField("player", playerID).Info("[GameRoom] Turn timed out, auto-playing.")
	gr.scheduled("auto play", playerID, gr.revealMutator(playerID, &round))
}

func (gr *GameRoom) passEmpty(playerID string, round int) {
	gr.scheduled("empty pile pass", playerID, func(s *match.State) error {
		if err := s.ExpectTurn(playerID, round); err != nil {
			return err
		}
		return s.PassEmpty(playerID, gr.opts.Now())
	})
}

func (gr *GameRoom) resolveFlip(round int) {
	gr.scheduled("resolve", "", func(s *match.State) error {
		if s.Phase != match.PhaseFlippingCard || s.Round != round {
			return fmt.Errorf("%w: nothing to resolve for round %d", match.ErrStaleTurn, round)
		}
		return s.Resolve(gr.opts.Rand, gr.opts.Now())
	})
}

// scheduled aplica uma jogada automática. Conflito não precisa de nova tentativa:
// quem ganhou a corrida gera um retrato novo e ele reagenda o que faltar.
// Falha do store não gera retrato, então a jogada volta depois de um intervalo.
func (gr *GameRoom) scheduled(what, playerID string, mut Mutator) {
	gr.attempt(what, playerID, mut, 0)
}

func (gr *GameRoom) attempt(what, playerID string, mut Mutator, failures int) {
	if gr.IsFinished() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	_, err := gr.applier.Apply(ctx, gr.ID, mut)
	if gr.logOutcome(what, playerID, err) {
		gr.retryLater(what, playerID, mut, failures+1)
	}
}

// retryLater reagenda a jogada com espera dobrando a cada falha, até retryMax.
// A jogada confere a rodada na transação, então repetir uma que ficou velha não muda nada.
func (gr *GameRoom) retryLater(what, playerID string, mut Mutator, failures int) {
	delay := retryBase
	for i := 1; i < failures && delay < retryMax; i++ {
		delay *= 2
	}
	delay = min(delay, retryMax)

	gr.mu.Lock()
	defer gr.mu.Unlock()
	if gr.closed {
		return
	}
	id := gr.nextRetry
	gr.nextRetry++
	gr.retries[id] = time.AfterFunc(delay, func() {
		gr.mu.Lock()
		delete(gr.retries, id)
		gr.mu.Unlock()
		gr.attempt(what, playerID, mut, failures)
	})
}

// logOutcome registra o resultado de uma jogada automática e diz se vale tentar de novo.
// Conflitos e vezes vencidas são esperados e não são erro.
func (gr *GameRoom) logOutcome(what, playerID string, err error) bool {
	log := gr.log.WithFields(logrus.Fields{"action": what, "player": playerID})
	switch {
	case err == nil:
		log.Debug("[GameRoom] Scheduled action committed.")
	case errors.Is(err, ErrTransactionConflict), match.IsRejection(err), errors.Is(err, ErrRoomGone):
		log.WithError(err).Debug("[GameRoom] Scheduled action dropped.")
	case !retryable(err):
		log.WithError(err).Error("[GameRoom] Scheduled action failed.")
	default:
		log.WithError(err).Warn("[GameRoom] Scheduled action failed, retrying.")
		return true
	}
	return false
}

// retryable separa falhas de infraestrutura das recusas de regra, que se repetiriam iguais.
func retryable(err error) bool {
	switch {
	case errors.Is(err, match.ErrInvariantViolation),
		errors.Is(err, match.ErrUnknownPlayer),
		errors.Is(err, match.ErrAlreadyReported),
		errors.Is(err, store.ErrClosed):
		return false
	}
	return true
}

// ============================================================================
// Timers
// ============================================================================

func (gr *GameRoom) armFlip(round int, remaining time.Duration) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	if gr.closed || (gr.flipArmed && gr.flipRound == round) {
		return
	}
	gr.stopFlipLocked()
	if remaining < 0 {
		remaining = 0
	}
	gr.flipRound = round
	gr.flipArmed = true
	gr.flipTimer = time.AfterFunc(remaining, func() {
		// Desarmado antes de resolver: se a transação perder a corrida, o próximo
		// retrato na mesma rodada arma de novo.
		gr.mu.Lock()
		if gr.flipArmed && gr.flipRound == round {
			gr.flipArmed = false
			gr.flipTimer = nil
		}
		gr.mu.Unlock()
		gr.resolveFlip(round)
	})
}

func (gr *GameRoom) stopFlip() {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	gr.stopFlipLocked()
}

func (gr *GameRoom) stopFlipLocked() {
	if gr.flipTimer != nil {
		gr.flipTimer.Stop()
		gr.flipTimer = nil
	}
	gr.flipArmed = false
}

func (gr *GameRoom) stopTimers() {
	gr.bot.Stop()
	gr.clock.Disarm()
	gr.stopFlip()
}

// offerState entrega o retrato mais recente sem bloquear; um retrato não lido é substituído.
func offerState(ch chan *match.State, st *match.State) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}
