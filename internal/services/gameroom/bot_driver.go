package gameroom

import (
	"sync"
	"time"
	"virada/internal/game/match"
)

// BotDriver agenda a jogada dos assentos controlados por bot, no máximo uma por partida.
// O agendamento é por (bot, rodada): um retrato novo com outra chave substitui o pendente.
type BotDriver struct {
	mu       sync.Mutex
	rand     *Rand
	min, max time.Duration
	timer    *time.Timer
	key      turnKey
	pending  bool
	act      func(bot string, round int)
}

func NewBotDriver(r *Rand, min, max time.Duration, act func(bot string, round int)) *BotDriver {
	return &BotDriver{rand: r, min: min, max: max, act: act}
}

// Consider olha o retrato e agenda, mantém ou cancela a jogada do bot.
func (b *BotDriver) Consider(s *match.State) {
	if s == nil || s.Phase != match.PhaseWaitingForPlay || !s.IsBot(s.CurrentTurn) {
		b.Stop()
		return
	}
	key := turnKey{player: s.CurrentTurn, round: s.Round}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending && b.key == key {
		return
	}
	b.stopLocked()

	// Tempo de "pensar" do bot.
	delay := b.rand.Between(b.min, b.max)
	b.key = key
	b.pending = true
	b.timer = time.AfterFunc(delay, func() { b.fire(key) })
}

// Pending informa o agendamento atual.
func (b *BotDriver) Pending() (string, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key.player, b.key.round, b.pending
}

func (b *BotDriver) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *BotDriver) fire(key turnKey) {
	b.mu.Lock()
	if !b.pending || b.key != key {
		b.mu.Unlock()
		return
	}
	b.pending = false
	b.timer = nil
	b.mu.Unlock()

	b.act(key.player, key.round)
}

func (b *BotDriver) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = false
}
