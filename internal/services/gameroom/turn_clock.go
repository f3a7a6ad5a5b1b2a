package gameroom

import (
	"sync"
	"time"
)

// turnKey identifica uma vez específica: o mesmo jogador em outra rodada é outra vez.
type turnKey struct {
	player string
	round  int
}

// TurnClock mantém no máximo um timer de turno por partida.
// Ao expirar, chama fire com a chave para a qual foi armado; quem recebe deve
// conferir de novo, dentro da transação, se aquela vez ainda vale.
type TurnClock struct {
	mu    sync.Mutex
	timer *time.Timer
	key   turnKey
	armed bool
	fire  func(player string, round int)
}

func NewTurnClock(fire func(player string, round int)) *TurnClock {
	return &TurnClock{fire: fire}
}

// Arm arma o relógio para (player, round). Rearmar com a mesma chave não reinicia a contagem.
func (c *TurnClock) Arm(player string, round int, d time.Duration) {
	key := turnKey{player: player, round: round}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed && c.key == key {
		return
	}
	c.stopLocked()
	if d < 0 {
		d = 0
	}
	c.key = key
	c.armed = true
	c.timer = time.AfterFunc(d, func() { c.expire(key) })
}

// Disarm cancela o timer pendente, se houver.
func (c *TurnClock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Armed informa a chave armada, para testes e logs.
func (c *TurnClock) Armed() (string, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key.player, c.key.round, c.armed
}

func (c *TurnClock) expire(key turnKey) {
	c.mu.Lock()
	if !c.armed || c.key != key {
		c.mu.Unlock()
		return
	}
	c.armed = false
	c.timer = nil
	c.mu.Unlock()

	c.fire(key.player, key.round)
}

func (c *TurnClock) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.armed = false
}
