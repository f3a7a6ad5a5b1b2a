// START OF FILE virada/internal/services/gameroom/room.go
package gameroom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"virada/internal/game/deck"
	"virada/internal/game/match"
	"virada/internal/services/stats"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// actionTimeout limita as transações disparadas por timers (bot, relógio, flip).
const actionTimeout = 10 * time.Second

// Espera entre novas tentativas de uma jogada automática que falhou no store.
var (
	retryBase = 100 * time.Millisecond
	retryMax  = 5 * time.Second
)

// StatePublisher recebe cada retrato observado. *bus.Bus satisfaz.
type StatePublisher interface {
	PublishState(s *match.State) error
}

// Options são as dependências comuns a todas as salas.
type Options struct {
	Rules     match.Rules
	Recorder  stats.Recorder
	Publisher StatePublisher
	Logger    logrus.FieldLogger
	Rand      *Rand
	Now       func() time.Time
	NewCardID deck.IDFunc
}

func (o Options) withDefaults() Options {
	if o.Rules.CardsPerPlayer == 0 {
		o.Rules = match.DefaultRules()
	}
	if o.Recorder == nil {
		o.Recorder = stats.NewMemory()
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Rand == nil {
		o.Rand = newTimeSeededRand()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewCardID == nil {
		o.NewCardID = deck.NewID
	}
	return o
}

// GameRoom é o controlador do ciclo de vida de uma partida.
// Não guarda estado mutável próprio: tudo passa pelo Applier, e o que ele sabe
// da partida vem do Watch do store.
type GameRoom struct {
	ID      string
	applier *Applier
	opts    Options
	log     logrus.FieldLogger

	mu        sync.Mutex
	room      match.Room
	latest    *match.State
	subs      map[int]chan *match.State
	nextSub   int
	closed    bool
	runCancel context.CancelFunc
	flipTimer *time.Timer
	flipRound int
	flipArmed bool
	retries   map[int]*time.Timer
	nextRetry int

	bot      *BotDriver
	clock    *TurnClock
	finished atomic.Bool
	done     chan struct{}
}

func NewGameRoom(id string, room match.Room, applier *Applier, opts Options) *GameRoom {
	opts = opts.withDefaults()
	room.ID = id
	gr := &GameRoom{
		ID:      id,
		applier: applier,
		opts:    opts,
		log:     opts.Logger.WithFields(logrus.Fields{"component": "GameRoom", "match": id}),
		room:    room,
		subs:    make(map[int]chan *match.State),
		retries: make(map[int]*time.Timer),
		done:    make(chan struct{}),
	}
	gr.bot = NewBotDriver(opts.Rand, opts.Rules.BotDelayMin, opts.Rules.BotDelayMax, gr.botMove)
	gr.clock = NewTurnClock(gr.turnExpired)
	return gr
}

// Run acompanha o documento da partida até ela acabar, ser removida ou ctx terminar.
func (gr *GameRoom) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gr.mu.Lock()
	if gr.closed {
		gr.mu.Unlock()
		return nil
	}
	gr.runCancel = cancel
	gr.mu.Unlock()

	states, err := gr.applier.Watch(ctx, gr.ID)
	if err != nil {
		gr.shutdown()
		return fmt.Errorf("watch match %s: %w", gr.ID, err)
	}
	gr.log.Info("[GameRoom] Goroutine starting, watching match document.")
	defer gr.log.Info("[GameRoom] Goroutine stopped.")

	for {
		select {
		case <-ctx.Done():
			gr.shutdown()
			return nil
		case st, ok := <-states:
			if !ok {
				gr.shutdown()
				return nil
			}
			if st == nil {
				gr.log.Info("[GameRoom] Match document removed, tearing down.")
				gr.shutdown()
				return nil
			}
			if gr.onSnapshot(ctx, st) {
				gr.shutdown()
				return nil
			}
		}
	}
}

// --- MÉTODOS PARA INTERAÇÃO EXTERNA ---

// InitializeMatch cria a partida a partir da sala. Chamadas repetidas não mudam nada
// e devolvem o estado atual.
func (gr *GameRoom) InitializeMatch(ctx context.Context) (*match.State, error) {
	room := gr.Room()
	st, err := gr.applier.Create(ctx, gr.ID, func(s *match.State) error {
		return s.Initialize(room, gr.opts.Rules, gr.opts.Rand, gr.opts.NewCardID, gr.opts.Now())
	})
	if errors.Is(err, ErrTransactionConflict) {
		gr.log.Debug("[GameRoom] Match already initialized, ignoring.")
		cur, _, lerr := gr.applier.Load(ctx, gr.ID)
		return cur, lerr
	}
	if err != nil {
		return nil, err
	}
	gr.log.WithField("first", st.CurrentTurn).Info("[GameRoom] Match initialized.")
	return st, nil
}

// RequestReveal é a jogada do jogador da vez.
func (gr *GameRoom) RequestReveal(ctx context.Context, playerID string) (*match.State, error) {
	return gr.applier.Apply(ctx, gr.ID, gr.revealMutator(playerID, nil))
}

// ForceEndAsWin encerra a partida dando a vitória a playerID (W.O.).
func (gr *GameRoom) ForceEndAsWin(ctx context.Context, playerID string) (*match.State, error) {
	st, err := gr.applier.Apply(ctx, gr.ID, func(s *match.State) error {
		return s.ForceEnd(playerID, match.EndForfeit, gr.opts.Now())
	})
	if err == nil {
		gr.log.WithField("winner", playerID).Info("[GameRoom] Match ended by forfeit claim.")
	}
	return st, err
}

// ReplaceWithBot passa o assento de um humano para o bot.
func (gr *GameRoom) ReplaceWithBot(ctx context.Context, playerID string) (*match.State, error) {
	st, err := gr.applier.Apply(ctx, gr.ID, func(s *match.State) error {
		return s.ReplaceWithBot(playerID)
	})
	if err != nil {
		return nil, err
	}

	gr.mu.Lock()
	for i := range gr.room.Participants {
		if gr.room.Participants[i].ID == playerID {
			gr.room.Participants[i].IsBot = true
		}
	}
	gr.mu.Unlock()
	gr.log.WithField("player", playerID).Info("[GameRoom] Seat handed over to a bot.")
	return st, nil
}

// RoomChanged recebe a nova lista de participantes da sala.
// Sala vazia ou só com bots: a partida é apagada. Alguém saiu no meio: abandono.
func (gr *GameRoom) RoomChanged(ctx context.Context, room match.Room) error {
	room.ID = gr.ID
	gr.mu.Lock()
	gr.room = room
	gr.mu.Unlock()

	if len(room.Participants) == 0 || room.Humans() == 0 {
		gr.log.Info("[GameRoom] Room emptied, deleting match.")
		return gr.teardown(ctx, true)
	}

	st, _, err := gr.applier.Load(ctx, gr.ID)
	if err != nil {
		return err
	}
	if !st.Phase.IsRunning() {
		return nil
	}

	left := ""
	for _, id := range st.Order {
		if !room.Has(id) {
			left = id
			break
		}
	}
	if left == "" {
		return nil
	}

	gr.log.WithField("player", left).Warn("[GameRoom] Participant left mid-match, abandoning.")
	for attempt := 0; attempt < 3; attempt++ {
		_, err = gr.applier.Apply(ctx, gr.ID, func(s *match.State) error {
			return s.ForceEnd("", match.EndAbandoned, gr.opts.Now())
		})
		if !errors.Is(err, ErrTransactionConflict) {
			break
		}
	}
	if errors.Is(err, match.ErrInvalidPhase) {
		return nil
	}
	return err
}

// Subscribe devolve um canal com o retrato mais recente a cada mudança e a função que cancela.
// Quem assina recebe cópias; o canal é fechado quando a sala termina.
func (gr *GameRoom) Subscribe() (<-chan *match.State, func()) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	ch := make(chan *match.State, 1)
	if gr.closed {
		if gr.latest != nil {
			ch <- gr.latest.Clone()
		}
		close(ch)
		return ch, func() {}
	}

	id := gr.nextSub
	gr.nextSub++
	gr.subs[id] = ch
	if gr.latest != nil {
		ch <- gr.latest.Clone()
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			gr.mu.Lock()
			defer gr.mu.Unlock()
			if c, ok := gr.subs[id]; ok {
				delete(gr.subs, id)
				close(c)
			}
		})
	}
}

// Snapshot é o último retrato observado; nil antes do primeiro.
func (gr *GameRoom) Snapshot() *match.State {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	return gr.latest.Clone()
}

func (gr *GameRoom) Room() match.Room {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	room := gr.room
	room.Participants = append([]match.Participant(nil), gr.room.Participants...)
	return room
}

// IsFinished é verdadeiro depois do fim da partida ou do encerramento da sala.
func (gr *GameRoom) IsFinished() bool {
	return gr.finished.Load()
}

// Done é fechado quando a sala libera timers e assinaturas.
func (gr *GameRoom) Done() <-chan struct{} {
	return gr.done
}

// Close encerra a sala sem apagar o documento.
func (gr *GameRoom) Close() error {
	return gr.teardown(context.Background(), false)
}

func (gr *GameRoom) teardown(ctx context.Context, deleteDoc bool) error {
	var result *multierror.Error
	if deleteDoc {
		if err := gr.applier.Delete(ctx, gr.ID); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete match %s: %w", gr.ID, err))
		}
	}
	gr.shutdown()
	return result.ErrorOrNil()
}

// shutdown libera timers, o Watch e os assinantes. Pode ser chamado mais de uma vez.
func (gr *GameRoom) shutdown() {
	gr.mu.Lock()
	if gr.closed {
		gr.mu.Unlock()
		return
	}
	gr.closed = true
	gr.finished.Store(true)
	gr.stopFlipLocked()
	for id, t := range gr.retries {
		t.Stop()
		delete(gr.retries, id)
	}
	cancel := gr.runCancel
	for id, ch := range gr.subs {
		delete(gr.subs, id)
		close(ch)
	}
	gr.mu.Unlock()

	gr.bot.Stop()
	gr.clock.Disarm()
	if cancel != nil {
		cancel()
	}
	close(gr.done)
}
