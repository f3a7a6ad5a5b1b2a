package session

import (
	"context"
	"errors"
	"sync"
	"time"
	"virada/internal/network"
	"virada/internal/services/gameroom"
	"virada/internal/session/message"

	"github.com/sirupsen/logrus"
)

// CommandHandlerFunc é a assinatura de todos os comandos vindos do cliente.
type CommandHandlerFunc func(ctx context.Context, h *GameHandler, s *PlayerSession, msg network.Message)

// Options ajusta o comportamento das sessões.
type Options struct {
	// BotOnDisconnect passa o assento para um bot quando a conexão de um jogador cai no meio da partida.
	BotOnDisconnect bool
	ActionTimeout   time.Duration
}

// GameHandler implementa network.EventHandler e encaminha os comandos para as salas.
type GameHandler struct {
	rooms    *gameroom.RoomManager
	opts     Options
	log      logrus.FieldLogger
	sessions map[*network.Client]*PlayerSession // só a goroutine do Hub mexe
	router   map[string]CommandHandlerFunc
	wg       sync.WaitGroup
}

func NewGameHandler(rooms *gameroom.RoomManager, opts Options, log logrus.FieldLogger) *GameHandler {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	h := &GameHandler{
		rooms:    rooms,
		opts:     opts,
		log:      log.WithField("component", "SessionHandler"),
		sessions: make(map[*network.Client]*PlayerSession),
		router:   make(map[string]CommandHandlerFunc),
	}
	h.registerMatchHandlers()
	return h
}

// --- Implementação de network.EventHandler ---

func (h *GameHandler) OnConnect(c *network.Client) {
	s := NewPlayerSession(c)
	h.sessions[c] = s
	h.wg.Add(1)
	go h.serve(s)
	h.log.WithFields(logrus.Fields{"client": c.ID, "sessions": len(h.sessions)}).Info("[SessionHandler] Session created")
}

func (h *GameHandler) OnDisconnect(c *network.Client) {
	s, ok := h.sessions[c]
	if !ok {
		return
	}
	delete(h.sessions, c)
	close(s.inbox)
	h.log.WithFields(logrus.Fields{"client": c.ID, "sessions": len(h.sessions)}).Info("[SessionHandler] Session closed")
}

func (h *GameHandler) OnMessage(c *network.Client, msg network.Message) {
	s, ok := h.sessions[c]
	if !ok {
		return
	}
	if _, known := h.router[msg.Type]; !known {
		message.SendError(c, "unknown command %q", msg.Type)
		return
	}
	select {
	case s.inbox <- msg:
	default:
		message.SendNotice(c, "too many pending commands, %s ignored", msg.Type)
	}
}

// Wait espera as sessões encerradas terminarem o que estava pendente.
func (h *GameHandler) Wait() {
	h.wg.Wait()
}

// serve executa os comandos de uma sessão em ordem e faz a limpeza quando a conexão cai.
func (h *GameHandler) serve(s *PlayerSession) {
	defer h.wg.Done()
	for msg := range s.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.ActionTimeout)
		h.router[msg.Type](ctx, h, s, msg)
		cancel()
	}

	matchID, playerID := s.unbind()
	if !h.opts.BotOnDisconnect || matchID == "" || playerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.ActionTimeout)
	defer cancel()
	h.handOverSeat(ctx, matchID, playerID)
}

func (h *GameHandler) handOverSeat(ctx context.Context, matchID, playerID string) {
	st, err := h.rooms.Load(ctx, matchID)
	if err != nil || !st.Phase.IsRunning() || st.IsBot(playerID) {
		return
	}
	gr, err := h.rooms.Lookup(ctx, matchID)
	if err == nil {
		_, err = gr.ReplaceWithBot(ctx, playerID)
	}
	log := h.log.WithFields(logrus.Fields{"match": matchID, "player": playerID})
	if err != nil {
		log.WithError(err).Warn("[SessionHandler] Could not hand the seat to a bot")
		return
	}
	log.Info("[SessionHandler] Player disconnected, a bot took the seat")
}

// respond traduz o erro de uma ação em NOTICE (transitório) ou ERROR.
// Conflito de transação é descartado: o próximo retrato já mostra o estado certo.
func respond(s *PlayerSession, err error) {
	if err == nil || errors.Is(err, gameroom.ErrTransactionConflict) {
		return
	}
	if errors.Is(err, gameroom.ErrRoomGone) {
		message.SendError(s.Client, "match ended")
		return
	}
	_, body := gameroom.StatusFor(err)
	if body.Notice {
		message.SendNotice(s.Client, "%s", body.Error)
		return
	}
	message.SendError(s.Client, "%s", body.Error)
}
