package session

import (
	"context"
	"errors"
	"virada/internal/game/match"
	"virada/internal/network"
	"virada/internal/services/gameroom"
	"virada/internal/session/message"
)

// registerMatchHandlers popula o roteador com os comandos de partida.
func (h *GameHandler) registerMatchHandlers() {
	h.router[message.CmdSubscribe] = handleSubscribe
	h.router[message.CmdUnsubscribe] = handleUnsubscribe
	h.router[message.CmdReveal] = handleReveal
	h.router[message.CmdForfeit] = handleForfeit
	h.router[message.CmdBot] = handleBot
}

func handleSubscribe(ctx context.Context, h *GameHandler, s *PlayerSession, msg network.Message) {
	var req message.SubscribeRequest
	if err := msg.Decode(&req); err != nil || req.MatchID == "" {
		message.SendError(s.Client, "Invalid payload: 'matchId' is required.")
		return
	}

	st, err := h.rooms.Load(ctx, req.MatchID)
	if errors.Is(err, gameroom.ErrRoomGone) {
		message.SendError(s.Client, "match %s not found", req.MatchID)
		return
	}
	if err != nil {
		respond(s, err)
		return
	}
	if req.PlayerID != "" {
		if _, err := st.Player(req.PlayerID); err != nil {
			respond(s, err)
			return
		}
	}

	if st.Phase.IsTerminal() {
		s.bind(req.MatchID, req.PlayerID, nil)
		s.Client.Send(message.CreateSubscribed(req.MatchID, req.PlayerID))
		message.SendState(s.Client, st)
		message.SendNotice(s.Client, "match is over")
		return
	}

	gr, err := h.rooms.Lookup(ctx, req.MatchID)
	if err != nil {
		respond(s, err)
		return
	}
	states, cancel := gr.Subscribe()
	s.bind(req.MatchID, req.PlayerID, cancel)
	s.Client.Send(message.CreateSubscribed(req.MatchID, req.PlayerID))
	go func() {
		for st := range states {
			message.SendState(s.Client, st)
		}
	}()
}

func handleUnsubscribe(_ context.Context, _ *GameHandler, s *PlayerSession, _ network.Message) {
	s.unbind()
}

// seat devolve a sala e o jogador da sessão, ou avisa o cliente e devolve nil.
func seat(ctx context.Context, h *GameHandler, s *PlayerSession) (*gameroom.GameRoom, string) {
	matchID, playerID := s.Binding()
	if matchID == "" || playerID == "" {
		message.SendError(s.Client, "subscribe to a match as a player first")
		return nil, ""
	}
	gr, err := h.rooms.Lookup(ctx, matchID)
	if err != nil {
		respond(s, err)
		return nil, ""
	}
	return gr, playerID
}

func handleReveal(ctx context.Context, h *GameHandler, s *PlayerSession, _ network.Message) {
	gr, playerID := seat(ctx, h, s)
	if gr == nil {
		return
	}
	_, err := gr.RequestReveal(ctx, playerID)
	respond(s, err)
}

// handleForfeit: quem envia desiste e o adversário vence.
func handleForfeit(ctx context.Context, h *GameHandler, s *PlayerSession, _ network.Message) {
	gr, playerID := seat(ctx, h, s)
	if gr == nil {
		return
	}
	st, err := h.rooms.Load(ctx, gr.ID)
	if err != nil {
		respond(s, err)
		return
	}
	if !st.Phase.IsRunning() {
		respond(s, match.ErrInvalidPhase)
		return
	}
	_, err = gr.ForceEndAsWin(ctx, st.NextPlayer(playerID))
	respond(s, err)
}

// handleBot entrega o assento a um bot; a conexão continua assistindo.
func handleBot(ctx context.Context, h *GameHandler, s *PlayerSession, _ network.Message) {
	gr, playerID := seat(ctx, h, s)
	if gr == nil {
		return
	}
	if _, err := gr.ReplaceWithBot(ctx, playerID); err != nil {
		respond(s, err)
		return
	}
	s.spectate()
	message.SendNotice(s.Client, "a bot is playing for you now")
}
