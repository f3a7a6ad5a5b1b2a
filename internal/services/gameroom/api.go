// START OF FILE virada/internal/services/gameroom/api.go
package gameroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"virada/internal/game/match"

	"github.com/sirupsen/logrus"
)

// ============================================================================
// DTOs da API
// ============================================================================

// CreateMatchResponse é o que este serviço devolve ao criar a partida.
type CreateMatchResponse struct {
	MatchID     string       `json:"matchId"`
	ServiceAddr string       `json:"serviceAddr"` // Endereço deste serviço de partidas
	State       *match.State `json:"state"`
}

// PlayerActionRequest serve para /reveal e /bot.
type PlayerActionRequest struct {
	PlayerID string `json:"playerId"`
}

// ForfeitRequest é o pedido de vitória por W.O.
type ForfeitRequest struct {
	WinnerID string `json:"winnerId"`
}

// ErrorResponse carrega o erro. Notice é verdadeiro para recusas transitórias
// (não é sua vez, fase errada), que o cliente só mostra como aviso.
type ErrorResponse struct {
	Error  string `json:"error"`
	Notice bool   `json:"notice,omitempty"`
}

// ============================================================================
// Configuração dos Handlers
// ============================================================================

// RegisterHandlers configura todas as rotas da API de partidas.
func RegisterHandlers(mux *http.ServeMux, rm *RoomManager, advertiseAddr string, port int, log logrus.FieldLogger) {
	log = log.WithField("component", "MatchAPI")
	if advertiseAddr == "" {
		// Sem o endereço anunciado, os clientes não sabem onde abrir o websocket.
		log.Error("CRITICAL: SERVICE_ADVERTISED_HOSTNAME is not set!")
		advertiseAddr = "address-not-configured"
	}

	// Handler para criar novas partidas.
	mux.HandleFunc("/matches", handleCreateMatch(rm, fmt.Sprintf("%s:%d", advertiseAddr, port), log))

	// Handler "coringa" para ações em partidas existentes (ex: /matches/{id}/reveal).
	mux.HandleFunc("/matches/", handleMatchAction(rm, log))
}

// ============================================================================
// Implementação dos Handlers
// ============================================================================

// handleCreateMatch lida com POST /matches.
func handleCreateMatch(rm *RoomManager, serviceAddr string, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
			return
		}

		var room match.Room
		if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid payload: expected a room snapshot"})
			return
		}

		gr, st, err := rm.CreateRoom(r.Context(), room)
		if err != nil {
			log.WithError(err).WithField("room", room.ID).Warn("[handleCreateMatch] Failed to create match")
			writeError(w, err)
			return
		}

		log.WithField("match", gr.ID).Info("[handleCreateMatch] Match created")
		writeJSON(w, http.StatusCreated, CreateMatchResponse{
			MatchID:     gr.ID,
			ServiceAddr: serviceAddr,
			State:       st,
		})
	}
}

// handleMatchAction é um roteador para ações em partidas existentes.
func handleMatchAction(rm *RoomManager, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Ex: /matches/uuid-123/reveal -> ["uuid-123", "reveal"]
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/matches/"), "/"), "/")
		if len(parts) < 1 || parts[0] == "" || len(parts) > 2 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Malformed URL, expecting /matches/{id}/{action}"})
			return
		}
		matchID := parts[0]

		if len(parts) == 1 {
			if r.Method != http.MethodGet {
				writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Use GET for /matches/{id}"})
				return
			}
			handleGetMatch(w, r, rm, matchID)
			return
		}

		action := parts[1]
		method := http.MethodPost
		if action == "room" {
			method = http.MethodPut
		}
		if r.Method != method {
			writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: fmt.Sprintf("Use %s for /%s", method, action)})
			return
		}

		if action == "room" {
			handleRoomChanged(w, r, rm, matchID)
			return
		}

		gr, err := rm.Lookup(r.Context(), matchID)
		if errors.Is(err, ErrRoomGone) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Match not found"})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		var st *match.State
		switch action {
		case "reveal":
			var req PlayerActionRequest
			if !decodeBody(w, r, &req) {
				return
			}
			st, err = gr.RequestReveal(r.Context(), req.PlayerID)
		case "forfeit":
			var req ForfeitRequest
			if !decodeBody(w, r, &req) {
				return
			}
			st, err = gr.ForceEndAsWin(r.Context(), req.WinnerID)
		case "bot":
			var req PlayerActionRequest
			if !decodeBody(w, r, &req) {
				return
			}
			st, err = gr.ReplaceWithBot(r.Context(), req.PlayerID)
		default:
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Unknown match action"})
			return
		}

		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{"match": matchID, "action": action}).Debug("[handleMatchAction] Action not applied")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// handleRoomChanged lida com PUT /matches/{id}/room. Vale também para partidas já
// encerradas, para que o lobby consiga apagá-las ao desmontar a sala.
func handleRoomChanged(w http.ResponseWriter, r *http.Request, rm *RoomManager, matchID string) {
	var room match.Room
	if !decodeBody(w, r, &room) {
		return
	}
	err := rm.RoomChanged(r.Context(), matchID, room)
	switch {
	case errors.Is(err, ErrRoomGone):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Match not found"})
	case err != nil:
		writeError(w, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleGetMatch devolve o retrato local ou, se a sala não está neste processo, o do store.
func handleGetMatch(w http.ResponseWriter, r *http.Request, rm *RoomManager, matchID string) {
	st, err := rm.Load(r.Context(), matchID)
	if errors.Is(err, ErrRoomGone) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Match not found"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid payload"})
		return false
	}
	return true
}

// StatusFor traduz os erros das partidas em status HTTP.
// Conflito não é erro para o usuário: 202 e o próximo retrato traz o estado certo.
func StatusFor(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrTransactionConflict):
		return http.StatusAccepted, ErrorResponse{Error: err.Error(), Notice: true}
	case match.IsRejection(err):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Notice: true}
	case errors.Is(err, match.ErrInvalidConfiguration):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, match.ErrUnknownPlayer):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, ErrRoomGone):
		return http.StatusGone, ErrorResponse{Error: "match ended"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error()}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := StatusFor(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
