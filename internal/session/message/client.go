package message

// Mensagens no sentido servidor -> cliente.
import (
	"virada/internal/game/match"
	"virada/internal/network"
)

const (
	TypeMatchState = "MATCH_STATE"
	TypeSubscribed = "SUBSCRIBED"
	TypeNotice     = "NOTICE"
	TypeError      = "ERROR"
)

// SubscribedPayload confirma a assinatura. PlayerID vazio é espectador.
type SubscribedPayload struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId,omitempty"`
}

// NoticePayload é um aviso transitório (não é sua vez, conflito); o cliente só mostra.
type NoticePayload struct {
	Message string `json:"message"`
}

type ErrorClientPayload struct {
	Error string `json:"error"`
}

func CreateMatchState(st *match.State) network.Message {
	msg, err := network.NewMessage(TypeMatchState, st)
	if err != nil {
		return CreateErrorResponse(err.Error())
	}
	return msg
}

func CreateSubscribed(matchID, playerID string) network.Message {
	msg, _ := network.NewMessage(TypeSubscribed, SubscribedPayload{MatchID: matchID, PlayerID: playerID})
	return msg
}

func CreateNotice(text string) network.Message {
	msg, _ := network.NewMessage(TypeNotice, NoticePayload{Message: text})
	return msg
}

func CreateErrorResponse(errorMsg string) network.Message {
	msg, _ := network.NewMessage(TypeError, ErrorClientPayload{Error: errorMsg})
	return msg
}
