package message

import (
	"fmt"
	"virada/internal/game/match"
	"virada/internal/network"
)

// MessageSender é qualquer coisa que aceita uma mensagem de saída (ex: *network.Client).
type MessageSender interface {
	Send(msg network.Message) bool
}

func SendError(sender MessageSender, format string, args ...interface{}) {
	sender.Send(CreateErrorResponse(fmt.Sprintf(format, args...)))
}

func SendNotice(sender MessageSender, format string, args ...interface{}) {
	sender.Send(CreateNotice(fmt.Sprintf(format, args...)))
}

func SendState(sender MessageSender, st *match.State) bool {
	return sender.Send(CreateMatchState(st))
}
