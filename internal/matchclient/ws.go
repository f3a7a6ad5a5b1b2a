package matchclient

import (
	"context"
	"fmt"
	"sync"
	"time"
	"virada/internal/game/match"
	"virada/internal/network"
	"virada/internal/session/message"

	"github.com/gorilla/websocket"
)

// Conn é uma conexão websocket com o serviço de partidas.
// Escritas são serializadas; leia de uma goroutine só.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

func (c *Conn) send(msgType string, payload any) error {
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(msg)
}

func (c *Conn) Subscribe(matchID, playerID string) error {
	return c.send(message.CmdSubscribe, message.SubscribeRequest{MatchID: matchID, PlayerID: playerID})
}

func (c *Conn) Unsubscribe() error { return c.send(message.CmdUnsubscribe, nil) }
func (c *Conn) Reveal() error      { return c.send(message.CmdReveal, nil) }
func (c *Conn) Forfeit() error     { return c.send(message.CmdForfeit, nil) }
func (c *Conn) HandToBot() error   { return c.send(message.CmdBot, nil) }

// Read bloqueia até a próxima mensagem do servidor.
func (c *Conn) Read() (network.Message, error) {
	var msg network.Message
	err := c.ws.ReadJSON(&msg)
	return msg, err
}

// Event é uma mensagem do servidor já decodificada; só um dos campos vem preenchido.
type Event struct {
	Type   string
	State  *match.State
	Text   string
	Failed bool
}

// Next lê e decodifica a próxima mensagem.
func (c *Conn) Next() (Event, error) {
	msg, err := c.Read()
	if err != nil {
		return Event{}, err
	}
	ev := Event{Type: msg.Type}
	switch msg.Type {
	case message.TypeMatchState:
		var st match.State
		if err := msg.Decode(&st); err != nil {
			return ev, err
		}
		ev.State = &st
	case message.TypeNotice:
		var p message.NoticePayload
		_ = msg.Decode(&p)
		ev.Text = p.Message
	case message.TypeError:
		var p message.ErrorClientPayload
		_ = msg.Decode(&p)
		ev.Text, ev.Failed = p.Error, true
	case message.TypeSubscribed:
		var p message.SubscribedPayload
		_ = msg.Decode(&p)
		ev.Text = p.MatchID
	}
	return ev, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.ws.Close()
}
