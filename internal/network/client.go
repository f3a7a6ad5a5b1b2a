package network

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Tempo para aguardar por uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo para aguardar o pong do cliente.
	pongWait = 60 * time.Second

	// Frequência dos pings. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
)

// Client é um jogador conectado, do ponto de vista do servidor.
type Client struct {
	ID   string
	conn *websocket.Conn
	hub  *Hub
	log  logrus.FieldLogger

	mu     sync.Mutex
	send   chan Message
	closed bool
}

func newClient(conn *websocket.Conn, hub *Hub) *Client {
	id := uuid.NewString()
	return &Client{
		ID:   id,
		conn: conn,
		hub:  hub,
		log:  hub.log.WithField("client", id),
		send: make(chan Message, sendBuffer),
	}
}

// RemoteAddr é o endereço do outro lado, para logs.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send enfileira uma mensagem sem bloquear. Devolve false se o cliente já saiu
// ou se está tão lento que o buffer encheu; nesse caso a mensagem é descartada.
func (c *Client) Send(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.WithField("type", msg.Type).Warn("[Client] Send buffer full, dropping message")
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("[Client] Unexpected close")
			}
			return
		}
		select {
		case c.hub.incoming <- clientMessage{client: c, msg: msg}:
		case <-c.hub.done:
			return
		}
	}
}

// writeLoop leva as mensagens do canal send para a conexão e mantém os pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// O Hub fechou o canal: o cliente foi desregistrado.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Warn("[Client] Write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
