package network

import (
	"context"

	"github.com/sirupsen/logrus"
)

// clientMessage empacota a mensagem com o cliente que a enviou.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub mantém o conjunto de clientes ativos e entrega os eventos ao handler.
// O mapa de clientes só é tocado pela goroutine de Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage
	done       chan struct{}
	handler    EventHandler
	log        logrus.FieldLogger
}

func NewHub(handler EventHandler, log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		done:       make(chan struct{}),
		handler:    handler,
		log:        log.WithField("component", "Hub"),
	}
}

// Run processa registros, saídas e mensagens até ctx terminar; então desconecta todos.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.WithField("client", client.ID).Debug("[Hub] Client connected")
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			h.drop(client)

		case cm := <-h.incoming:
			if h.clients[cm.client] {
				h.handler.OnMessage(cm.client, cm.msg)
			}

		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.log.Info("[Hub] Stopped")
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	// Fechar o canal de envio encerra o writeLoop daquele cliente.
	client.closeSend()
	h.log.WithField("client", client.ID).Debug("[Hub] Client disconnected")
	h.handler.OnDisconnect(client)
}
