// START OF FILE virada/internal/network/server.go
package network

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server promove conexões HTTP para websocket e as entrega ao Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewServer(handler EventHandler, log logrus.FieldLogger) *Server {
	return &Server{
		hub: NewHub(handler, log),
		upgrader: websocket.Upgrader{
			// Qualquer origem: o serviço fica atrás do gateway.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log.WithField("component", "WebSocketServer"),
	}
}

// Run mantém o Hub vivo até ctx terminar.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Handler é o ponto de entrada das conexões (montado em /ws).
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.WithError(err).Warn("[WebSocketServer] Upgrade failed")
			return
		}

		client := newClient(conn, s.hub)
		select {
		case s.hub.register <- client:
		case <-s.hub.done:
			conn.Close()
			return
		}

		go client.writeLoop()
		go client.readLoop()
	}
}
