// Package bus publica os retratos das partidas no NATS.
package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"virada/internal/game/match"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// AllMatches assina o estado de todas as partidas.
const AllMatches = "*"

// StateSubject é o assunto de estado de uma partida.
func StateSubject(matchID string) string {
	return fmt.Sprintf("virada.match.%s.state", matchID)
}

type Bus struct {
	nc  *nats.Conn
	log logrus.FieldLogger
}

// Connect conecta ao NATS com reconexão infinita.
func Connect(url, name string, log logrus.FieldLogger) (*Bus, error) {
	log = log.WithField("component", "Bus")
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("[Bus] Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("[Bus] Reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	log.Infof("[Bus] Connected to %s", nc.ConnectedUrl())
	return &Bus{nc: nc, log: log}, nil
}

// Conn expõe a conexão para quem publica outros assuntos (ex.: resultados).
func (b *Bus) Conn() *nats.Conn { return b.nc }

// PublishState envia o retrato completo da partida.
func (b *Bus) PublishState(s *match.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", s.MatchID, err)
	}
	return b.nc.Publish(StateSubject(s.MatchID), data)
}

// SubscribeState chama fn para cada retrato publicado. matchID pode ser AllMatches.
// Devolve a função que cancela a assinatura.
func (b *Bus) SubscribeState(matchID string, fn func(*match.State)) (func() error, error) {
	sub, err := b.nc.Subscribe(StateSubject(matchID), func(msg *nats.Msg) {
		var s match.State
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			b.log.WithError(err).WithField("subject", msg.Subject).Warn("[Bus] Dropping malformed state")
			return
		}
		fn(&s)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", matchID, err)
	}
	return sub.Unsubscribe, nil
}

// Ping falha se a conexão não está ativa. Usado no health check.
func (b *Bus) Ping() error {
	if !b.nc.IsConnected() {
		return errors.New("nats not connected: " + b.nc.Status().String())
	}
	return nil
}

// Close drena as assinaturas e fecha a conexão.
func (b *Bus) Close() error {
	return b.nc.Drain()
}
