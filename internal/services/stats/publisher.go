package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// ResultsSubject é onde cada resultado é publicado.
const ResultsSubject = "virada.stats.results"

// Publisher envia os resultados para o NATS, para consumidores fora deste serviço.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc, subject: ResultsSubject}
}

func (p *Publisher) ReportMatchResult(_ context.Context, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish result for %s: %w", r.PlayerID, err)
	}
	return nil
}
