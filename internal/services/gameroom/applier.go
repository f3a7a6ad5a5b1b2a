package gameroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"virada/internal/game/match"
	"virada/internal/store"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTransactionConflict: o documento mudou entre a leitura e a gravação.
	// Nada foi gravado; o próximo retrato diz se a jogada ainda faz sentido.
	ErrTransactionConflict = errors.New("transaction conflict")
	// ErrRoomGone: a partida não existe mais no store.
	ErrRoomGone = errors.New("room gone")
)

// Mutator altera uma cópia decodificada do estado. Se devolver erro, nada é gravado.
type Mutator func(s *match.State) error

// Applier é o único caminho de escrita do estado das partidas:
// lê, decodifica, aplica, valida, codifica e grava condicionado à versão lida.
type Applier struct {
	store store.Store
	log   logrus.FieldLogger
}

func NewApplier(st store.Store, log logrus.FieldLogger) *Applier {
	return &Applier{store: st, log: log.WithField("component", "Applier")}
}

// Load lê o estado atual e sua versão.
func (a *Applier) Load(ctx context.Context, matchID string) (*match.State, uint64, error) {
	doc, err := a.store.Get(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("%w: %s", ErrRoomGone, matchID)
	}
	if err != nil {
		return nil, 0, err
	}
	s, err := decode(doc.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("match %s: %w", matchID, err)
	}
	return s, doc.Version, nil
}

// Apply executa uma transação otimista sobre uma partida existente.
func (a *Applier) Apply(ctx context.Context, matchID string, mut Mutator) (*match.State, error) {
	s, version, err := a.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return a.commit(ctx, matchID, version, s, mut)
}

// Create executa a transação sobre uma partida nova em Setup e grava somente se
// o documento ainda não existir. Se já existir, devolve ErrTransactionConflict.
func (a *Applier) Create(ctx context.Context, matchID string, mut Mutator) (*match.State, error) {
	return a.commit(ctx, matchID, 0, match.NewState(matchID), mut)
}

func (a *Applier) commit(ctx context.Context, matchID string, version uint64, s *match.State, mut Mutator) (*match.State, error) {
	if err := mut(s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"match": matchID,
			"phase": s.Phase,
			"round": s.Round,
		}).Error("[Applier] Refusing to commit state that breaks invariants")
		return nil, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode match %s: %w", matchID, err)
	}
	if _, err := a.store.CompareAndSwap(ctx, matchID, version, data); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: match %s at version %d", ErrTransactionConflict, matchID, version)
		}
		return nil, err
	}
	return s, nil
}

// Delete remove a partida do store.
func (a *Applier) Delete(ctx context.Context, matchID string) error {
	err := a.store.Delete(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Watch decodifica cada versão do documento. Um nil no canal significa que a partida foi removida.
func (a *Applier) Watch(ctx context.Context, matchID string) (<-chan *match.State, error) {
	docs, err := a.store.Watch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out := make(chan *match.State)
	go func() {
		defer close(out)
		for doc := range docs {
			var s *match.State
			if !doc.Deleted {
				decoded, err := decode(doc.Data)
				if err != nil {
					a.log.WithError(err).WithField("match", matchID).Warn("[Applier] Skipping undecodable snapshot")
					continue
				}
				s = decoded
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func decode(data []byte) (*match.State, error) {
	var s match.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &s, nil
}
