// Package consulkv implementa store.Store sobre o KV do Consul.
// A versão do documento é o ModifyIndex da chave; CAS com índice 0 cria se não existir.
package consulkv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"
	"virada/internal/store"

	consul "github.com/hashicorp/consul/api"
	"github.com/sirupsen/logrus"
)

// DefaultPrefix é onde as partidas ficam no KV.
const DefaultPrefix = "virada/matches"

var errNoClient = errors.New("consul client unavailable")

// ClientProvider entrega o cliente Consul atual. *cluster.ConsulManager satisfaz,
// e o cliente pode mudar depois de uma reconexão.
type ClientProvider interface {
	GetClient() *consul.Client
}

type Store struct {
	clients   ClientProvider
	prefix    string
	waitTime  time.Duration
	retryWait time.Duration
	log       logrus.FieldLogger
}

type Option func(*Store)

func WithPrefix(prefix string) Option { return func(s *Store) { s.prefix = prefix } }

// WithWaitTime limita quanto tempo cada consulta bloqueante do Watch espera.
func WithWaitTime(d time.Duration) Option { return func(s *Store) { s.waitTime = d } }

func New(clients ClientProvider, log logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{
		clients:   clients,
		prefix:    DefaultPrefix,
		waitTime:  30 * time.Second,
		retryWait: time.Second,
		log:       log.WithField("component", "ConsulKV"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(k string) string { return path.Join(s.prefix, k) }

func (s *Store) kv() (*consul.KV, error) {
	c := s.clients.GetClient()
	if c == nil {
		return nil, errNoClient
	}
	return c.KV(), nil
}

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	kv, err := s.kv()
	if err != nil {
		return store.Document{}, err
	}
	q := (&consul.QueryOptions{RequireConsistent: true}).WithContext(ctx)
	pair, _, err := kv.Get(s.key(key), q)
	if err != nil {
		return store.Document{}, fmt.Errorf("consul get %s: %w", key, err)
	}
	if pair == nil {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{Key: key, Version: pair.ModifyIndex, Data: pair.Value}, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected uint64, data []byte) (uint64, error) {
	kv, err := s.kv()
	if err != nil {
		return 0, err
	}
	pair := &consul.KVPair{Key: s.key(key), Value: data, ModifyIndex: expected}
	ok, _, err := kv.CAS(pair, (&consul.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("consul cas %s: %w", key, err)
	}
	if !ok {
		return 0, store.ErrConflict
	}

	// O CAS não devolve o novo índice; uma leitura consistente logo em seguida o obtém.
	// Se outro escritor já passou na frente, a versão dele é a que vale para o próximo CAS.
	doc, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return doc.Version, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	kv, err := s.kv()
	if err != nil {
		return err
	}
	if _, err := kv.Delete(s.key(key), (&consul.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("consul delete %s: %w", key, err)
	}
	return nil
}

// Watch usa consultas bloqueantes (WaitIndex) para acompanhar a chave.
func (s *Store) Watch(ctx context.Context, key string) (<-chan store.Document, error) {
	if _, err := s.kv(); err != nil {
		return nil, err
	}
	ch := make(chan store.Document, 1)
	go s.watchLoop(ctx, key, ch)
	return ch, nil
}

func (s *Store) watchLoop(ctx context.Context, key string, ch chan store.Document) {
	defer close(ch)
	log := s.log.WithField("key", key)

	var waitIndex uint64
	var lastVersion uint64
	present := false

	for ctx.Err() == nil {
		kv, err := s.kv()
		if err != nil {
			s.sleep(ctx)
			continue
		}

		q := (&consul.QueryOptions{WaitIndex: waitIndex, WaitTime: s.waitTime}).WithContext(ctx)
		pair, meta, err := kv.Get(s.key(key), q)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("[ConsulKV] Blocking query failed, retrying")
			s.sleep(ctx)
			continue
		}

		// O índice pode voltar atrás (snapshot restaurado); nesse caso recomeça do zero.
		if meta.LastIndex < waitIndex {
			waitIndex = 0
		} else {
			waitIndex = meta.LastIndex
		}

		switch {
		case pair == nil && present:
			present = false
			store.Offer(ch, store.Document{Key: key, Version: meta.LastIndex, Deleted: true})
		case pair != nil && (!present || pair.ModifyIndex != lastVersion):
			present = true
			lastVersion = pair.ModifyIndex
			store.Offer(ch, store.Document{Key: key, Version: pair.ModifyIndex, Data: pair.Value})
		}
	}
}

func (s *Store) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.retryWait):
	}
}

// Close não tem o que liberar: o cliente pertence ao ConsulManager.
func (s *Store) Close() error { return nil }
