// Package redisdoc implementa store.Store sobre Redis.
// Cada documento é um hash {v: versão, d: dados}; a escrita condicional usa WATCH/MULTI
// e cada mudança é publicada num canal por chave para o Watch.
package redisdoc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"virada/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	fieldVersion = "v"
	fieldData    = "d"
	deletedEvent = "deleted"
)

type Store struct {
	rdb    redis.UniversalClient
	prefix string
	log    logrus.FieldLogger
}

// New usa prefix para separar as chaves; vazio vira "virada".
func New(rdb redis.UniversalClient, prefix string, log logrus.FieldLogger) *Store {
	if prefix == "" {
		prefix = "virada"
	}
	return &Store{rdb: rdb, prefix: prefix, log: log.WithField("component", "RedisDoc")}
}

func (s *Store) docKey(k string) string  { return s.prefix + ":match:" + k }
func (s *Store) channel(k string) string { return s.prefix + ":match-events:" + k }
func (s *Store) clockKey() string        { return s.prefix + ":clock" }

func (s *Store) Get(ctx context.Context, key string) (store.Document, error) {
	return s.read(ctx, s.rdb, key)
}

func (s *Store) read(ctx context.Context, c redis.Cmdable, key string) (store.Document, error) {
	vals, err := c.HGetAll(ctx, s.docKey(key)).Result()
	if err != nil {
		return store.Document{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	if len(vals) == 0 {
		return store.Document{}, store.ErrNotFound
	}
	v, err := strconv.ParseUint(vals[fieldVersion], 10, 64)
	if err != nil {
		return store.Document{}, fmt.Errorf("redis get %s: bad version %q: %w", key, vals[fieldVersion], err)
	}
	return store.Document{Key: key, Version: v, Data: []byte(vals[fieldData])}, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected uint64, data []byte) (uint64, error) {
	dk := s.docKey(key)
	var next uint64

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, dk, fieldVersion).Uint64()
		switch {
		case errors.Is(err, redis.Nil):
			cur = 0
		case err != nil:
			return err
		}
		if cur != expected {
			return store.ErrConflict
		}

		// Contador global: uma chave recriada nunca repete versão.
		next, err = tx.Incr(ctx, s.clockKey()).Uint64()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, dk, fieldVersion, next, fieldData, data)
			pipe.Publish(ctx, s.channel(key), next)
			return nil
		})
		return err
	}, dk)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, store.ErrConflict), errors.Is(err, redis.TxFailedErr):
		return 0, store.ErrConflict
	default:
		return 0, fmt.Errorf("redis cas %s: %w", key, err)
	}
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.docKey(key))
		pipe.Publish(ctx, s.channel(key), deletedEvent)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	if del.Val() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Watch assina o canal da chave antes de ler o estado atual, para não perder
// uma mudança entre as duas operações.
func (s *Store) Watch(ctx context.Context, key string) (<-chan store.Document, error) {
	sub := s.rdb.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", key, err)
	}

	ch := make(chan store.Document, 1)
	go func() {
		defer close(ch)
		defer sub.Close()
		log := s.log.WithField("key", key)

		var last uint64
		present := false
		emit := func() {
			doc, err := s.Get(ctx, key)
			switch {
			case errors.Is(err, store.ErrNotFound):
				if present {
					present = false
					store.Offer(ch, store.Document{Key: key, Version: last, Deleted: true})
				}
			case err != nil:
				if ctx.Err() == nil {
					log.WithError(err).Warn("[RedisDoc] Failed to read document after notification")
				}
			case !present || doc.Version > last:
				present = true
				last = doc.Version
				store.Offer(ch, doc)
			}
		}

		emit()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				emit()
			}
		}
	}()
	return ch, nil
}

// Close fecha a conexão com o Redis.
func (s *Store) Close() error {
	return s.rdb.Close()
}
