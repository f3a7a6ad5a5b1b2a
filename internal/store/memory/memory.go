// Package memory implementa store.Store dentro do processo, para um único servidor e para testes.
package memory

import (
	"context"
	"sync"
	"virada/internal/store"
)

type entry struct {
	version uint64
	data    []byte
}

type Store struct {
	mu       sync.Mutex
	docs     map[string]entry
	watchers map[string]map[int]chan store.Document
	nextID   int
	clock    uint64
	closed   bool
}

func New() *Store {
	return &Store{
		docs:     make(map[string]entry),
		watchers: make(map[string]map[int]chan store.Document),
	}
}

func (s *Store) Get(_ context.Context, key string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Document{}, store.ErrClosed
	}
	e, ok := s.docs[key]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{Key: key, Version: e.version, Data: clone(e.data)}, nil
}

func (s *Store) CompareAndSwap(_ context.Context, key string, expected uint64, data []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, store.ErrClosed
	}

	cur, exists := s.docs[key]
	switch {
	case expected == 0 && exists:
		return 0, store.ErrConflict
	case expected != 0 && (!exists || cur.version != expected):
		return 0, store.ErrConflict
	}

	// O relógio é global para que uma chave recriada nunca repita uma versão antiga.
	s.clock++
	e := entry{version: s.clock, data: clone(data)}
	s.docs[key] = e
	s.notify(store.Document{Key: key, Version: e.version, Data: e.data})
	return e.version, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if _, ok := s.docs[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.docs, key)
	s.clock++
	s.notify(store.Document{Key: key, Version: s.clock, Deleted: true})
	return nil
}

func (s *Store) Watch(ctx context.Context, key string) (<-chan store.Document, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, store.ErrClosed
	}
	ch := make(chan store.Document, 1)
	id := s.nextID
	s.nextID++
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[int]chan store.Document)
	}
	s.watchers[key][id] = ch
	if e, ok := s.docs[key]; ok {
		store.Offer(ch, store.Document{Key: key, Version: e.version, Data: clone(e.data)})
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if w, ok := s.watchers[key][id]; ok {
			delete(s.watchers[key], id)
			if len(s.watchers[key]) == 0 {
				delete(s.watchers, key)
			}
			close(w)
		}
	}()
	return ch, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for key, ws := range s.watchers {
		for _, ch := range ws {
			close(ch)
		}
		delete(s.watchers, key)
	}
	return nil
}

// notify deve ser chamado com o mutex travado.
func (s *Store) notify(d store.Document) {
	for _, ch := range s.watchers[d.Key] {
		cp := d
		cp.Data = clone(d.Data)
		store.Offer(ch, cp)
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
