// Package store define o contrato de documentos versionados usado pelas partidas.
// Toda escrita é condicional à versão lida (compare-and-swap).
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("version conflict")
	ErrClosed   = errors.New("store closed")
)

// Document é uma versão de um documento. Version é opaca e só cresce para a mesma chave.
type Document struct {
	Key     string
	Version uint64
	Data    []byte
	Deleted bool
}

// Store é o armazenamento compartilhado com controle de concorrência otimista.
type Store interface {
	// Get devolve a versão atual ou ErrNotFound.
	Get(ctx context.Context, key string) (Document, error)
	// CompareAndSwap grava data somente se a versão atual ainda é expected.
	// expected == 0 significa "criar se não existir". Devolve a nova versão ou ErrConflict.
	CompareAndSwap(ctx context.Context, key string, expected uint64, data []byte) (uint64, error)
	Delete(ctx context.Context, key string) error
	// Watch emite o documento atual e cada versão seguinte até ctx acabar.
	// Consumidores lentos só veem a mais recente. O canal é fechado no fim.
	Watch(ctx context.Context, key string) (<-chan Document, error)
	Close() error
}

// Offer entrega d num canal de capacidade 1 substituindo um valor ainda não lido.
// Deve haver um único produtor por canal.
func Offer(ch chan Document, d Document) {
	select {
	case ch <- d:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- d:
	default:
	}
}
