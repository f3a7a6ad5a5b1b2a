package memory

import (
	"context"
	"sync"
	"testing"
	"time"
	"virada/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ store.Store = (*Store)(nil)

func TestCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	v, err := s.CompareAndSwap(ctx, "k", 0, []byte("one"))
	require.NoError(t, err)
	assert.NotZero(t, v)

	_, err = s.CompareAndSwap(ctx, "k", 0, []byte("two"))
	assert.ErrorIs(t, err, store.ErrConflict)

	doc, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "one", string(doc.Data))
	assert.Equal(t, v, doc.Version)
}

func TestCompareAndSwapChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	v1, err := s.CompareAndSwap(ctx, "k", 0, []byte("one"))
	require.NoError(t, err)

	v2, err := s.CompareAndSwap(ctx, "k", v1, []byte("two"))
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	_, err = s.CompareAndSwap(ctx, "k", v1, []byte("stale"))
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CompareAndSwap(ctx, "missing", 7, []byte("x"))
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestConcurrentSwapsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	v, err := s.CompareAndSwap(ctx, "k", 0, []byte("base"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CompareAndSwap(ctx, "k", v, []byte("next")); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	v, _ := s.CompareAndSwap(ctx, "k", 0, []byte("x"))

	require.NoError(t, s.Delete(ctx, "k"))
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "k"), store.ErrNotFound)

	v2, err := s.CompareAndSwap(ctx, "k", 0, []byte("again"))
	require.NoError(t, err)
	assert.NotEqual(t, v, v2)
}

func TestWatchEmitsCurrentAndLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New()
	v, _ := s.CompareAndSwap(ctx, "k", 0, []byte("one"))

	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "one", string(first.Data))

	// Sem leitura intermediária, só a última versão fica no canal.
	v, _ = s.CompareAndSwap(ctx, "k", v, []byte("two"))
	_, _ = s.CompareAndSwap(ctx, "k", v, []byte("three"))
	latest := <-ch
	assert.Equal(t, "three", string(latest.Data))

	require.NoError(t, s.Delete(ctx, "k"))
	gone := <-ch
	assert.True(t, gone.Deleted)
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New()
	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := New()
	ch, err := s.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, ok := <-ch
	assert.False(t, ok)

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.Watch(ctx, "k")
	assert.ErrorIs(t, err, store.ErrClosed)
}
