package consulkv

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"virada/internal/store"

	consul "github.com/hashicorp/consul/api"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ store.Store = (*Store)(nil)

// fakeKV imita os endpoints /v1/kv do agente Consul, incluindo consultas bloqueantes.
type fakeKV struct {
	mu    sync.Mutex
	index uint64
	pairs map[string]*consul.KVPair
}

func (f *fakeKV) currentIndex() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
	q := r.URL.Query()

	switch r.Method {
	case http.MethodGet:
		if idx, _ := strconv.ParseUint(q.Get("index"), 10, 64); idx > 0 {
			wait, err := time.ParseDuration(q.Get("wait"))
			if err != nil {
				wait = time.Second
			}
			deadline := time.Now().Add(wait)
			for f.currentIndex() <= idx && time.Now().Before(deadline) {
				time.Sleep(2 * time.Millisecond)
			}
		}

		f.mu.Lock()
		pair, ok := f.pairs[key]
		w.Header().Set("X-Consul-Index", strconv.FormatUint(f.index, 10))
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		var body []byte
		if ok {
			cp := *pair
			body, _ = json.Marshal([]*consul.KVPair{&cp})
		}
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)

	case http.MethodPut:
		value, _ := io.ReadAll(r.Body)
		cas, _ := strconv.ParseUint(q.Get("cas"), 10, 64)

		f.mu.Lock()
		defer f.mu.Unlock()
		cur, exists := f.pairs[key]
		if q.Has("cas") && ((cas == 0 && exists) || (cas != 0 && (!exists || cur.ModifyIndex != cas))) {
			_, _ = io.WriteString(w, "false")
			return
		}
		f.index++
		p := &consul.KVPair{Key: key, Value: value, ModifyIndex: f.index, CreateIndex: f.index}
		if exists {
			p.CreateIndex = cur.CreateIndex
		}
		f.pairs[key] = p
		_, _ = io.WriteString(w, "true")

	case http.MethodDelete:
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.pairs[key]; ok {
			delete(f.pairs, key)
			f.index++
		}
		_, _ = io.WriteString(w, "true")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type staticClient struct{ c *consul.Client }

func (s staticClient) GetClient() *consul.Client { return s.c }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	srv := httptest.NewServer(&fakeKV{pairs: map[string]*consul.KVPair{}})
	t.Cleanup(srv.Close)

	cfg := consul.DefaultConfig()
	cfg.Address = strings.TrimPrefix(srv.URL, "http://")
	cfg.Scheme = "http"
	cfg.Token = ""
	client, err := consul.NewClient(cfg)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	s := New(staticClient{client}, logger, WithWaitTime(200*time.Millisecond))
	s.retryWait = 10 * time.Millisecond
	return s
}

func TestConsulCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v1, err := s.CompareAndSwap(ctx, "m1", 0, []byte(`{"n":1}`))
	require.NoError(t, err)
	assert.NotZero(t, v1)

	_, err = s.CompareAndSwap(ctx, "m1", 0, []byte(`{"n":9}`))
	assert.ErrorIs(t, err, store.ErrConflict)

	v2, err := s.CompareAndSwap(ctx, "m1", v1, []byte(`{"n":2}`))
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	_, err = s.CompareAndSwap(ctx, "m1", v1, []byte(`{"n":3}`))
	assert.ErrorIs(t, err, store.ErrConflict)

	doc, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, `{"n":2}`, string(doc.Data))
	assert.Equal(t, v2, doc.Version)
}

func TestConsulGetMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CompareAndSwap(ctx, "m1", 0, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "m1"))
	_, err = s.Get(ctx, "m1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsulWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestStore(t)

	v, err := s.CompareAndSwap(ctx, "m1", 0, []byte("one"))
	require.NoError(t, err)

	ch, err := s.Watch(ctx, "m1")
	require.NoError(t, err)

	next := func() store.Document {
		select {
		case d := <-ch:
			return d
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not emit")
			return store.Document{}
		}
	}

	assert.Equal(t, "one", string(next().Data))

	_, err = s.CompareAndSwap(ctx, "m1", v, []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(next().Data))

	require.NoError(t, s.Delete(ctx, "m1"))
	assert.True(t, next().Deleted)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsulWithoutClient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(staticClient{}, logger)
	_, err := s.Get(context.Background(), "m1")
	assert.Error(t, err)
	_, err = s.Watch(context.Background(), "m1")
	assert.Error(t, err)
}
