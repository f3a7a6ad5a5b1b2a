package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	consul "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAggregator(t *testing.T) {
	h := NewHealthAggregator()
	h.AddCheck("store", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.AddCheck("bus", func(context.Context) error { return errors.New("nats: disconnected") })
	rec = httptest.NewRecorder()
	h.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var failed map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&failed))
	assert.Equal(t, map[string]string{"bus": "nats: disconnected"}, failed)
}

func TestBasicHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewBasicHealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// fakeAgent responde às rotas do agente Consul usadas aqui.
type fakeAgent struct {
	mu         sync.Mutex
	registered map[string]consul.AgentServiceRegistration
	entries    []*consul.ServiceEntry
}

func newFakeAgent(t *testing.T) (*fakeAgent, *consul.Client) {
	t.Helper()
	f := &fakeAgent{registered: make(map[string]consul.AgentServiceRegistration)}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/agent/service/register", func(w http.ResponseWriter, r *http.Request) {
		var reg consul.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.registered[reg.ID] = reg
		f.mu.Unlock()
	})
	mux.HandleFunc("/v1/agent/service/deregister/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.registered, r.URL.Path[len("/v1/agent/service/deregister/"):])
		f.mu.Unlock()
	})
	mux.HandleFunc("/v1/health/service/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("X-Consul-Index", "1")
		_ = json.NewEncoder(w).Encode(f.entries)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := consul.DefaultConfig()
	cfg.Address = srv.Listener.Addr().String()
	client, err := consul.NewClient(cfg)
	require.NoError(t, err)
	return f, client
}

func TestRegisterAndDeregister(t *testing.T) {
	f, client := newFakeAgent(t)
	reg := Registration{ServiceName: "virada-match", ServicePort: 8083, HealthPort: 8083, Hostname: "match-1"}

	require.NoError(t, RegisterService(client, reg))
	f.mu.Lock()
	got, ok := f.registered["virada-match-match-1"]
	f.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, 8083, got.Port)
	require.NotNil(t, got.Check)
	assert.Equal(t, "http://match-1:8083/health", got.Check.HTTP)

	require.NoError(t, DeregisterService(client, reg))
	f.mu.Lock()
	assert.Empty(t, f.registered)
	f.mu.Unlock()

	assert.Error(t, RegisterService(nil, reg))
}

func TestDiscover(t *testing.T) {
	f, client := newFakeAgent(t)

	_, err := DiscoverAnyHealthy(client, "virada-match")
	assert.Error(t, err)

	f.mu.Lock()
	f.entries = []*consul.ServiceEntry{
		{Node: &consul.Node{Address: "10.0.0.1"}, Service: &consul.AgentService{ID: "virada-match-a", Port: 8083}},
		{Node: &consul.Node{Address: "10.0.0.2"}, Service: &consul.AgentService{ID: "virada-match-b", Address: "match-b", Port: 9000}},
	}
	f.mu.Unlock()

	addr, err := DiscoverAnyHealthy(client, "virada-match")
	require.NoError(t, err)
	assert.Contains(t, []string{"10.0.0.1:8083", "match-b:9000"}, addr)

	addr, err = DiscoverSpecific(client, "virada-match", "virada-match-b")
	require.NoError(t, err)
	assert.Equal(t, "match-b:9000", addr)

	_, err = DiscoverSpecific(client, "virada-match", "virada-match-z")
	assert.Error(t, err)
}
