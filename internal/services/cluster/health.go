// START OF FILE virada/internal/services/cluster/health.go
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// NewBasicHealthHandler é o liveness check: só confirma que o processo responde.
func NewBasicHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Service is alive.")
	}
}

// CheckFunc realiza uma verificação de saúde; erro significa dependência indisponível.
type CheckFunc func(ctx context.Context) error

// HealthAggregator junta várias verificações num único endpoint.
type HealthAggregator struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		checks:  make(map[string]CheckFunc),
		timeout: 3 * time.Second,
	}
}

// AddCheck registra (ou substitui) uma verificação.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Run executa todas as verificações em paralelo e devolve as falhas por nome.
func (h *HealthAggregator) Run(ctx context.Context) map[string]string {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]CheckFunc, len(names))
	for i, name := range names {
		checks[i] = h.checks[name]
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	errs := make([]error, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			errs[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]string)
	for i, err := range errs {
		if err != nil {
			failed[names[i]] = err.Error()
		}
	}
	return failed
}

// Handler responde 200 se todas as verificações passam e 503 com os erros caso contrário.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failed := h.Run(r.Context())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(failed)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
