// START OF FILE virada/internal/services/cluster/manager.go
package cluster

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	consul "github.com/hashicorp/consul/api"
	"github.com/sirupsen/logrus"
)

const monitorInterval = 10 * time.Second

// ConsulManager mantém um cliente Consul apontando para um nó que enxerga líder.
// Aceita uma lista de endereços separados por vírgula e troca de nó quando o atual cai.
type ConsulManager struct {
	addrs       []string
	currentAddr string
	client      *consul.Client
	mu          sync.RWMutex
	onReconnect []func()
	log         logrus.FieldLogger
	cancel      context.CancelFunc
}

// NewConsulManager conecta ao primeiro nó saudável e começa a monitorar a conexão.
func NewConsulManager(addrs string, log logrus.FieldLogger) (*ConsulManager, error) {
	m := &ConsulManager{log: log.WithField("component", "ConsulManager")}
	for _, a := range strings.Split(addrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			m.addrs = append(m.addrs, a)
		}
	}
	if len(m.addrs) == 0 {
		return nil, fmt.Errorf("no consul address given")
	}
	if err := m.reconnect(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.monitor(ctx)
	return m, nil
}

// OnReconnect registra uma função chamada a cada reconexão bem-sucedida
// (ex: registrar o serviço de novo no agente novo).
func (m *ConsulManager) OnReconnect(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = append(m.onReconnect, callback)
}

// GetClient retorna o cliente atual; nil enquanto nenhum nó responde.
func (m *ConsulManager) GetClient() *consul.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// CurrentAddr é o nó em uso.
func (m *ConsulManager) CurrentAddr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentAddr
}

// Ping confere se o nó atual ainda enxerga um líder. Usado no /health.
func (m *ConsulManager) Ping() error {
	client := m.GetClient()
	if client == nil {
		return fmt.Errorf("consul: not connected")
	}
	if _, err := client.Status().Leader(); err != nil {
		return fmt.Errorf("consul %s: %w", m.CurrentAddr(), err)
	}
	return nil
}

// Close para o monitoramento.
func (m *ConsulManager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *ConsulManager) reconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Info("[ConsulManager] Trying to (re)connect to the Consul cluster...")
	m.client = nil

	for _, addr := range m.addrs {
		cfg := consul.DefaultConfig()
		cfg.Address = addr
		client, err := consul.NewClient(cfg)
		if err != nil {
			continue
		}
		if _, err := client.Status().Leader(); err != nil {
			m.log.WithError(err).WithField("node", addr).Warn("[ConsulManager] Node unavailable (no leader)")
			continue
		}

		m.client = client
		m.currentAddr = addr
		m.log.WithField("node", addr).Info("[ConsulManager] Connected")
		for _, cb := range m.onReconnect {
			go cb()
		}
		return nil
	}
	return fmt.Errorf("could not reach any consul node in %s", strings.Join(m.addrs, ","))
}

func (m *ConsulManager) monitor(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := m.Ping(); err != nil {
			m.log.WithError(err).Warn("[ConsulManager] Health check failed, trying other nodes.")
			if err := m.reconnect(); err != nil {
				m.log.WithError(err).Error("[ConsulManager] Reconnect failed")
			}
		}
	}
}
