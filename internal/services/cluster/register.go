package cluster

import (
	"fmt"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// Registration descreve como este processo aparece no catálogo do Consul.
type Registration struct {
	ServiceName string
	ServicePort int
	HealthPort  int
	// Hostname resolvível pelos outros contêineres; vazio usa $HOSTNAME.
	Hostname string
	Tags     []string
}

// ServiceID é único por contêiner: nome do serviço mais hostname.
func (r Registration) ServiceID() string {
	return fmt.Sprintf("%s-%s", r.ServiceName, r.host())
}

func (r Registration) host() string {
	if r.Hostname != "" {
		return r.Hostname
	}
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, _ := os.Hostname()
	return h
}

func (r Registration) agentRegistration() *consul.AgentServiceRegistration {
	host := r.host()
	return &consul.AgentServiceRegistration{
		ID:   r.ServiceID(),
		Name: r.ServiceName,
		Port: r.ServicePort,
		Tags: r.Tags,
		// Sem Address: o agente usa o IP do contêiner que registrou.
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", host, r.HealthPort),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// RegisterService registra o serviço no agente do cliente dado.
func RegisterService(client *consul.Client, r Registration) error {
	if client == nil {
		return fmt.Errorf("register %s: consul client unavailable", r.ServiceName)
	}
	if err := client.Agent().ServiceRegister(r.agentRegistration()); err != nil {
		return fmt.Errorf("register %s in consul: %w", r.ServiceName, err)
	}
	return nil
}

// DeregisterService remove o registro feito por RegisterService.
func DeregisterService(client *consul.Client, r Registration) error {
	if client == nil {
		return nil
	}
	return client.Agent().ServiceDeregister(r.ServiceID())
}
