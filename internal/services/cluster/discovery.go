// START OF FILE virada/internal/services/cluster/discovery.go
package cluster

import (
	"fmt"
	"math/rand/v2"

	consul "github.com/hashicorp/consul/api"
)

// DiscoverAnyHealthy devolve "host:porta" de uma instância saudável do serviço, escolhida ao acaso.
func DiscoverAnyHealthy(client *consul.Client, serviceName string) (string, error) {
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("discover %s: no healthy instance", serviceName)
	}
	return entryAddr(entries[rand.IntN(len(entries))]), nil
}

// DiscoverSpecific procura a instância com o ID dado (ver Registration.ServiceID).
func DiscoverSpecific(client *consul.Client, serviceName, serviceID string) (string, error) {
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", serviceName, err)
	}
	for _, e := range entries {
		if e.Service.ID == serviceID {
			return entryAddr(e), nil
		}
	}
	return "", fmt.Errorf("discover %s: instance %s not found or unhealthy", serviceName, serviceID)
}

func entryAddr(e *consul.ServiceEntry) string {
	addr := e.Service.Address
	if addr == "" && e.Node != nil {
		addr = e.Node.Address
	}
	return fmt.Sprintf("%s:%d", addr, e.Service.Port)
}
