// START OF FILE virada/internal/network/handler.go
package network

// EventHandler liga a camada de rede à lógica do serviço.
// Os três métodos são chamados pela goroutine do Hub, um de cada vez.
type EventHandler interface {
	OnConnect(c *Client)
	OnDisconnect(c *Client)
	OnMessage(c *Client, msg Message)
}
