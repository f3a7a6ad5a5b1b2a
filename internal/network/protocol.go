// START OF FILE virada/internal/network/protocol.go
package network

import (
	"encoding/json"
	"fmt"
)

// Message é o envelope de toda a comunicação pelo websocket.
// Type roteia; Payload fica cru até quem trata o tipo decodificá-lo.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MaxMessageSize limita o que aceitamos de um cliente.
const MaxMessageSize = 64 * 1024

// NewMessage monta um envelope com o payload codificado em JSON.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Decode lê o payload para dentro de v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", m.Type, err)
	}
	return nil
}
