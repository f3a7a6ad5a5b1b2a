package card

import (
	"fmt"
)

// Tipo para funções de validação
type cardValidator func(*Card) error

// ---- Funções de validação ----

func validateID(c *Card) error {
	if c.ID == "" {
		return fmt.Errorf("invalid card: empty id")
	}
	return nil
}

func validateSymbol(c *Card) error {
	if !IsSymbol(c.Symbol) {
		return fmt.Errorf("invalid card symbol: %s", c.Symbol)
	}
	return nil
}

func validateStyle(c *Card) error {
	if c.TrueStyle == "" {
		return fmt.Errorf("invalid card %s: missing true style", c.ID)
	}
	return nil
}
