// START OF FILE virada/internal/game/card/card.go
package card

import (
	"fmt"
)

// Symbol é o desenho estampado na face da carta. Não tem efeito nas regras.
type Symbol string

// Style identifica o dono verdadeiro de uma carta (o estilo de baralho escolhido no lobby).
type Style string

// State indica se a face da carta está visível.
type State string

const (
	Hidden   State = "hidden"
	Revealed State = "revealed"
)

// Card é uma carta da partida. TrueStyle nunca muda depois da criação:
// ela diz a qual jogador a carta pertence, não importa em qual pilha ela esteja.
type Card struct {
	ID        string `json:"id"`
	Symbol    Symbol `json:"symbol"`
	ImageRef  string `json:"imageRef,omitempty"`
	TrueStyle Style  `json:"trueStyle"`
	State     State  `json:"state"`
}

// New cria uma carta oculta já validada.
func New(id string, symbol Symbol, style Style) (Card, error) {
	c := Card{ID: id, Symbol: symbol, TrueStyle: style, State: Hidden}

	validators := []cardValidator{
		validateID,
		validateSymbol,
		validateStyle,
	}

	for _, v := range validators {
		if err := v(&c); err != nil {
			return Card{}, err
		}
	}

	return c, nil
}

func (c Card) IsRevealed() bool { return c.State == Revealed }

// Hide devolve uma cópia da carta com a face para baixo.
func (c Card) Hide() Card {
	c.State = Hidden
	return c
}

// Reveal devolve uma cópia da carta com a face para cima.
func (c Card) Reveal() Card {
	c.State = Revealed
	return c
}

func (c Card) String() string {
	return fmt.Sprintf("%s:%s:%s", c.ID, c.Symbol, c.TrueStyle)
}

// END OF FILE virada/internal/game/card/card.go
