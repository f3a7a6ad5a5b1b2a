package card

import (
	"sort"
	"strings"
)

// Collected guarda as cartas que um jogador já garantiu. Elas nunca voltam para uma pilha.
// A ordem não tem significado; é um slice só para serializar em JSON.
type Collected []Card

func (cs *Collected) Size() int {
	if cs == nil {
		return 0
	}
	return len(*cs)
}

// Add adiciona a carta virada para cima.
func (cs *Collected) Add(c Card) {
	*cs = append(*cs, c.Reveal())
}

func (cs *Collected) Contains(id string) bool {
	if cs == nil {
		return false
	}
	for _, c := range *cs {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (cs Collected) Clone() Collected {
	if cs == nil {
		return nil
	}
	out := make(Collected, len(cs))
	copy(out, cs)
	return out
}

// String implementa fmt.Stringer com os ids ordenados.
func (cs *Collected) String() string {
	if cs.Size() == 0 {
		return "collected set is empty"
	}

	ids := make([]string, 0, cs.Size())
	for _, c := range *cs {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
