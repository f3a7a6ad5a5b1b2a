package card

import (
	"fmt"
	"strings"
)

// Source é a fonte de aleatoriedade injetada. *rand.Rand (math/rand/v2) satisfaz.
type Source interface {
	IntN(n int) int
}

// Pile é a pilha de um jogador. O topo é o último elemento.
type Pile []Card

// Size retorna o número de cartas na pilha.
func (p *Pile) Size() int {
	if p == nil {
		return 0
	}
	return len(*p)
}

// Shuffle embaralha a pilha (Fisher–Yates).
func (p *Pile) Shuffle(r Source) {
	if p == nil {
		return
	}
	Shuffle(*p, r)
}

func (p *Pile) GetCard(index int) (Card, error) {
	if index < 0 || index >= p.Size() {
		return Card{}, fmt.Errorf("index %d out of range", index)
	}
	return (*p)[index], nil
}

// Top devolve a carta do topo sem removê-la.
func (p *Pile) Top() (Card, error) {
	n := p.Size()
	if n == 0 {
		return Card{}, fmt.Errorf("pile is empty")
	}
	return (*p)[n-1], nil
}

// Pop remove e devolve a carta do topo.
func (p *Pile) Pop() (Card, error) {
	n := p.Size()
	if n == 0 {
		return Card{}, fmt.Errorf("pile is empty")
	}
	top := (*p)[n-1]
	*p = (*p)[:n-1]
	return top, nil
}

// Push coloca a carta no topo.
func (p *Pile) Push(c Card) {
	*p = append(*p, c)
}

// SetTop substitui a carta do topo (usado para virar a carta no lugar).
func (p *Pile) SetTop(c Card) error {
	n := p.Size()
	if n == 0 {
		return fmt.Errorf("pile is empty")
	}
	(*p)[n-1] = c
	return nil
}

// DrawRandom remove uma carta de posição uniforme na pilha.
func (p *Pile) DrawRandom(r Source) (Card, error) {
	n := p.Size()
	if n == 0 {
		return Card{}, fmt.Errorf("pile is empty")
	}
	return p.RemoveAt(r.IntN(n))
}

// RemoveAt tira da pilha a carta na posição index.
func (p *Pile) RemoveAt(index int) (Card, error) {
	if index < 0 || index >= p.Size() {
		return Card{}, fmt.Errorf("index %d is out of bounds for a pile of size %d", index, p.Size())
	}

	c := (*p)[index]
	*p = append((*p)[:index], (*p)[index+1:]...)
	return c, nil
}

// IDs lista os ids de baixo para cima.
func (p *Pile) IDs() []string {
	ids := make([]string, 0, p.Size())
	if p == nil {
		return ids
	}
	for _, c := range *p {
		ids = append(ids, c.ID)
	}
	return ids
}

// Clone copia a pilha para que a cópia possa ser alterada sem afetar a original.
func (p Pile) Clone() Pile {
	if p == nil {
		return nil
	}
	out := make(Pile, len(p))
	copy(out, p)
	return out
}

func (p *Pile) String() string {
	if p == nil || p.Size() == 0 {
		return "(Empty)"
	}

	var sb strings.Builder
	sb.WriteString("--------------------\n")
	for i, c := range *p {
		sb.WriteString(fmt.Sprintf("[%d]: %s\n", i, c))
	}
	sb.WriteString("--------------------")
	return sb.String()
}
