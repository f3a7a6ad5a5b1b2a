package player

import (
	"math/rand/v2"
	"testing"
	"virada/internal/game/card"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPile(ids ...string) *Player {
	p := NewPlayer("alice", "Alice", "neon-circuit", false)
	for _, id := range ids {
		p.Pile.Push(card.Card{ID: id, Symbol: "heart", TrueStyle: "neon-circuit", State: card.Hidden})
	}
	return p
}

func TestFlipTopRevealsInPlace(t *testing.T) {
	p := withPile("a", "b")
	c, err := p.FlipTop()
	require.NoError(t, err)
	assert.Equal(t, "b", c.ID)
	assert.True(t, c.IsRevealed())

	top, _ := p.Pile.Top()
	assert.True(t, top.IsRevealed())
	assert.Equal(t, 2, p.Pile.Size())
}

func TestFlipTopOnEmptyPile(t *testing.T) {
	p := withPile()
	_, err := p.FlipTop()
	assert.Error(t, err)
	assert.True(t, p.HasNoMoreMoves())
}

func TestReceiveHidesCard(t *testing.T) {
	p := withPile("a")
	p.Receive(card.Card{ID: "x", State: card.Revealed})
	top, _ := p.Pile.Top()
	assert.Equal(t, "x", top.ID)
	assert.Equal(t, card.Hidden, top.State)
}

func TestGiveRandomAndTop(t *testing.T) {
	p := withPile("a", "b", "c")
	c, ok := p.GiveRandom(rand.New(rand.NewPCG(1, 2)))
	require.True(t, ok)
	assert.NotContains(t, p.Pile.IDs(), c.ID)

	top, ok := p.GiveTop()
	require.True(t, ok)
	assert.Equal(t, 1, p.Pile.Size())
	assert.NotEqual(t, c.ID, top.ID)

	empty := withPile()
	_, ok = empty.GiveRandom(rand.New(rand.NewPCG(1, 2)))
	assert.False(t, ok)
	_, ok = empty.GiveTop()
	assert.False(t, ok)
}

func TestWinCondition(t *testing.T) {
	p := withPile()
	assert.False(t, p.WinCondition(2))
	p.Collect(card.Card{ID: "a"})
	p.Collect(card.Card{ID: "b"})
	assert.True(t, p.WinCondition(2))
	assert.Equal(t, 2, p.CardsInWinPile())
	assert.False(t, p.WinCondition(0))
}

func TestCloneIsDeep(t *testing.T) {
	p := withPile("a")
	cp := p.Clone()
	cp.Pile.Push(card.Card{ID: "z"})
	cp.Collect(card.Card{ID: "y"})
	assert.Equal(t, 1, p.CardCount())
	assert.Equal(t, 3, cp.CardCount())
}
