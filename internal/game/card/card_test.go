package card

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 1))
}

func pileOf(ids ...string) Pile {
	p := Pile{}
	for i, id := range ids {
		p.Push(Card{ID: id, Symbol: SymbolAt(i), TrueStyle: "neon-circuit", State: Hidden})
	}
	return p
}

func TestNewValidates(t *testing.T) {
	c, err := New("c1", "heart", "neon-circuit")
	require.NoError(t, err)
	assert.Equal(t, Hidden, c.State)

	_, err = New("", "heart", "neon-circuit")
	assert.Error(t, err)
	_, err = New("c1", "skull", "neon-circuit")
	assert.Error(t, err)
	_, err = New("c1", "heart", "")
	assert.Error(t, err)
}

func TestPileTopIsLastElement(t *testing.T) {
	p := pileOf("a", "b", "c")

	top, err := p.Top()
	require.NoError(t, err)
	assert.Equal(t, "c", top.ID)

	popped, err := p.Pop()
	require.NoError(t, err)
	assert.Equal(t, "c", popped.ID)
	assert.Equal(t, []string{"a", "b"}, p.IDs())

	p.Push(Card{ID: "z"})
	assert.Equal(t, []string{"a", "b", "z"}, p.IDs())
}

func TestPileEmptyErrors(t *testing.T) {
	var p Pile
	_, err := p.Pop()
	assert.Error(t, err)
	_, err = p.Top()
	assert.Error(t, err)
	_, err = p.DrawRandom(newRand(1))
	assert.Error(t, err)
	assert.Equal(t, 0, p.Size())
}

func TestRemoveAtBounds(t *testing.T) {
	p := pileOf("a", "b", "c")

	c, err := p.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "b", c.ID)
	assert.Equal(t, []string{"a", "c"}, p.IDs())

	_, err = p.RemoveAt(5)
	assert.Error(t, err)
	_, err = p.RemoveAt(-1)
	assert.Error(t, err)
}

func TestDrawRandomRemovesExactlyOne(t *testing.T) {
	p := pileOf("a", "b", "c", "d")
	c, err := p.DrawRandom(newRand(7))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Size())
	assert.NotContains(t, p.IDs(), c.ID)
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	Shuffle(items, newRand(42))

	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sorted)
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	a := pileOf("a", "b", "c", "d", "e", "f")
	b := pileOf("a", "b", "c", "d", "e", "f")
	a.Shuffle(newRand(99))
	b.Shuffle(newRand(99))
	assert.Equal(t, a.IDs(), b.IDs())
}

func TestShuffleCoversAllPermutations(t *testing.T) {
	r := newRand(2024)
	counts := map[[3]int]int{}
	const rounds = 60000
	for i := 0; i < rounds; i++ {
		items := [3]int{0, 1, 2}
		s := items[:]
		Shuffle(s, r)
		counts[items]++
	}

	require.Len(t, counts, 6)
	for perm, n := range counts {
		// 10000 esperado por permutação; margem larga para não depender da semente.
		assert.InDelta(t, rounds/6, n, 800, "permutation %v", perm)
	}
}

func TestCollectedRevealsAndTracks(t *testing.T) {
	var cs Collected
	cs.Add(Card{ID: "x", State: Hidden})
	assert.Equal(t, 1, cs.Size())
	assert.True(t, cs.Contains("x"))
	assert.False(t, cs.Contains("y"))
	assert.Equal(t, Revealed, cs[0].State)
}

func TestPileCloneIsIndependent(t *testing.T) {
	p := pileOf("a", "b")
	c := p.Clone()
	c.Push(Card{ID: "c"})
	assert.Equal(t, 2, p.Size())
	assert.Equal(t, 3, c.Size())
}

func TestPickStyleSkipsTaken(t *testing.T) {
	r := newRand(3)
	for i := 0; i < 20; i++ {
		s := PickStyle(r, "neon-circuit", "arcane-sigil")
		assert.Contains(t, []Style{"minimal-prime", "flux-ember"}, s)
	}
	assert.Equal(t, Style(""), PickStyle(r, DefaultStyles...))
}
