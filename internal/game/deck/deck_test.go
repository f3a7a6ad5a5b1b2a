package deck

import (
	"fmt"
	"testing"
	"virada/internal/game/card"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("card-%02d", n)
	}
}

var twoSeats = []Seat{
	{PlayerID: "alice", Style: "neon-circuit"},
	{PlayerID: "bob", Style: "flux-ember"},
}

func TestBuildProducesCardsPerSeat(t *testing.T) {
	cards, err := Build(twoSeats, 10, seqIDs())
	require.NoError(t, err)
	require.Len(t, cards, 20)

	perStyle := map[card.Style]int{}
	ids := map[string]struct{}{}
	for i, c := range cards {
		perStyle[c.TrueStyle]++
		ids[c.ID] = struct{}{}
		assert.Equal(t, card.Hidden, c.State)
		assert.Equal(t, card.SymbolAt(i%10), c.Symbol)
	}
	assert.Equal(t, 10, perStyle["neon-circuit"])
	assert.Equal(t, 10, perStyle["flux-ember"])
	assert.Len(t, ids, 20)

	// Os primeiros per pertencem ao primeiro assento.
	assert.Equal(t, card.Style("neon-circuit"), cards[0].TrueStyle)
	assert.Equal(t, card.Style("flux-ember"), cards[10].TrueStyle)
}

func TestBuildDefaultsToUUIDs(t *testing.T) {
	cards, err := Build(twoSeats, 3, nil)
	require.NoError(t, err)
	assert.Len(t, cards[0].ID, 36)
}

func TestBuildRejectsBadRooms(t *testing.T) {
	cases := map[string]struct {
		seats []Seat
		per   int
	}{
		"single player":   {seats: twoSeats[:1], per: 10},
		"no style":        {seats: []Seat{{PlayerID: "a", Style: "x"}, {PlayerID: "b"}}, per: 10},
		"shared style":    {seats: []Seat{{PlayerID: "a", Style: "x"}, {PlayerID: "b", Style: "x"}}, per: 10},
		"duplicate id":    {seats: []Seat{{PlayerID: "a", Style: "x"}, {PlayerID: "a", Style: "y"}}, per: 10},
		"empty id":        {seats: []Seat{{PlayerID: "", Style: "x"}, {PlayerID: "b", Style: "y"}}, per: 10},
		"zero card count": {seats: twoSeats, per: 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(tc.seats, tc.per, seqIDs())
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestBuildRejectsDuplicateGeneratedIDs(t *testing.T) {
	_, err := Build(twoSeats, 2, func() string { return "same" })
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestDistributeContiguousSlices(t *testing.T) {
	cards, err := Build(twoSeats, 4, seqIDs())
	require.NoError(t, err)

	piles, err := Distribute(cards, 2, 4)
	require.NoError(t, err)
	require.Len(t, piles, 2)
	assert.Equal(t, []string{"card-01", "card-02", "card-03", "card-04"}, piles[0].IDs())
	assert.Equal(t, []string{"card-05", "card-06", "card-07", "card-08"}, piles[1].IDs())

	top, err := piles[0].Top()
	require.NoError(t, err)
	assert.Equal(t, "card-04", top.ID)

	// Piles não compartilham memória com a lista original.
	piles[0][0].State = card.Revealed
	assert.Equal(t, card.Hidden, cards[0].State)
}

func TestDistributeRejectsMismatch(t *testing.T) {
	cards, err := Build(twoSeats, 4, seqIDs())
	require.NoError(t, err)
	_, err = Distribute(cards, 2, 5)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
