package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liarsdeck/liarsdeck/internal/randutil"
)

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	counts := make(map[Rank]int)
	for _, card := range deck {
		counts[card]++
	}
	for _, rank := range Ranks {
		assert.Equal(t, CopiesPerRank, counts[rank], "rank %s", rank)
	}
}

func TestShuffledDeckIsPermutation(t *testing.T) {
	deck := ShuffledDeck(randutil.New(42))
	require.Len(t, deck, DeckSize)

	counts := make(map[Rank]int)
	for _, card := range deck {
		counts[card]++
	}
	for _, rank := range Ranks {
		assert.Equal(t, CopiesPerRank, counts[rank], "rank %s", rank)
	}
}

func TestShuffledDeckDeterministicForSeed(t *testing.T) {
	a := ShuffledDeck(randutil.New(7))
	b := ShuffledDeck(randutil.New(7))
	assert.Equal(t, a, b)
}

func TestParseRank(t *testing.T) {
	tests := []struct {
		input    string
		expected Rank
		wantErr  bool
	}{
		{input: "Ace", expected: Ace},
		{input: "ace", expected: Ace},
		{input: "QUEEN", expected: Queen},
		{input: "jack", expected: Jack},
		{input: "king", expected: King},
		{input: "Joker", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRank(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDealSplitsDeckEvenly(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		t.Run(map[int]string{2: "two players", 3: "three players", 4: "four players"}[n], func(t *testing.T) {
			snap := newTestGame(seatPoolSlice(n)...)
			snap.Deal(randutil.New(int64(n)))

			per := DeckSize / n
			dealt := make(map[Rank]int)
			for _, seat := range snap.TurnOrder {
				p := snap.Players[seat]
				assert.Len(t, p.Hand, per)
				assert.GreaterOrEqual(t, p.FatalChamber, 0)
				assert.Less(t, p.FatalChamber, 3)
				assert.Zero(t, p.ChamberPointer)
				for _, card := range p.Hand {
					dealt[card]++
				}
			}

			// Hands are disjoint slices of one physical deck.
			for rank, count := range dealt {
				assert.LessOrEqual(t, count, CopiesPerRank, "rank %s", rank)
			}
			assert.True(t, snap.ReferenceRank.Valid())
			assert.Empty(t, snap.DiscardPile)
			assert.Nil(t, snap.LastPlay)
		})
	}
}

func TestDealSkipsEliminatedSeats(t *testing.T) {
	snap := newTestGame("player1", "player2", "player3")
	snap.Players["player2"].Eliminated = true

	snap.Deal(randutil.New(1))

	assert.Len(t, snap.Players["player1"].Hand, DeckSize/2)
	assert.Empty(t, snap.Players["player2"].Hand)
	assert.Len(t, snap.Players["player3"].Hand, DeckSize/2)
}
