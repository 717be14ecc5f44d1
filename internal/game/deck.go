package game

import (
	rand "math/rand/v2"
)

// NewDeck returns the full 24-card deck in canonical order.
func NewDeck() []Rank {
	deck := make([]Rank, 0, DeckSize)
	for _, r := range Ranks {
		for i := 0; i < CopiesPerRank; i++ {
			deck = append(deck, r)
		}
	}
	return deck
}

// ShuffledDeck returns a fresh deck shuffled with rng.
func ShuffledDeck(rng *rand.Rand) []Rank {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// randomRank picks the round's reference rank.
func randomRank(rng *rand.Rand) Rank {
	return Ranks[rng.IntN(len(Ranks))]
}
