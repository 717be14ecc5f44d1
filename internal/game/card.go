// Package game implements the Liar's Deck rules as a pure state machine over
// a persisted document graph. Nothing in here touches the network or holds
// locks; callers load a Snapshot, call operations and save it back.
package game

import (
	"fmt"
	"strings"
)

// Rank is one of the four card ranks in the deck. There are no suits.
type Rank string

const (
	Ace   Rank = "Ace"
	Jack  Rank = "Jack"
	Queen Rank = "Queen"
	King  Rank = "King"
)

// Ranks lists every rank in canonical order.
var Ranks = []Rank{Ace, Jack, Queen, King}

const (
	// CopiesPerRank is how many copies of each rank the deck holds.
	CopiesPerRank = 6

	// DeckSize is the total deck size.
	DeckSize = CopiesPerRank * 4
)

// Valid reports whether r is one of the four ranks.
func (r Rank) Valid() bool {
	switch r {
	case Ace, Jack, Queen, King:
		return true
	}
	return false
}

func (r Rank) String() string {
	return string(r)
}

// ParseRank parses a rank name, ignoring case.
func ParseRank(s string) (Rank, error) {
	for _, r := range Ranks {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown rank %q", s)
}
