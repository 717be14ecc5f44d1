package game

import (
	rand "math/rand/v2"
	"slices"
)

// The state machine:
//
//	Lobby -> Dealt -> AwaitingAction(seat) -> RoundResolving -> GameOver
//
// Lobby is Started=false; AwaitingAction is Started=true with Winner unset;
// GameOver is Winner set and terminal. Every transition below validates
// before it mutates, so a rejected call leaves the Snapshot untouched.

// ChallengeResult reports how a challenge resolved.
type ChallengeResult struct {
	Winner     string `json:"challenge_winner"`
	Loser      string `json:"challenge_loser"`
	WasBluff   bool   `json:"was_bluff"`
	Eliminated bool   `json:"loser_eliminated"`
}

// CurrentTurnSeat returns the seat whose turn it is, or "" before the game
// starts.
func (s *Snapshot) CurrentTurnSeat() string {
	if !s.Started || len(s.TurnOrder) == 0 {
		return ""
	}
	return s.TurnOrder[s.CurrentTurnIndex]
}

// ActiveSeats returns the non-eliminated seats in turn order.
func (s *Snapshot) ActiveSeats() []string {
	active := make([]string, 0, len(s.TurnOrder))
	for _, seat := range s.TurnOrder {
		if p, ok := s.Players[seat]; ok && !p.Eliminated {
			active = append(active, seat)
		}
	}
	return active
}

// Terminal reports whether a winner has been declared.
func (s *Snapshot) Terminal() bool {
	return s.Winner != ""
}

// Deal shuffles a fresh 24-card deck, rerolls the reference rank and deals
// the deck evenly among active seats: len(deck) / len(active) cards each,
// integer division, remainder cards discarded. Each seat gets a fresh fatal
// chamber in 0..2 and its chamber pointer reset. The discard pile and last
// play are cleared.
func (s *Snapshot) Deal(rng *rand.Rand) {
	active := s.ActiveSeats()
	if len(active) == 0 {
		return
	}

	deck := ShuffledDeck(rng)
	s.ReferenceRank = randomRank(rng)

	per := len(deck) / len(active)
	for i, seat := range active {
		p := s.Players[seat]
		p.Hand = slices.Clone(deck[i*per : (i+1)*per])
		p.FatalChamber = rng.IntN(3)
		p.ChamberPointer = 0
	}

	s.DiscardPile = nil
	s.LastPlay = nil
}

// PlayCards plays cards from seat's hand onto the discard pile and advances
// the turn. Only the seat whose turn it is may play, and every card must be
// in its hand; violations are rejected with no state change.
func (s *Snapshot) PlayCards(seat string, cards []Rank) error {
	if s.Terminal() {
		return ErrTerminalState
	}
	if !s.Started {
		return preconditionf("game has not started")
	}
	if seat != s.CurrentTurnSeat() {
		return validationf("not your turn")
	}
	if len(cards) == 0 {
		return validationf("no cards played")
	}

	player := s.Players[seat]
	remaining := slices.Clone(player.Hand)
	for _, card := range cards {
		i := slices.Index(remaining, card)
		if i < 0 {
			return validationf("you don't have a %s", card)
		}
		remaining = slices.Delete(remaining, i, i+1)
	}

	player.Hand = remaining
	s.DiscardPile = append(s.DiscardPile, cards...)
	s.LastPlay = &Play{Seat: seat, Cards: slices.Clone(cards)}
	s.Logf("%s played %d card(s).", seat, len(cards))

	s.advanceTurn()
	return nil
}

// Challenge resolves the last play. A play is a bluff iff any played card
// differs from the reference rank. The loser undergoes roulette, the pile is
// cleared, remaining active seats get a fresh deal and the turn passes to
// the winner.
func (s *Snapshot) Challenge(challenger string, rng *rand.Rand) (*ChallengeResult, error) {
	if s.Terminal() {
		return nil, ErrTerminalState
	}
	if !s.Started {
		return nil, preconditionf("game has not started")
	}
	if s.LastPlay == nil {
		return nil, preconditionf("no play to challenge")
	}
	player, ok := s.Players[challenger]
	if !ok {
		return nil, validationf("unknown seat %q", challenger)
	}
	if player.Eliminated {
		return nil, validationf("eliminated seats cannot challenge")
	}
	if challenger == s.LastPlay.Seat {
		return nil, validationf("cannot challenge your own play")
	}

	wasBluff := false
	for _, card := range s.LastPlay.Cards {
		if card != s.ReferenceRank {
			wasBluff = true
			break
		}
	}

	result := &ChallengeResult{WasBluff: wasBluff}
	if wasBluff {
		result.Winner, result.Loser = challenger, s.LastPlay.Seat
		s.Logf("%s challenges %s... and was RIGHT! The cards were not all %s.",
			challenger, s.LastPlay.Seat, s.ReferenceRank)
	} else {
		result.Winner, result.Loser = s.LastPlay.Seat, challenger
		s.Logf("%s challenges %s... and was WRONG!", challenger, s.LastPlay.Seat)
	}

	result.Eliminated = s.roulette(result.Loser)

	s.DiscardPile = nil
	s.LastPlay = nil

	if s.Terminal() {
		return result, nil
	}

	// Round over: fresh deal to the survivors, winner acts first.
	s.Deal(rng)
	s.Logf("New cards dealt. Reference rank is %s.", s.ReferenceRank)
	s.setTurn(result.Winner)
	return result, nil
}

// roulette resolves one roulette pull for seat and reports whether it was
// eliminated. The chamber pointer never wraps: once it has passed the fatal
// chamber the seat cannot be eliminated again until a redeal resets it.
func (s *Snapshot) roulette(seat string) bool {
	player := s.Players[seat]
	if player.ChamberPointer != player.FatalChamber {
		player.ChamberPointer++
		s.Logf("%s survives the roulette.", seat)
		return false
	}

	player.Eliminated = true
	s.Logf("%s has been shot by the roulette and is eliminated!", seat)
	s.declareWinnerIfDecided()
	return true
}

// advanceTurn moves the cursor to the next non-eliminated seat, wrapping.
// If the seat about to act holds no cards the game ends immediately with
// that seat declared winner.
func (s *Snapshot) advanceTurn() {
	if s.declareWinnerIfDecided() {
		return
	}

	n := len(s.TurnOrder)
	s.CurrentTurnIndex = (s.CurrentTurnIndex + 1) % n
	for s.Players[s.TurnOrder[s.CurrentTurnIndex]].Eliminated {
		s.CurrentTurnIndex = (s.CurrentTurnIndex + 1) % n
	}

	next := s.TurnOrder[s.CurrentTurnIndex]
	if len(s.Players[next].Hand) == 0 {
		s.Winner = next
		s.Logf("%s has no cards left. Game over! Winner is %s.", next, next)
		return
	}
	s.Logf("It's %s's turn.", next)
}

// setTurn points the cursor at seat (the challenge winner).
func (s *Snapshot) setTurn(seat string) {
	if i := slices.Index(s.TurnOrder, seat); i >= 0 {
		s.CurrentTurnIndex = i
	}
	s.Logf("It's %s's turn.", seat)
}

// declareWinnerIfDecided sets the winner once at most one active seat
// remains. It is idempotent: a declared winner is never replaced.
func (s *Snapshot) declareWinnerIfDecided() bool {
	if s.Terminal() {
		return true
	}
	active := s.ActiveSeats()
	if len(active) != 1 {
		return false
	}
	s.Winner = active[0]
	s.CurrentTurnIndex = slices.Index(s.TurnOrder, active[0])
	s.Logf("Game over! Winner is %s.", s.Winner)
	return true
}
