// Package session manages seat assignment, credential issuance and the
// lobby-to-active transition, and routes every game mutation through the
// store's per-game lock.
package session

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/liarsdeck/liarsdeck/internal/game"
	"github.com/liarsdeck/liarsdeck/internal/randutil"
	"github.com/liarsdeck/liarsdeck/internal/store"
	"github.com/liarsdeck/liarsdeck/internal/token"
)

// seatPool is the fixed seat pool. Seats are handed out in pool order and
// never reassigned within a game.
var seatPool = []string{"player1", "player2", "player3", "player4"}

// ErrBadCredential is returned when a caller's credential does not match the
// one bound to the seat.
var ErrBadCredential = fmt.Errorf("%w: invalid credential", game.ErrValidation)

// MinPlayers is the smallest seat count a game can start with.
const MinPlayers = 2

// Manager holds only a store handle plus injected collaborators; all game
// state is re-read from the store under the game lock on every call, so any
// number of stateless workers can share one game.
type Manager struct {
	store  store.Store
	gameID string
	logger *log.Logger
	clock  quartz.Clock

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock injects a clock, letting tests pin document timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithRand injects a seeded RNG for deterministic deals.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// NewManager creates a manager for one game id.
func NewManager(st store.Store, gameID string, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  st,
		gameID: gameID,
		logger: logger.WithPrefix("session"),
		clock:  quartz.NewReal(),
		rng:    randutil.New(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GameID returns the game this manager serves.
func (m *Manager) GameID() string {
	return m.gameID
}

// Seat is what a successful join hands back to the caller.
type Seat struct {
	SeatID     string `json:"player_id"`
	Credential string `json:"key"`
}

// Join assigns the next unused seat in pool order and issues a credential
// bound to it. Fails with a capacity error once all seats are taken.
func (m *Manager) Join(ctx context.Context) (*Seat, error) {
	var seat *Seat
	err := m.store.Update(ctx, m.gameID, func(tx store.Tx) error {
		snap, err := game.LoadSnapshot(tx)
		if err != nil {
			return err
		}
		if snap.Started {
			return fmt.Errorf("%w: game already started", game.ErrPrecondition)
		}
		if len(snap.AssignedSeats) >= len(seatPool) {
			return fmt.Errorf("%w: all seats are taken", game.ErrCapacity)
		}

		id := seatPool[len(snap.AssignedSeats)]
		seat = &Seat{SeatID: id, Credential: token.NewCredential()}

		snap.AssignedSeats = append(snap.AssignedSeats, id)
		snap.Players[id] = &game.Player{Credential: seat.Credential}
		snap.Logf("%s joined the lobby.", id)
		snap.UpdatedAt = m.clock.Now()
		return snap.Save(tx)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("seat joined", "game", m.gameID, "seat", seat.SeatID)
	return seat, nil
}

// Start locks turn order to the join order and deals the first round.
// With fewer than MinPlayers joined it fails and the lobby stays open.
func (m *Manager) Start(ctx context.Context) error {
	var reference game.Rank
	err := m.store.Update(ctx, m.gameID, func(tx store.Tx) error {
		snap, err := game.LoadSnapshot(tx)
		if err != nil {
			return err
		}
		if snap.Started {
			return fmt.Errorf("%w: game already started", game.ErrPrecondition)
		}
		if len(snap.AssignedSeats) < MinPlayers {
			return fmt.Errorf("%w: need >=%d players", game.ErrPrecondition, MinPlayers)
		}

		snap.TurnOrder = append([]string(nil), snap.AssignedSeats...)
		snap.Started = true
		snap.CurrentTurnIndex = 0
		m.withRNG(func(rng *rand.Rand) { snap.Deal(rng) })
		snap.Logf("Game started. Reference rank is %s.", snap.ReferenceRank)
		snap.Logf("It's %s's turn.", snap.CurrentTurnSeat())
		snap.UpdatedAt = m.clock.Now()

		reference = snap.ReferenceRank
		return snap.Save(tx)
	})
	if err != nil {
		return err
	}

	m.logger.Info("game started", "game", m.gameID, "reference_rank", reference)
	return nil
}

// Play validates the caller's credential and plays cards for its seat.
func (m *Manager) Play(ctx context.Context, seatID, credential string, cards []game.Rank) error {
	err := m.store.Update(ctx, m.gameID, func(tx store.Tx) error {
		snap, err := game.LoadSnapshot(tx)
		if err != nil {
			return err
		}
		if err := checkCredential(snap, seatID, credential); err != nil {
			return err
		}
		if err := snap.PlayCards(seatID, cards); err != nil {
			return err
		}
		snap.UpdatedAt = m.clock.Now()
		return snap.Save(tx)
	})
	if err != nil {
		return err
	}

	m.logger.Info("cards played", "game", m.gameID, "seat", seatID, "count", len(cards))
	return nil
}

// Challenge validates the caller's credential and challenges the last play.
func (m *Manager) Challenge(ctx context.Context, seatID, credential string) (*game.ChallengeResult, error) {
	var result *game.ChallengeResult
	err := m.store.Update(ctx, m.gameID, func(tx store.Tx) error {
		snap, err := game.LoadSnapshot(tx)
		if err != nil {
			return err
		}
		if err := checkCredential(snap, seatID, credential); err != nil {
			return err
		}
		m.withRNG(func(rng *rand.Rand) {
			result, err = snap.Challenge(seatID, rng)
		})
		if err != nil {
			return err
		}
		snap.UpdatedAt = m.clock.Now()
		return snap.Save(tx)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("challenge resolved",
		"game", m.gameID,
		"challenger", seatID,
		"winner", result.Winner,
		"loser", result.Loser,
		"was_bluff", result.WasBluff)
	return result, nil
}

// StateView is the client-facing projection of a game. The hand is only
// populated when the caller presented the seat's credential.
type StateView struct {
	GameStarted     bool           `json:"game_started"`
	JoinedSeats     []string       `json:"joined_seats"`
	YourHand        []game.Rank    `json:"your_hand,omitempty"`
	CardCounts      map[string]int `json:"all_players_card_count,omitempty"`
	EliminatedSeats []string       `json:"players_eliminated"`
	PileCount       int            `json:"card_pile_count"`
	CurrentTurn     string         `json:"current_turn,omitempty"`
	ReferenceRank   game.Rank      `json:"reference_rank,omitempty"`
	Winner          string         `json:"game_winner,omitempty"`
	RecentLog       []string       `json:"log"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// State returns a read-only view for one seat. No game lock is taken; a
// recent snapshot is good enough for display.
func (m *Manager) State(ctx context.Context, seatID, credential string) (*StateView, error) {
	var view *StateView
	err := m.store.View(ctx, m.gameID, func(tx store.Tx) error {
		snap, err := game.LoadSnapshot(tx)
		if err != nil {
			return err
		}

		view = &StateView{
			GameStarted:     snap.Started,
			JoinedSeats:     snap.AssignedSeats,
			EliminatedSeats: []string{},
			PileCount:       len(snap.DiscardPile),
			CurrentTurn:     snap.CurrentTurnSeat(),
			Winner:          snap.Winner,
			RecentLog:       snap.RecentLog(),
			UpdatedAt:       snap.UpdatedAt,
		}
		if !snap.Started {
			return nil
		}

		view.ReferenceRank = snap.ReferenceRank
		view.CardCounts = make(map[string]int, len(snap.Players))
		for id, p := range snap.Players {
			view.CardCounts[id] = len(p.Hand)
			if p.Eliminated {
				view.EliminatedSeats = append(view.EliminatedSeats, id)
			}
		}
		if p, ok := snap.Players[seatID]; ok && token.Equal(credential, p.Credential) {
			view.YourHand = append([]game.Rank(nil), p.Hand...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Reset wipes the game's documents so a fresh lobby can form.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.gameID); err != nil {
		return err
	}
	m.logger.Info("game reset", "game", m.gameID)
	return nil
}

func (m *Manager) withRNG(fn func(*rand.Rand)) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	fn(m.rng)
}

// checkCredential rejects a caller whose credential does not match the one
// bound to the seat. It runs before any mutation, so mismatches have no
// side effects.
func checkCredential(snap *game.Snapshot, seatID, credential string) error {
	player, ok := snap.Players[seatID]
	if !ok {
		return fmt.Errorf("%w: unknown seat %q", game.ErrValidation, seatID)
	}
	if !token.Equal(credential, player.Credential) {
		return ErrBadCredential
	}
	return nil
}
