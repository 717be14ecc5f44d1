package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/liarsdeck/liarsdeck/internal/store"
)

// Document sub-keys within one game. The per-seat document lives under
// playerKeyPrefix + seat id.
const (
	keyGameStarted      = "game_started"
	keyTurnOrder        = "turn_order"
	keyAssignedSeats    = "assigned_seats"
	keyDiscardPile      = "discard_pile"
	keyCurrentTurnIndex = "current_turn_index"
	keyReferenceRank    = "reference_rank"
	keyLastPlay         = "last_play"
	keyWinner           = "winner"
	keyLog              = "log"
	keyUpdatedAt        = "updated_at"

	playerKeyPrefix = "player/"
)

// Player is the per-seat document.
type Player struct {
	Hand           []Rank `json:"hand"`
	FatalChamber   int    `json:"fatal_chamber"`
	ChamberPointer int    `json:"chamber_pointer"`
	Eliminated     bool   `json:"eliminated"`
	Credential     string `json:"credential"`
}

// Play records the most recent play, eligible to be challenged until the
// next play or round resolution.
type Play struct {
	Seat  string `json:"seat"`
	Cards []Rank `json:"cards"`
}

// Snapshot is the full game document graph, loaded fresh inside a store
// transaction and written back as a whole. Nothing caches a Snapshot across
// calls; freshness comes from Store.Update.
type Snapshot struct {
	Started          bool
	TurnOrder        []string
	AssignedSeats    []string
	DiscardPile      []Rank
	CurrentTurnIndex int
	ReferenceRank    Rank
	LastPlay         *Play
	Winner           string
	Log              []string
	UpdatedAt        time.Time
	Players          map[string]*Player
}

// RecentLogSize bounds how much of the append-only log is exposed to
// clients. The full history stays persisted.
const RecentLogSize = 5

// LoadSnapshot reads every game document through tx. Absent keys yield zero
// values, so a brand-new game id loads as an empty lobby.
func LoadSnapshot(tx store.Tx) (*Snapshot, error) {
	s := &Snapshot{Players: make(map[string]*Player)}

	if err := loadJSON(tx, keyGameStarted, &s.Started); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyTurnOrder, &s.TurnOrder); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyAssignedSeats, &s.AssignedSeats); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyDiscardPile, &s.DiscardPile); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyCurrentTurnIndex, &s.CurrentTurnIndex); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyReferenceRank, &s.ReferenceRank); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyLastPlay, &s.LastPlay); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyWinner, &s.Winner); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyLog, &s.Log); err != nil {
		return nil, err
	}
	if err := loadJSON(tx, keyUpdatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}

	for _, seat := range s.AssignedSeats {
		player := &Player{}
		if err := loadJSON(tx, playerKeyPrefix+seat, player); err != nil {
			return nil, err
		}
		s.Players[seat] = player
	}

	return s, nil
}

// Save writes the whole document graph back through tx.
func (s *Snapshot) Save(tx store.Tx) error {
	if err := saveJSON(tx, keyGameStarted, s.Started); err != nil {
		return err
	}
	if err := saveJSON(tx, keyTurnOrder, s.TurnOrder); err != nil {
		return err
	}
	if err := saveJSON(tx, keyAssignedSeats, s.AssignedSeats); err != nil {
		return err
	}
	if err := saveJSON(tx, keyDiscardPile, s.DiscardPile); err != nil {
		return err
	}
	if err := saveJSON(tx, keyCurrentTurnIndex, s.CurrentTurnIndex); err != nil {
		return err
	}
	if err := saveJSON(tx, keyReferenceRank, s.ReferenceRank); err != nil {
		return err
	}
	if err := saveJSON(tx, keyLastPlay, s.LastPlay); err != nil {
		return err
	}
	if err := saveJSON(tx, keyWinner, s.Winner); err != nil {
		return err
	}
	if err := saveJSON(tx, keyLog, s.Log); err != nil {
		return err
	}
	if err := saveJSON(tx, keyUpdatedAt, s.UpdatedAt); err != nil {
		return err
	}

	for seat, player := range s.Players {
		if err := saveJSON(tx, playerKeyPrefix+seat, player); err != nil {
			return err
		}
	}
	return nil
}

func loadJSON(tx store.Tx, key string, dst any) error {
	raw, ok, err := tx.Get(key)
	if err != nil {
		return fmt.Errorf("load %q: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func saveJSON(tx store.Tx, key string, src any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := tx.Set(key, raw); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// RecentLog returns the client-visible suffix of the event log.
func (s *Snapshot) RecentLog() []string {
	if len(s.Log) <= RecentLogSize {
		return s.Log
	}
	return s.Log[len(s.Log)-RecentLogSize:]
}

// Logf appends a formatted entry to the append-only event log.
func (s *Snapshot) Logf(format string, args ...any) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}
