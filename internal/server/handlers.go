package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/liarsdeck/liarsdeck/internal/game"
	"github.com/liarsdeck/liarsdeck/internal/session"
)

// playRequest is the body of POST /game/play.
type playRequest struct {
	SeatID     string   `json:"player_id"`
	Credential string   `json:"key"`
	Cards      []string `json:"cards"`
}

// actRequest is the body of POST /game/challenge.
type actRequest struct {
	SeatID     string `json:"player_id"`
	Credential string `json:"key"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	seat, err := s.sessions.Join(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"player_id": seat.SeatID,
		"key":       seat.Credential,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"message": "Game started successfully.",
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if !s.decode(w, r, &req) {
		return
	}

	cards := make([]game.Rank, 0, len(req.Cards))
	for _, raw := range req.Cards {
		rank, err := game.ParseRank(raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %s", game.ErrValidation, err))
			return
		}
		cards = append(cards, rank)
	}

	if err := s.sessions.Play(r.Context(), req.SeatID, req.Credential, cards); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "OK"})
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req actRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.sessions.Challenge(r.Context(), req.SeatID, req.Credential)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "OK",
		"challenge_winner": result.Winner,
		"challenge_loser":  result.Loser,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	seatID := r.URL.Query().Get("player_id")
	credential := r.URL.Query().Get("key")

	view, err := s.sessions.State(r.Context(), seatID, credential)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Reset(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "OK"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "ERROR",
			"message": "invalid JSON body",
		})
		return false
	}
	return true
}

// writeError maps the game error taxonomy onto HTTP statuses. Everything in
// the taxonomy is a recoverable rejection; anything else is an internal
// fault that must not leak detail to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, session.ErrBadCredential):
		status = http.StatusUnauthorized
	case errors.Is(err, game.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrCapacity):
		status = http.StatusConflict
	case errors.Is(err, game.ErrPrecondition):
		status = http.StatusConflict
	case errors.Is(err, game.ErrTerminalState):
		status = http.StatusConflict
	default:
		s.logger.Error("internal fault", "error", err)
		message = "internal server error"
	}

	s.writeJSON(w, status, map[string]any{
		"status":  "ERROR",
		"message": message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
