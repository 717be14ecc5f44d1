package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liarsdeck/liarsdeck/internal/randutil"
	"github.com/liarsdeck/liarsdeck/internal/session"
	"github.com/liarsdeck/liarsdeck/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	logger := log.NewWithOptions(io.Discard, log.Options{})
	sessions := session.NewManager(st, "test-game", logger,
		session.WithRand(randutil.New(1)))

	ts := httptest.NewServer(NewServer("", sessions, logger).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func getState(t *testing.T, ts *httptest.Server, seatID, key string) (int, map[string]any) {
	t.Helper()
	url := fmt.Sprintf("%s/game/state?player_id=%s&key=%s", ts.URL, seatID, key)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func joinSeat(t *testing.T, ts *httptest.Server) (seatID, key string) {
	t.Helper()
	status, body := postJSON(t, ts, "/game/join", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	return body["player_id"].(string), body["key"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJoinHandsOutSeats(t *testing.T) {
	ts := newTestServer(t)

	for i := 1; i <= 4; i++ {
		status, body := postJSON(t, ts, "/game/join", map[string]any{})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "OK", body["status"])
		assert.Equal(t, fmt.Sprintf("player%d", i), body["player_id"])
		assert.NotEmpty(t, body["key"])
	}

	status, body := postJSON(t, ts, "/game/join", map[string]any{})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ERROR", body["status"])
}

func TestStartTooEarly(t *testing.T) {
	ts := newTestServer(t)
	joinSeat(t, ts)

	status, body := postJSON(t, ts, "/game/start", map[string]any{})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ERROR", body["status"])
}

func TestMalformedBodyRejected(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/game/play", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlayStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	seat1, key1 := joinSeat(t, ts)
	joinSeat(t, ts)

	status, _ := postJSON(t, ts, "/game/start", map[string]any{})
	require.Equal(t, http.StatusOK, status)

	_, state := getState(t, ts, seat1, key1)
	hand := state["your_hand"].([]any)
	require.NotEmpty(t, hand)
	card := hand[0].(string)

	t.Run("bad credential is unauthorized", func(t *testing.T) {
		status, body := postJSON(t, ts, "/game/play", map[string]any{
			"player_id": seat1, "key": "wrong", "cards": []string{card},
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "ERROR", body["status"])
	})

	t.Run("unknown rank is a bad request", func(t *testing.T) {
		status, _ := postJSON(t, ts, "/game/play", map[string]any{
			"player_id": seat1, "key": key1, "cards": []string{"Joker"},
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("valid play succeeds", func(t *testing.T) {
		status, body := postJSON(t, ts, "/game/play", map[string]any{
			"player_id": seat1, "key": key1, "cards": []string{card},
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "OK", body["status"])
	})

	t.Run("playing out of turn is a bad request", func(t *testing.T) {
		status, _ := postJSON(t, ts, "/game/play", map[string]any{
			"player_id": seat1, "key": key1, "cards": []string{card},
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestChallengeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	seat1, key1 := joinSeat(t, ts)
	seat2, key2 := joinSeat(t, ts)

	status, _ := postJSON(t, ts, "/game/start", map[string]any{})
	require.Equal(t, http.StatusOK, status)

	t.Run("nothing to challenge yet", func(t *testing.T) {
		status, _ := postJSON(t, ts, "/game/challenge", map[string]any{
			"player_id": seat2, "key": key2,
		})
		assert.Equal(t, http.StatusConflict, status)
	})

	_, state := getState(t, ts, seat1, key1)
	card := state["your_hand"].([]any)[0].(string)
	status, _ = postJSON(t, ts, "/game/play", map[string]any{
		"player_id": seat1, "key": key1, "cards": []string{card},
	})
	require.Equal(t, http.StatusOK, status)

	t.Run("challenge resolves", func(t *testing.T) {
		status, body := postJSON(t, ts, "/game/challenge", map[string]any{
			"player_id": seat2, "key": key2,
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "OK", body["status"])
		assert.ElementsMatch(t,
			[]any{seat1, seat2},
			[]any{body["challenge_winner"], body["challenge_loser"]})
	})
}

func TestStateVisibility(t *testing.T) {
	ts := newTestServer(t)
	seat1, key1 := joinSeat(t, ts)
	joinSeat(t, ts)

	status, _ := postJSON(t, ts, "/game/start", map[string]any{})
	require.Equal(t, http.StatusOK, status)

	t.Run("spectator sees counts but no hand", func(t *testing.T) {
		status, state := getState(t, ts, "", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, state["game_started"])
		assert.Nil(t, state["your_hand"])
		assert.NotEmpty(t, state["all_players_card_count"])
	})

	t.Run("seat with credential sees its hand", func(t *testing.T) {
		status, state := getState(t, ts, seat1, key1)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, state["your_hand"])
	})
}

func TestResetEndpoint(t *testing.T) {
	ts := newTestServer(t)
	joinSeat(t, ts)
	joinSeat(t, ts)

	status, _ := postJSON(t, ts, "/game/start", map[string]any{})
	require.Equal(t, http.StatusOK, status)

	status, body := postJSON(t, ts, "/game/reset", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])

	status, state := getState(t, ts, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, state["game_started"])
}
