package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/liarsdeck/liarsdeck/internal/session"
)

// ClientCmd fetches game state over HTTP and renders it for a terminal.
type ClientCmd struct {
	Addr     string        `kong:"default='http://localhost:8181',help='Base URL of the relay or a worker'"`
	SeatID   string        `kong:"name='player',help='Seat id to view the game as'"`
	Key      string        `kong:"help='Credential for the seat; required to see your hand'"`
	Watch    bool          `kong:"help='Re-fetch and re-render periodically'"`
	Interval time.Duration `kong:"default='2s',help='Polling interval with --watch'"`
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	turnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	deadStyle   = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("240"))
	winnerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	logStyle    = lipgloss.NewStyle().Faint(true)
)

func (c *ClientCmd) Run() error {
	for {
		view, err := c.fetchState()
		if err != nil {
			return err
		}
		fmt.Println(renderState(view, c.SeatID))
		if !c.Watch {
			return nil
		}
		time.Sleep(c.Interval)
	}
}

func (c *ClientCmd) fetchState() (*session.StateView, error) {
	u, err := url.Parse(c.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", c.Addr, err)
	}
	u.Path = "/game/state"
	q := u.Query()
	if c.SeatID != "" {
		q.Set("player_id", c.SeatID)
	}
	if c.Key != "" {
		q.Set("key", c.Key)
	}
	u.RawQuery = q.Encode()

	resp, err := http.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch state: server returned %s", resp.Status)
	}

	var view session.StateView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &view, nil
}

func renderState(view *session.StateView, viewer string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Liar's Deck"))
	b.WriteString("\n\n")

	if !view.GameStarted {
		b.WriteString(labelStyle.Render("Lobby: "))
		if len(view.JoinedSeats) == 0 {
			b.WriteString("no players yet")
		} else {
			b.WriteString(strings.Join(view.JoinedSeats, ", "))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(labelStyle.Render("Reference rank: "))
	b.WriteString(string(view.ReferenceRank))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Pile: "))
	fmt.Fprintf(&b, "%d cards\n", view.PileCount)

	eliminated := make(map[string]bool, len(view.EliminatedSeats))
	for _, id := range view.EliminatedSeats {
		eliminated[id] = true
	}

	seats := make([]string, 0, len(view.CardCounts))
	for id := range view.CardCounts {
		seats = append(seats, id)
	}
	sort.Strings(seats)

	b.WriteString("\n")
	for _, id := range seats {
		line := fmt.Sprintf("%s: %d cards", id, view.CardCounts[id])
		switch {
		case eliminated[id]:
			line = deadStyle.Render(line + " (eliminated)")
		case id == view.CurrentTurn:
			line = turnStyle.Render(line + " <- to act")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(view.YourHand) > 0 {
		hand := make([]string, len(view.YourHand))
		for i, r := range view.YourHand {
			hand[i] = string(r)
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Your hand: "))
		b.WriteString(strings.Join(hand, " "))
		b.WriteString("\n")
	} else if viewer != "" {
		b.WriteString("\n")
		b.WriteString(logStyle.Render("(hand hidden; pass --key to see it)"))
		b.WriteString("\n")
	}

	if view.Winner != "" {
		b.WriteString("\n")
		b.WriteString(winnerStyle.Render(fmt.Sprintf("%s wins the game!", view.Winner)))
		b.WriteString("\n")
	}

	if len(view.RecentLog) > 0 {
		b.WriteString("\n")
		for _, line := range view.RecentLog {
			b.WriteString(logStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	return b.String()
}
