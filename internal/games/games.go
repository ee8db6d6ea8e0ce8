// Package games defines the persisted game record and the collaborators the
// schedule engine reads from and writes to.
package games

import (
	"context"
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPlayed    Status = "played"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusPlayed, StatusCanceled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown game status %q", s)
	}
}

// Game is one persisted game of a division's season.
type Game struct {
	ID         string
	DivisionID string
	Week       int
	Start      time.Time
	End        time.Time
	LocationID string
	Status     Status
	// Locked is set once a score exists or an admin edited the game by hand.
	// Regeneration never overwrites or deletes a locked game.
	Locked bool
}

// Date returns the game's calendar date in the location of its start time.
func (g Game) Date() time.Time {
	y, m, d := g.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.Start.Location())
}

func (g Game) String() string {
	return fmt.Sprintf("%s week %d %s %s-%s @ %s",
		g.DivisionID, g.Week, g.Start.Format("2006-01-02"),
		g.Start.Format("15:04"), g.End.Format("15:04"), g.LocationID)
}

// Batch is the set of writes produced by one regeneration of one division.
type Batch struct {
	Create []Game
	Update []Game
	Delete []Game
}

func (b Batch) Empty() bool {
	return len(b.Create) == 0 && len(b.Update) == 0 && len(b.Delete) == 0
}

// Store is the durable home of games.
type Store interface {
	ListGamesForDivision(ctx context.Context, divisionID string) ([]Game, error)
	// ListGamesBetween returns every division's games overlapping [from, to).
	ListGamesBetween(ctx context.Context, from, to time.Time) ([]Game, error)
	// ApplyBatch writes the whole batch or nothing.
	ApplyBatch(ctx context.Context, divisionID string, b Batch) error
}

// LocationDirectory resolves the physical location a game occupies.
type LocationDirectory interface {
	LocationOf(g Game) string
}

// LocationFunc adapts a function to LocationDirectory.
type LocationFunc func(g Game) string

func (f LocationFunc) LocationOf(g Game) string { return f(g) }

// GameLocation uses the location recorded on the game itself.
var GameLocation = LocationFunc(func(g Game) string { return g.LocationID })
