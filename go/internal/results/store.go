package results

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/wordbingo/go/internal/events"
)

// Game is the archived outcome of one finished game.
type Game struct {
	ID          uuid.UUID          `json:"id"`
	RoomCode    string             `json:"room_code"`
	Reason      string             `json:"reason"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Leaderboard []events.Standing  `json:"leaderboard"`
	DrawnWords  []events.DrawnWord `json:"drawn_words"`
}

// Winner returns the top leaderboard entry, if any.
func (g Game) Winner() (events.Standing, bool) {
	if len(g.Leaderboard) == 0 {
		return events.Standing{}, false
	}
	return g.Leaderboard[0], true
}

// Store persists finished games.
type Store interface {
	// SaveGame stores g. Saving the same game id twice is not an error.
	SaveGame(ctx context.Context, g Game) error
	// RecentGames returns up to limit games, most recently finished first.
	RecentGames(ctx context.Context, limit int) ([]Game, error)
}
