package results

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/events"
)

// Recorder archives every GameFinished event it is handed. It is an
// events.Publisher, so the relay retries failed saves.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Publish(ctx context.Context, event events.Event) error {
	if event.Type != events.GameFinished {
		return nil
	}

	var payload events.GameFinishedPayload
	if err := event.Decode(&payload); err != nil {
		// Malformed payloads are dropped, not retried.
		log.Error().Err(err).Str("event_id", event.ID.String()).Msg("dropping malformed game result")
		return nil
	}

	g := Game{
		ID:          event.ID,
		RoomCode:    payload.RoomCode,
		Reason:      payload.Reason,
		StartedAt:   payload.StartedAt,
		FinishedAt:  payload.FinishedAt,
		Leaderboard: payload.Leaderboard,
		DrawnWords:  payload.DrawnWords,
	}
	if err := r.store.SaveGame(ctx, g); err != nil {
		return fmt.Errorf("archive game %s: %w", g.RoomCode, err)
	}

	log.Info().
		Str("room_code", g.RoomCode).
		Str("reason", g.Reason).
		Int("players", len(g.Leaderboard)).
		Msg("game result archived")
	return nil
}
