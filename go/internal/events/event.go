package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a room lifecycle event. It is also the last token of the
// JetStream subject the event is published on.
type Type string

const (
	RoomCreated  Type = "room_created"
	GameStarted  Type = "game_started"
	GameFinished Type = "game_finished"
	RoomClosed   Type = "room_closed"
)

// Event is a room lifecycle fact produced by the game engine.
type Event struct {
	ID         uuid.UUID       `json:"eventId"`
	Type       Type            `json:"eventType"`
	RoomCode   string          `json:"roomCode"`
	OccurredAt time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// New builds an event with a fresh id and the JSON encoding of payload.
func New(t Type, roomCode string, occurredAt time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{
		ID:         uuid.New(),
		Type:       t,
		RoomCode:   roomCode,
		OccurredAt: occurredAt.UTC(),
		Payload:    data,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
