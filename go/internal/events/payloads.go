package events

import "time"

// Payload types shared between the room engine and event consumers.

// RoomCreatedPayload is the payload for a RoomCreated event
type RoomCreatedPayload struct {
	RoomCode  string    `json:"room_code"`
	HostName  string    `json:"host_name"`
	CreatedAt time.Time `json:"created_at"`
}

// GameStartedPayload is the payload for a GameStarted event
type GameStartedPayload struct {
	RoomCode        string    `json:"room_code"`
	Players         []string  `json:"players"`
	CardSize        int       `json:"card_size"`
	VocabularySize  int       `json:"vocabulary_size"`
	WordDurationSec int       `json:"word_duration_sec"`
	GameDurationSec int       `json:"game_duration_sec"`
	StartedAt       time.Time `json:"started_at"`
}

// Standing is one leaderboard row.
type Standing struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// DrawnWord is one entry of a room's draw history.
type DrawnWord struct {
	Index      int    `json:"index"`
	Word       string `json:"word"`
	AnsweredBy string `json:"answeredBy,omitempty"`
}

// GameFinishedPayload is the payload for a GameFinished event
type GameFinishedPayload struct {
	RoomCode    string      `json:"room_code"`
	Reason      string      `json:"reason"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Leaderboard []Standing  `json:"leaderboard"`
	DrawnWords  []DrawnWord `json:"drawn_words"`
}

// RoomClosedPayload is the payload for a RoomClosed event
type RoomClosedPayload struct {
	RoomCode string    `json:"room_code"`
	Reason   string    `json:"reason"`
	ClosedAt time.Time `json:"closed_at"`
}
