package room

import (
	"encoding/json"

	"github.com/mcdev12/wordbingo/go/internal/events"
)

// NotificationType names an outbound server message on the wire.
type NotificationType string

const (
	NotifyRoomCreated      NotificationType = "roomCreated"
	NotifyJoinedRoom       NotificationType = "joinedRoom"
	NotifyError            NotificationType = "error"
	NotifyPlayerUpdate     NotificationType = "playerUpdate"
	NotifyGameStart        NotificationType = "gameStart"
	NotifyGameTimerUpdate  NotificationType = "gameTimerUpdate"
	NotifyNewWord          NotificationType = "newWord"
	NotifyCorrectGuess     NotificationType = "correctGuess"
	NotifyIncorrectGuess   NotificationType = "incorrectGuess"
	NotifyFirstAnswerBonus NotificationType = "firstAnswerBonus"
	NotifyPowerUpResult    NotificationType = "powerUpResult"
	NotifyGameOver         NotificationType = "gameOver"
)

// Notification is one outbound message. Data holds one of the *Payload types.
type Notification struct {
	Type NotificationType `json:"type"`
	Data any              `json:"data"`
}

// Marshal encodes the notification as a JSON frame.
func (n Notification) Marshal() ([]byte, error) {
	return json.Marshal(n)
}

// Notifier is the transport collaborator. Implementations must preserve the
// call order per connection and must not block for long: rooms call it while
// holding their lock.
type Notifier interface {
	// Subscribe adds a connection to a room's broadcast group.
	Subscribe(roomCode string, id PlayerID)
	// Unsubscribe removes a connection from a room's broadcast group.
	Unsubscribe(roomCode string, id PlayerID)
	// SendTo delivers a notification to a single connection.
	SendTo(id PlayerID, n Notification)
	// Broadcast delivers a notification to every connection in a room.
	Broadcast(roomCode string, n Notification)
}

// PlayerView is the public part of a player.
type PlayerView struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Score int      `json:"score"`
}

type RoomJoinedPayload struct {
	RoomCode string       `json:"roomCode"`
	Players  []PlayerView `json:"players"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerUpdatePayload struct {
	Players []PlayerView `json:"players"`
}

type GameStartPayload struct {
	Card []string `json:"card"`
}

type GameTimerUpdatePayload struct {
	SecondsLeft int `json:"secondsLeft"`
}

type NewWordPayload struct {
	Word            string `json:"word"`
	DurationSeconds int    `json:"durationSeconds"`
}

type GuessPayload struct {
	CellIndex int `json:"cellIndex"`
	NewScore  int `json:"newScore"`
}

type FirstAnswerBonusPayload struct {
	PlayerName string `json:"playerName"`
}

type PowerUpResultPayload struct {
	Type             PowerUpKind `json:"type"`
	CellsToRemove    []int       `json:"cellsToRemove"`
	RemainingCharges int         `json:"remainingCharges"`
}

// Standing is one leaderboard row.
type Standing = events.Standing

// DrawnWord is one entry of a room's draw history.
type DrawnWord = events.DrawnWord

type GameOverPayload struct {
	Reason      EndReason   `json:"reason"`
	Message     string      `json:"message"`
	Leaderboard []Standing  `json:"leaderboard"`
	DrawnWords  []DrawnWord `json:"drawnWords"`
}

func newNotification(t NotificationType, data any) Notification {
	return Notification{Type: t, Data: data}
}

// NewErrorNotification wraps an error for the acting player.
func NewErrorNotification(err error) Notification {
	return NewErrorText(PlayerMessage(err))
}

// NewErrorText builds an error notification carrying message as is.
func NewErrorText(message string) Notification {
	return newNotification(NotifyError, ErrorPayload{Message: message})
}
