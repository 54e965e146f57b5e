package room

import "errors"

// Errors reported to the acting player. None of them changes room state.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrPlayerNotInRoom    = errors.New("player not in room")
	ErrPowerUpUnavailable = errors.New("power-up unavailable")
	ErrUnknownPowerUp     = errors.New("unknown power-up")
	ErrUnknownAction      = errors.New("unknown action")
	ErrInternalScheduling = errors.New("no free room code")
)

// playerMessages is the text shown to players for each error.
var playerMessages = []struct {
	err     error
	message string
}{
	{ErrRoomNotFound, "Room not found."},
	{ErrRoomFull, "Room is full."},
	{ErrGameAlreadyStarted, "Game has already started."},
	{ErrPlayerNotInRoom, "Player is not in this room."},
	{ErrPowerUpUnavailable, "Power-up unavailable."},
	{ErrUnknownPowerUp, "Unknown power-up."},
	{ErrUnknownAction, "Unknown action."},
	{ErrInternalScheduling, "Could not allocate a room, please retry."},
}

// PlayerMessage returns the player-facing text for err. Errors without one
// are reported as "Something went wrong."
func PlayerMessage(err error) string {
	for _, m := range playerMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return "Something went wrong."
}
