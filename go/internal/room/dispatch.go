package room

import (
	"errors"

	"github.com/rs/zerolog/log"
)

// Dispatch runs one decoded action on behalf of a connection. Failures the
// player should know about are sent back to that player only; actions aimed at
// a room the player is not in are dropped.
func (reg *Registry) Dispatch(id PlayerID, action Action) {
	var err error

	switch a := action.(type) {
	case CreateRoom:
		_, err = reg.CreateRoom(id, a.PlayerName)
	case JoinRoom:
		err = reg.JoinRoom(id, a.RoomCode, a.PlayerName)
	case Disconnect:
		reg.Disconnect(id)
	default:
		err = reg.RouteAction(id, action)
		if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrPlayerNotInRoom) {
			log.Debug().
				Err(err).
				Str("player_id", string(id)).
				Str("action", string(action.Type())).
				Msg("dropping action")
			return
		}
	}

	if err == nil {
		return
	}

	event := log.Warn()
	if IsClientError(err) {
		event = log.Debug()
	}
	event.Err(err).
		Str("player_id", string(id)).
		Str("action", string(action.Type())).
		Msg("action rejected")

	reg.notifier.SendTo(id, NewErrorNotification(err))
}
