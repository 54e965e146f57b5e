package admin

import "github.com/mcdev12/wordbingo/go/internal/room"

const (
	ServiceName = "wordbingo.admin.v1.AdminService"

	ListRoomsProcedure = "/" + ServiceName + "/ListRooms"
	GetRoomProcedure   = "/" + ServiceName + "/GetRoom"
)

// Room is the admin view of one live room.
type Room = room.Snapshot

type ListRoomsRequest struct {
	// State filters by lifecycle state ("lobby", "playing", "finished"). Empty
	// means every room.
	State string `json:"state,omitempty"`
}

type ListRoomsResponse struct {
	Rooms []Room `json:"rooms"`
}

type GetRoomRequest struct {
	Code string `json:"code"`
}

type GetRoomResponse struct {
	Room Room `json:"room"`
}
