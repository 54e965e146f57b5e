package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/room"
)

// RoomSource is the read-only view of live rooms the admin API serves.
type RoomSource interface {
	Snapshot(code string) (room.Snapshot, error)
	Snapshots() []room.Snapshot
}

// Service implements the admin procedures.
type Service struct {
	rooms RoomSource
}

func NewService(rooms RoomSource) *Service {
	return &Service{rooms: rooms}
}

func (s *Service) ListRooms(ctx context.Context, req *connect.Request[ListRoomsRequest]) (*connect.Response[ListRoomsResponse], error) {
	filter := req.Msg.State
	switch filter {
	case "", room.StateLobby.String(), room.StatePlaying.String(), room.StateFinished.String():
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown state %q", filter))
	}

	rooms := make([]room.Snapshot, 0)
	for _, snap := range s.rooms.Snapshots() {
		if filter == "" || snap.State == filter {
			rooms = append(rooms, snap)
		}
	}
	return connect.NewResponse(&ListRoomsResponse{Rooms: rooms}), nil
}

func (s *Service) GetRoom(ctx context.Context, req *connect.Request[GetRoomRequest]) (*connect.Response[GetRoomResponse], error) {
	if req.Msg.Code == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("code is required"))
	}

	snap, err := s.rooms.Snapshot(req.Msg.Code)
	if errors.Is(err, room.ErrRoomNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		log.Error().Err(err).Str("room_code", req.Msg.Code).Msg("failed to load room snapshot")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&GetRoomResponse{Room: snap}), nil
}

// NewHandler builds the HTTP handler for every admin procedure and returns the
// path prefix to mount it on.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListRoomsProcedure, connect.NewUnaryHandler(ListRoomsProcedure, svc.ListRooms, opts...))
	mux.Handle(GetRoomProcedure, connect.NewUnaryHandler(GetRoomProcedure, svc.GetRoom, opts...))
	return "/" + ServiceName + "/", mux
}
