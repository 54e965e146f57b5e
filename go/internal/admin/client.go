package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// Client calls the admin procedures of a running server.
type Client struct {
	listRooms *connect.Client[ListRoomsRequest, ListRoomsResponse]
	getRoom   *connect.Client[GetRoomRequest, GetRoomResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		listRooms: connect.NewClient[ListRoomsRequest, ListRoomsResponse](httpClient, baseURL+ListRoomsProcedure, opts...),
		getRoom:   connect.NewClient[GetRoomRequest, GetRoomResponse](httpClient, baseURL+GetRoomProcedure, opts...),
	}
}

// DefaultClient talks to baseURL with http.DefaultClient.
func DefaultClient(baseURL string) *Client {
	return NewClient(http.DefaultClient, baseURL)
}

func (c *Client) ListRooms(ctx context.Context, state string) ([]Room, error) {
	resp, err := c.listRooms.CallUnary(ctx, connect.NewRequest(&ListRoomsRequest{State: state}))
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return resp.Msg.Rooms, nil
}

func (c *Client) GetRoom(ctx context.Context, code string) (Room, error) {
	resp, err := c.getRoom.CallUnary(ctx, connect.NewRequest(&GetRoomRequest{Code: code}))
	if err != nil {
		return Room{}, fmt.Errorf("get room %s: %w", code, err)
	}
	return resp.Msg.Room, nil
}
