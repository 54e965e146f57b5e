package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/wordbingo/go/internal/room"
)

type fakeRooms struct {
	rooms []room.Snapshot
}

func (f *fakeRooms) Snapshot(code string) (room.Snapshot, error) {
	for _, r := range f.rooms {
		if r.Code == code {
			return r, nil
		}
	}
	return room.Snapshot{}, room.ErrRoomNotFound
}

func (f *fakeRooms) Snapshots() []room.Snapshot { return f.rooms }

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rooms := &fakeRooms{rooms: []room.Snapshot{
		{Code: "AAAAA", State: "lobby", WordsRemaining: 11, CreatedAt: created},
		{Code: "BBBBB", State: "playing", WordsDrawn: 3, WordsRemaining: 8, SecondsLeft: 120,
			Players: []room.PlayerView{{ID: "p1", Name: "Ann", Score: 15}}, CreatedAt: created},
	}}

	mux := http.NewServeMux()
	mux.Handle(NewHandler(NewService(rooms)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.Client(), srv.URL)
}

func TestListRooms(t *testing.T) {
	_, client := newTestServer(t)

	all, err := client.ListRooms(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	playing, err := client.ListRooms(context.Background(), "playing")
	require.NoError(t, err)
	require.Len(t, playing, 1)
	assert.Equal(t, "BBBBB", playing[0].Code)
	assert.Equal(t, 120, playing[0].SecondsLeft)

	_, err = client.ListRooms(context.Background(), "sleeping")
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestGetRoom(t *testing.T) {
	_, client := newTestServer(t)

	got, err := client.GetRoom(context.Background(), "BBBBB")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Players[0].Name)

	_, err = client.GetRoom(context.Background(), "ZZZZZ")
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.GetRoom(context.Background(), "")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestPlainJSONPost(t *testing.T) {
	srv, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"code":"AAAAA"}`)
	resp, err := srv.Client().Post(srv.URL+GetRoomProcedure, "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out GetRoomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "lobby", out.Room.State)
	assert.Equal(t, 11, out.Room.WordsRemaining)
}
