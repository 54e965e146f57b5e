package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/wordbingo/go/internal/admin"
)

func newTestServer(t *testing.T) (*httptest.Server, *Services) {
	t.Helper()
	clearConfigEnv(t)
	cfg, err := loadConfig("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	services, err := setupServices(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, services.Start(ctx))

	srv := httptest.NewServer(setupHandler(cfg, services))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		services.Close()
	})
	return srv, services
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestServer_CORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://play.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_AdminProcedures(t *testing.T) {
	srv, services := newTestServer(t)
	client := admin.NewClient(srv.Client(), srv.URL)
	ctx := context.Background()

	rooms, err := client.ListRooms(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rooms)

	code, err := services.Registry.CreateRoom("p1", "Ana")
	require.NoError(t, err)

	rooms, err = client.ListRooms(ctx, "lobby")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, code, rooms[0].Code)

	got, err := client.GetRoom(ctx, code)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, "Ana", got.Players[0].Name)

	_, err = client.GetRoom(ctx, "NOPE0")
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestServer_WebSocketThroughFullStack(t *testing.T) {
	srv, services := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"createRoom","data":{"playerName":"Ana"}}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type string `json:"type"`
		Data struct {
			RoomCode string `json:"roomCode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "roomCreated", frame.Type)
	require.NotEmpty(t, frame.Data.RoomCode)

	snap, err := services.Registry.Snapshot(frame.Data.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, "lobby", snap.State)
}

func TestServer_ReadinessAndMetrics(t *testing.T) {
	srv, services := newTestServer(t)
	_, err := services.Registry.CreateRoom("p1", "Ana")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Healthy bool           `json:"healthy"`
		Rooms   map[string]int `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.Rooms["lobby"])

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wordbingo_rooms{state=\"lobby\"} 1\n")
}
