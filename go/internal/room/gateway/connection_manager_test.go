package gateway

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/wordbingo/go/internal/room"
)

func newIdleConnection(cm *ConnectionManager, id room.PlayerID, buffer int) *Connection {
	conn := &Connection{
		ID:          id,
		Send:        make(chan []byte, buffer),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
	cm.registerConnection(conn)
	return conn
}

// Run with -race: membership changes while a broadcast is in flight.
func TestBroadcastDuringMembershipChanges(t *testing.T) {
	const rounds = 200
	cm := NewConnectionManager(DefaultConnectionConfig())

	listener := newIdleConnection(cm, "listener", rounds)
	cm.Subscribe("ROOM1", listener.ID)

	churn := make([]*Connection, 8)
	for i := range churn {
		churn[i] = newIdleConnection(cm, room.PlayerID(fmt.Sprintf("p%d", i)), rounds)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			cm.Broadcast("ROOM1", room.NewErrorNotification(room.ErrRoomFull))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			conn := churn[i%len(churn)]
			cm.Subscribe("ROOM1", conn.ID)
			cm.Unsubscribe("ROOM1", conn.ID)
		}
	}()
	wg.Wait()

	assert.Len(t, listener.Send, rounds)
	stats := cm.GetConnectionStats()
	assert.Equal(t, 1, stats.RoomConnections["ROOM1"])
}
