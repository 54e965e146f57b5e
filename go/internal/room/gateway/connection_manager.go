package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/wordbingo/go/internal/room"
)

// Dispatcher runs decoded player actions. *room.Registry implements it.
type Dispatcher interface {
	Dispatch(id room.PlayerID, action room.Action)
}

// ConnectionManager owns the WebSocket connections and implements
// room.Notifier on top of them. Outbound frames are queued on each
// connection's send buffer in call order, so a connection sees notifications
// in the order its room produced them.
type ConnectionManager struct {
	connections     map[room.PlayerID]*Connection
	roomConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents a WebSocket connection to a player
type Connection struct {
	ID      room.PlayerID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	dispatcher Dispatcher
	limiter    *rate.Limiter
	roomCode   string // guarded by Manager.mu

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	// RateLimit is the sustained number of inbound frames per second a
	// connection may send; RateBurst is the bucket size.
	RateLimit   rate.Limit
	RateBurst   int
	CheckOrigin func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		RateLimit:       20,
		RateBurst:       40,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections:     make(map[room.PlayerID]*Connection),
		roomConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Start blocks until ctx is cancelled, then closes every open connection.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	<-ctx.Done()

	cm.mu.RLock()
	open := make([]*Connection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		open = append(open, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range open {
		_ = conn.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Conn.Close()
	}
	log.Info().Int("connections", len(open)).Msg("connection manager shutting down")
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, dispatcher Dispatcher) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          room.PlayerID(uuid.New().String()),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		dispatcher:  dispatcher,
		limiter:     rate.NewLimiter(cm.config.RateLimit, cm.config.RateBurst),
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", string(connection.ID)).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn.ID] = conn

	log.Debug().
		Str("connection_id", string(conn.ID)).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and closes its send buffer. It is
// safe to call more than once.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connections[conn.ID] != conn {
		return
	}
	delete(cm.connections, conn.ID)
	cm.leaveLocked(conn)
	close(conn.Send)

	log.Info().
		Str("connection_id", string(conn.ID)).
		Dur("connected_for", time.Since(conn.ConnectedAt)).
		Msg("connection unregistered")
}

// Subscribe adds a connection to a room's broadcast group.
func (cm *ConnectionManager) Subscribe(roomCode string, id room.PlayerID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.connections[id]
	if !ok {
		return
	}
	cm.leaveLocked(conn)
	if cm.roomConnections[roomCode] == nil {
		cm.roomConnections[roomCode] = make(map[*Connection]bool)
	}
	cm.roomConnections[roomCode][conn] = true
	conn.roomCode = roomCode
}

// Unsubscribe removes a connection from a room's broadcast group.
func (cm *ConnectionManager) Unsubscribe(roomCode string, id room.PlayerID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.connections[id]
	if !ok || conn.roomCode != roomCode {
		return
	}
	cm.leaveLocked(conn)
}

func (cm *ConnectionManager) leaveLocked(conn *Connection) {
	if conn.roomCode == "" {
		return
	}
	if members, ok := cm.roomConnections[conn.roomCode]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(cm.roomConnections, conn.roomCode)
		}
	}
	conn.roomCode = ""
}

// SendTo delivers a notification to a single connection.
func (cm *ConnectionManager) SendTo(id room.PlayerID, n room.Notification) {
	data, err := n.Marshal()
	if err != nil {
		log.Error().Err(err).Str("type", string(n.Type)).Msg("failed to marshal notification")
		return
	}

	var slow []*Connection
	cm.mu.RLock()
	if conn, ok := cm.connections[id]; ok && !conn.enqueue(data) {
		slow = append(slow, conn)
	}
	cm.mu.RUnlock()

	cm.dropSlow(slow)
}

// Broadcast delivers a notification to every connection in a room.
func (cm *ConnectionManager) Broadcast(roomCode string, n room.Notification) {
	data, err := n.Marshal()
	if err != nil {
		log.Error().Err(err).Str("type", string(n.Type)).Msg("failed to marshal notification")
		return
	}

	var slow []*Connection
	cm.mu.RLock()
	members := cm.roomConnections[roomCode]
	recipients := len(members)
	for conn := range members {
		if !conn.enqueue(data) {
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	cm.dropSlow(slow)

	log.Debug().
		Str("type", string(n.Type)).
		Str("room_code", roomCode).
		Int("connections", recipients).
		Msg("notification broadcasted")
}

// dropSlow closes connections whose send buffer is full. Their read pumps
// then report the disconnect.
func (cm *ConnectionManager) dropSlow(conns []*Connection) {
	for _, conn := range conns {
		log.Warn().
			Str("connection_id", string(conn.ID)).
			Msg("connection send buffer full, closing connection")
		conn.Conn.Close()
	}
}

// ConnectionStats summarizes the open connections.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	counts := make(map[string]int, len(cm.roomConnections))
	for code, members := range cm.roomConnections {
		counts[code] = len(members)
	}
	return ConnectionStats{
		TotalConnections: len(cm.connections),
		ActiveRooms:      len(cm.roomConnections),
		RoomConnections:  counts,
	}
}

// enqueue must be called with Manager.mu held for reading, which keeps Send
// open for the duration.
func (c *Connection) enqueue(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", string(c.ID)).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", string(c.ID)).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump decodes inbound frames until the socket closes, then reports the
// disconnect before unregistering.
func (c *Connection) readPump() {
	defer func() {
		c.dispatcher.Dispatch(c.ID, room.NewDisconnect())
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", string(c.ID)).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

const rateLimitedMessage = "Too many requests, slow down."

func (c *Connection) handleClientMessage(message []byte) {
	if !c.limiter.Allow() {
		log.Warn().Str("connection_id", string(c.ID)).Msg("rate limit exceeded, dropping frame")
		c.Manager.SendTo(c.ID, room.NewErrorText(rateLimitedMessage))
		return
	}

	action, err := room.DecodeAction(message)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", string(c.ID)).
			Msg("failed to decode client frame")
		c.Manager.SendTo(c.ID, room.NewErrorNotification(room.ErrUnknownAction))
		return
	}

	// An explicit disconnect frame leaves the room but keeps the socket open.
	c.dispatcher.Dispatch(c.ID, action)
}
