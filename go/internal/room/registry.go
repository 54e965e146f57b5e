package room

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/vocabulary"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 5
	// MaxCodeAttempts bounds the search for an unused room code.
	MaxCodeAttempts = 100
)

// Registry owns every live room and routes actions to them. Its mutex guards
// the code index and the player seats only; room state is behind each room's
// own lock. A room lock may be held while taking the registry lock, never the
// other way round.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	seats map[PlayerID]string

	vocab      *vocabulary.Table
	notifier   Notifier
	clock      clockwork.Clock
	reporter   Reporter
	sink       EventSink
	settings   Settings
	codeSource func() string
	newRand    func() *rand.Rand
}

type Option func(*Registry)

func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

func WithReporter(reporter Reporter) Option {
	return func(r *Registry) { r.reporter = reporter }
}

func WithEventSink(sink EventSink) Option {
	return func(r *Registry) { r.sink = sink }
}

func WithSettings(settings Settings) Option {
	return func(r *Registry) { r.settings = settings }
}

// WithCodeSource replaces the random room code generator.
func WithCodeSource(next func() string) Option {
	return func(r *Registry) { r.codeSource = next }
}

// WithSeed makes card dealing and word draws reproducible. Each room gets its
// own stream derived from seed and the room's creation order.
func WithSeed(seed uint64) Option {
	return func(r *Registry) {
		var stream uint64
		r.newRand = func() *rand.Rand {
			stream++
			return rand.New(rand.NewPCG(seed, stream))
		}
	}
}

func NewRegistry(vocab *vocabulary.Table, notifier Notifier, opts ...Option) *Registry {
	r := &Registry{
		rooms:      make(map[string]*Room),
		seats:      make(map[PlayerID]string),
		vocab:      vocab,
		notifier:   notifier,
		clock:      clockwork.NewRealClock(),
		settings:   DefaultSettings(),
		codeSource: randomCode,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for range codeLength {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

func defaultPlayerName(n int) string {
	return fmt.Sprintf("Player %d", n)
}

// CreateRoom opens a Lobby room with id as its first member and returns the
// room code. A player already seated elsewhere leaves that room once the new
// one is set up, so no goroutine holds two room locks.
func (reg *Registry) CreateRoom(id PlayerID, name string) (string, error) {
	previous := reg.seatOf(id)

	room := &Room{
		settings:  reg.settings,
		vocab:     reg.vocab,
		clock:     reg.clock,
		notifier:  reg.notifier,
		reporter:  reg.reporter,
		sink:      reg.sink,
		registry:  reg,
		createdAt: reg.clock.Now(),
		state:     StateLobby,
		players:   make(map[PlayerID]*player),
	}

	room.mu.Lock()
	if err := reg.publish(room); err != nil {
		room.mu.Unlock()
		return "", err
	}
	room.join(id, name, NotifyRoomCreated)
	room.emit(events.RoomCreated, events.RoomCreatedPayload{
		RoomCode:  room.code,
		HostName:  room.players[id].name,
		CreatedAt: room.createdAt,
	})
	code := room.code
	room.mu.Unlock()

	if previous != "" {
		reg.RemovePlayer(previous, id)
	}
	return code, nil
}

// publish assigns an unused code to room and makes it reachable.
func (reg *Registry) publish(room *Room) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for range MaxCodeAttempts {
		code := reg.codeSource()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		room.code = code
		room.rng = reg.newRand()
		reg.rooms[code] = room

		log.Info().Str("room_code", code).Int("rooms", len(reg.rooms)).Msg("room created")
		return nil
	}

	log.Error().Int("attempts", MaxCodeAttempts).Int("rooms", len(reg.rooms)).Msg("no free room code")
	return ErrInternalScheduling
}

// JoinRoom seats id in the room with the given code.
func (reg *Registry) JoinRoom(id PlayerID, code, name string) error {
	code = normalizeCode(code)
	previous := reg.seatOf(id)
	if previous == code {
		return nil
	}

	room, ok := reg.lookup(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if err := room.canJoin(); err != nil {
		room.mu.Unlock()
		return err
	}
	room.join(id, name, NotifyJoinedRoom)
	room.mu.Unlock()

	if previous != "" {
		reg.RemovePlayer(previous, id)
	}
	return nil
}

// RouteAction forwards an in-room action to its room. It returns
// ErrRoomNotFound or ErrPlayerNotInRoom when there is nothing to forward to;
// any other error comes from the room and leaves its state unchanged.
func (reg *Registry) RouteAction(id PlayerID, action Action) error {
	code, ok := roomCodeOf(action)
	if !ok {
		return ErrUnknownAction
	}

	room, ok := reg.lookup(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return ErrRoomNotFound
	}
	p, ok := room.member(id)
	if !ok {
		return ErrPlayerNotInRoom
	}

	switch a := action.(type) {
	case StartGame:
		room.start()
	case CellClicked:
		room.clickCell(p, a.CellIndex)
	case UsePowerUp:
		return room.usePowerUp(p, a.PowerUp)
	default:
		return ErrUnknownAction
	}
	return nil
}

// RemovePlayer takes id out of the room with the given code, if it is there.
func (reg *Registry) RemovePlayer(code string, id PlayerID) {
	room, ok := reg.lookup(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	room.removePlayer(id)
}

// Disconnect removes id from whatever room it is seated in.
func (reg *Registry) Disconnect(id PlayerID) {
	if code := reg.seatOf(id); code != "" {
		reg.RemovePlayer(code, id)
	}
}

// Snapshot returns a read-only view of one room.
func (reg *Registry) Snapshot(code string) (Snapshot, error) {
	room, ok := reg.lookup(normalizeCode(code))
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}
	return room.Snapshot(), nil
}

// Snapshots returns a view of every live room ordered by creation time.
func (reg *Registry) Snapshots() []Snapshot {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(rooms))
	for _, room := range rooms {
		snapshots = append(snapshots, room.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].Code < snapshots[j].Code
		}
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
	return snapshots
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Close tears down every live room. Running games end without a result.
func (reg *Registry) Close() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	for _, room := range rooms {
		room.mu.Lock()
		room.teardown("shutdown")
		room.mu.Unlock()
	}
	log.Info().Int("rooms", len(rooms)).Msg("room registry closed")
}

func (reg *Registry) lookup(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[code]
	return room, ok
}

func (reg *Registry) seatOf(id PlayerID) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.seats[id]
}

func (reg *Registry) setSeat(id PlayerID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.seats[id] = code
}

// clearSeat forgets id's seat if it still points at code.
func (reg *Registry) clearSeat(id PlayerID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.seats[id] == code {
		delete(reg.seats, id)
	}
}

// release drops room from the index unless the code was already reused.
func (reg *Registry) release(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.rooms[room.code] == room {
		delete(reg.rooms, room.code)
	}
	log.Debug().Str("room_code", room.code).Int("rooms", len(reg.rooms)).Msg("room released")
}

// IsClientError reports whether err is an expected outcome of a player action
// rather than a server fault.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrRoomNotFound, ErrRoomFull, ErrGameAlreadyStarted, ErrPlayerNotInRoom,
		ErrPowerUpUnavailable, ErrUnknownPowerUp, ErrUnknownAction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
