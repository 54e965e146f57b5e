package room

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlayerID is the opaque per-connection identity assigned by the transport.
type PlayerID string

// ActionType names an inbound player action on the wire.
type ActionType string

const (
	ActionCreateRoom ActionType = "createRoom"
	ActionJoinRoom   ActionType = "joinRoom"
	ActionStartGame  ActionType = "startGame"
	ActionCellClick  ActionType = "cellClicked"
	ActionUsePowerUp ActionType = "usePowerUp"
	ActionDisconnect ActionType = "disconnect"
)

// PowerUpKind identifies a consumable power-up.
type PowerUpKind string

const (
	PowerUpFiftyFifty PowerUpKind = "fiftyFifty"
)

// Action is an inbound player action. The set of implementations is closed;
// build values with the New* constructors.
type Action interface {
	Type() ActionType
	isAction()
}

type CreateRoom struct {
	PlayerName string
}

type JoinRoom struct {
	RoomCode   string
	PlayerName string
}

type StartGame struct {
	RoomCode string
}

type CellClicked struct {
	RoomCode  string
	CellIndex int
}

type UsePowerUp struct {
	RoomCode string
	PowerUp  PowerUpKind
}

type Disconnect struct{}

func NewCreateRoom(playerName string) CreateRoom {
	return CreateRoom{PlayerName: strings.TrimSpace(playerName)}
}

func NewJoinRoom(roomCode, playerName string) JoinRoom {
	return JoinRoom{RoomCode: normalizeCode(roomCode), PlayerName: strings.TrimSpace(playerName)}
}

func NewStartGame(roomCode string) StartGame {
	return StartGame{RoomCode: normalizeCode(roomCode)}
}

func NewCellClicked(roomCode string, cellIndex int) CellClicked {
	return CellClicked{RoomCode: normalizeCode(roomCode), CellIndex: cellIndex}
}

func NewUsePowerUp(roomCode string, kind PowerUpKind) UsePowerUp {
	return UsePowerUp{RoomCode: normalizeCode(roomCode), PowerUp: kind}
}

func NewDisconnect() Disconnect { return Disconnect{} }

func (CreateRoom) Type() ActionType  { return ActionCreateRoom }
func (JoinRoom) Type() ActionType    { return ActionJoinRoom }
func (StartGame) Type() ActionType   { return ActionStartGame }
func (CellClicked) Type() ActionType { return ActionCellClick }
func (UsePowerUp) Type() ActionType  { return ActionUsePowerUp }
func (Disconnect) Type() ActionType  { return ActionDisconnect }

func (CreateRoom) isAction()  {}
func (JoinRoom) isAction()    {}
func (StartGame) isAction()   {}
func (CellClicked) isAction() {}
func (UsePowerUp) isAction()  {}
func (Disconnect) isAction()  {}

// roomCodeOf returns the room an action is addressed to, if any.
func roomCodeOf(a Action) (string, bool) {
	switch act := a.(type) {
	case StartGame:
		return act.RoomCode, true
	case CellClicked:
		return act.RoomCode, true
	case UsePowerUp:
		return act.RoomCode, true
	default:
		return "", false
	}
}

// frame is the JSON envelope shared by inbound actions and outbound notifications.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodeAction parses one inbound JSON frame of the form {"type": ..., "data": {...}}.
func DecodeAction(data []byte) (Action, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch ActionType(f.Type) {
	case ActionCreateRoom:
		var p struct {
			PlayerName string `json:"playerName"`
		}
		if err := decodeData(f.Data, &p); err != nil {
			return nil, err
		}
		return NewCreateRoom(p.PlayerName), nil

	case ActionJoinRoom:
		var p struct {
			RoomCode   string `json:"roomCode"`
			PlayerName string `json:"playerName"`
		}
		if err := decodeData(f.Data, &p); err != nil {
			return nil, err
		}
		return NewJoinRoom(p.RoomCode, p.PlayerName), nil

	case ActionStartGame:
		// Older clients send the bare room code as the payload.
		var code string
		if err := json.Unmarshal(f.Data, &code); err == nil {
			return NewStartGame(code), nil
		}
		var p struct {
			RoomCode string `json:"roomCode"`
		}
		if err := decodeData(f.Data, &p); err != nil {
			return nil, err
		}
		return NewStartGame(p.RoomCode), nil

	case ActionCellClick:
		var p struct {
			RoomCode  string `json:"roomCode"`
			CellIndex *int   `json:"cellIndex"`
		}
		if err := decodeData(f.Data, &p); err != nil {
			return nil, err
		}
		if p.CellIndex == nil {
			return nil, fmt.Errorf("cellClicked: missing cellIndex: %w", ErrUnknownAction)
		}
		return NewCellClicked(p.RoomCode, *p.CellIndex), nil

	case ActionUsePowerUp:
		var p struct {
			RoomCode    string `json:"roomCode"`
			PowerUpType string `json:"powerUpType"`
		}
		if err := decodeData(f.Data, &p); err != nil {
			return nil, err
		}
		return NewUsePowerUp(p.RoomCode, PowerUpKind(p.PowerUpType)), nil

	case ActionDisconnect:
		return NewDisconnect(), nil

	default:
		return nil, fmt.Errorf("%q: %w", f.Type, ErrUnknownAction)
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
