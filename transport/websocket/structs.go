package websocket

import (
	"encoding/json"

	"github.com/playsquare/gamerooms-backend/internal/entity"
)

// Client and server speak the same envelope: an action name plus an
// action-specific payload.
const (
	ActionGetRoomID   = "getRoomId"
	ActionJoinRoom    = "joinRoom"
	ActionGameStarted = "gameStarted"
	ActionStartMatch  = "startMatch"
	ActionPlayerMove  = "playerMove"
	ActionUpdateGame  = "updateGame"
	ActionGameError   = "gameError"
	ActionResetRoom   = "resetRoom"
	ActionLeaveRoom   = "leaveRoom"
	ActionRoomLeft    = "roomLeft"
)

// actionDisconnect is an internal intent injected when a client's read loop
// exits; it never appears on the wire.
const actionDisconnect = "disconnect"

// Message is the envelope for every event in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type GetRoomIDPayload struct {
	RoomName string `json:"roomName,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

type GetRoomIDResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
}

type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	RoomName   string `json:"roomName,omitempty"`
	IsCreating bool   `json:"isCreating,omitempty"`
}

// RoomActionPayload covers the intents that only carry the room code:
// startMatch, resetRoom, leaveRoom.
type RoomActionPayload struct {
	GameRoomID string `json:"gameRoomId"`
}

type PlayerMovePayload struct {
	GameRoomID   string `json:"gameRoomId"`
	PlayerSymbol string `json:"playerSymbol,omitempty"`
	MacroIndex   int    `json:"macroIndex"`
	CellIndex    *int   `json:"cellIndex,omitempty"`
}

// GamePayload is the authoritative room snapshot broadcast to occupants.
// Player is the recipient's own seat.
type GamePayload struct {
	Room   *entity.Room   `json:"room,omitempty"`
	Player *entity.Player `json:"player,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
