package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/playsquare/gamerooms-backend/internal/entity"
)

// intent is one client request bound for a room worker.
type intent struct {
	action  string
	client  *client
	payload json.RawMessage
}

const intentBuffer = 64

// roomWorker serializes every intent for one room. It is the sole writer of
// that room's state: two moves racing in from both players are applied in
// arrival order, the loser validated against the state the winner produced.
type roomWorker struct {
	roomID string
	server *Server
	logger *slog.Logger

	intents chan intent
	quit    chan struct{}

	// occupants maps seated player ids to their live connections. Only the
	// worker goroutine touches it.
	occupants map[string]*client
}

func newRoomWorker(roomID string, server *Server) *roomWorker {
	return &roomWorker{
		roomID:    roomID,
		server:    server,
		logger:    server.logger.With("component", "room", "roomID", roomID),
		intents:   make(chan intent, intentBuffer),
		quit:      make(chan struct{}),
		occupants: make(map[string]*client),
	}
}

func (that *roomWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-that.quit:
			return
		case in := <-that.intents:
			that.handle(ctx, in)

			if len(that.occupants) == 0 {
				if that.server.retire(that) {
					return
				}
			}
		}
	}
}

// handle processes one intent. A rejection is reported to the requesting
// client only; it never mutates broadcast state. Panics are contained so a
// fault in one request cannot orphan the opposing player.
func (that *roomWorker) handle(ctx context.Context, in intent) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("recovered from panic", "action", in.action, "panic", r)
			that.server.sendErrorMessage(in.client, "internal error, please retry")
		}
	}()

	switch in.action {
	case ActionJoinRoom:
		that.handleJoin(ctx, in)
	case ActionStartMatch:
		that.handleStart(ctx, in)
	case ActionPlayerMove:
		that.handleMove(ctx, in)
	case ActionResetRoom:
		that.handleReset(ctx, in)
	case ActionLeaveRoom:
		that.handleLeave(ctx, in)
	case actionDisconnect:
		that.handleDisconnect(ctx, in)
	}
}

// broadcast sends the room snapshot to every occupant, each message
// carrying the recipient's own seat.
func (that *roomWorker) broadcast(action string, room *entity.Room) {
	for playerID, c := range that.occupants {
		payload := GamePayload{
			Room:   room,
			Player: room.PlayerByID(playerID),
		}

		if !c.deliver(Message{Action: action, Payload: mustMarshal(payload)}) {
			that.logger.Warn("failed to deliver broadcast", "playerID", playerID, "action", action)
		}
	}
}
