package websocket

import (
	"context"
	"encoding/json"

	"github.com/playsquare/gamerooms-backend/internal/entity"
	"github.com/playsquare/gamerooms-backend/internal/tictactoe"
)

func (that *roomWorker) handleJoin(ctx context.Context, in intent) {
	log := that.logger.With("method", "handleJoin", "playerID", in.client.id)

	var payload JoinRoomPayload
	if err := json.Unmarshal(in.payload, &payload); err != nil {
		that.server.sendErrorMessage(in.client, "malformed joinRoom payload")
		return
	}

	room, err := that.server.rooms.GetRoom(ctx, that.roomID)
	if err != nil {
		log.Error("failed to get room", "error", err)
		that.server.sendError(in.client, err)
		return
	}

	// the creator names the room on first join
	if payload.IsCreating && payload.RoomName != "" && room.IsEmpty() {
		room.Name = payload.RoomName
	}

	player, err := room.Join(in.client.id, payload.PlayerName)
	if err != nil {
		log.Warn("join rejected", "error", err)
		that.server.sendError(in.client, err)
		return
	}

	if err = that.server.rooms.SaveRoom(ctx, room); err != nil {
		log.Error("failed to save room", "error", err)
		that.server.sendError(in.client, err)
		return
	}

	that.server.rooms.CancelCleanup(that.roomID)
	that.occupants[player.ID] = in.client
	in.client.setRoom(that.roomID)

	log.Info("player joined", "symbol", player.Symbol)

	if room.PlayerBySymbol(tictactoe.PlayerX) != nil && room.PlayerBySymbol(tictactoe.PlayerO) != nil {
		that.broadcast(ActionGameStarted, room)
		return
	}

	in.client.deliver(Message{Action: ActionJoinRoom, Payload: mustMarshal(GamePayload{Room: room, Player: player})})
}

func (that *roomWorker) handleStart(ctx context.Context, in intent) {
	log := that.logger.With("method", "handleStart", "playerID", in.client.id)

	room, err := that.server.rooms.GetRoom(ctx, that.roomID)
	if err != nil {
		that.server.sendError(in.client, err)
		return
	}

	if err = room.Start(); err != nil {
		log.Warn("start rejected", "error", err)
		that.server.sendError(in.client, err)
		return
	}

	if err = that.server.rooms.SaveRoom(ctx, room); err != nil {
		that.server.sendError(in.client, err)
		return
	}

	log.Info("match started")

	that.broadcast(ActionUpdateGame, room)
}

func (that *roomWorker) handleMove(ctx context.Context, in intent) {
	log := that.logger.With("method", "handleMove", "playerID", in.client.id)

	var payload PlayerMovePayload
	if err := json.Unmarshal(in.payload, &payload); err != nil {
		that.server.sendErrorMessage(in.client, "malformed playerMove payload")
		return
	}

	room, err := that.server.rooms.GetRoom(ctx, that.roomID)
	if err != nil {
		that.server.sendError(in.client, err)
		return
	}

	move := entity.Move{
		MacroIndex: payload.MacroIndex,
		CellIndex:  payload.CellIndex,
	}

	if err = room.SubmitMove(in.client.id, move); err != nil {
		log.Warn("move rejected", "error", err)
		that.server.sendError(in.client, err)
		return
	}

	if err = that.server.rooms.SaveRoom(ctx, room); err != nil {
		that.server.sendError(in.client, err)
		return
	}

	that.broadcast(ActionUpdateGame, room)
}

func (that *roomWorker) handleReset(ctx context.Context, in intent) {
	log := that.logger.With("method", "handleReset", "playerID", in.client.id)

	room, err := that.server.rooms.GetRoom(ctx, that.roomID)
	if err != nil {
		that.server.sendError(in.client, err)
		return
	}

	if err = room.Reset(); err != nil {
		log.Warn("reset rejected", "error", err)
		that.server.sendError(in.client, err)
		return
	}

	if err = that.server.rooms.SaveRoom(ctx, room); err != nil {
		that.server.sendError(in.client, err)
		return
	}

	log.Info("room reset")

	that.broadcast(ActionUpdateGame, room)
}

func (that *roomWorker) handleLeave(ctx context.Context, in intent) {
	log := that.logger.With("method", "handleLeave", "playerID", in.client.id)

	delete(that.occupants, in.client.id)
	in.client.setRoom("")

	room, err := that.server.rooms.GetRoom(ctx, that.roomID)
	if err != nil {
		that.server.sendError(in.client, err)
		return
	}

	room.Leave(in.client.id)

	if err = that.server.rooms.SaveRoom(ctx, room); err != nil {
		that.server.sendError(in.client, err)
		return
	}

	in.client.deliver(Message{Action: ActionRoomLeft})

	if err = that.server.rooms.RemoveIfEmpty(ctx, that.roomID); err != nil {
		log.Error("failed to schedule room cleanup", "error", err)
	}

	log.Info("player left")

	if !room.IsEmpty() {
		that.broadcast(ActionUpdateGame, room)
	}
}

// handleDisconnect mirrors handleLeave without the roomLeft confirmation;
// the connection is already gone.
func (that *roomWorker) handleDisconnect(ctx context.Context, in intent) {
	log := that.logger.With("method", "handleDisconnect", "playerID", in.client.id)

	if _, seated := that.occupants[in.client.id]; !seated {
		return
	}
	delete(that.occupants, in.client.id)

	room, err := that.server.rooms.GetRoom(ctx, that.roomID)
	if err != nil {
		log.Error("failed to get room", "error", err)
		return
	}

	room.Leave(in.client.id)

	if err = that.server.rooms.SaveRoom(ctx, room); err != nil {
		log.Error("failed to save room", "error", err)
		return
	}

	if err = that.server.rooms.RemoveIfEmpty(ctx, that.roomID); err != nil {
		log.Error("failed to schedule room cleanup", "error", err)
	}

	log.Info("player disconnected")

	if !room.IsEmpty() {
		that.broadcast(ActionUpdateGame, room)
	}
}
