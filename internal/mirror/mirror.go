// Package mirror keeps a client-side projection of an authoritative game
// room. In online mode the projection only ever applies server broadcasts;
// local intents are forwarded upstream and have no local effect until the
// server echoes the resulting state. In offline mode (two players sharing a
// device) the same reducer drives the board engine directly.
package mirror

import (
	"errors"
	"fmt"

	"github.com/playsquare/gamerooms-backend/internal/entity"
)

var (
	ErrNoGame        = errors.New("no game in progress")
	ErrNotOnline     = errors.New("command requires online mode")
	ErrUnknownIntent = errors.New("unknown command")
)

// Upstream is the gateway client handle intents are forwarded to in online
// mode. It is injected at construction so the mirror stays testable without
// a live transport.
type Upstream interface {
	SubmitMove(roomID string, move entity.Move) error
	ResetRoom(roomID string) error
	LeaveRoom(roomID string) error
}

// Command is the tagged intent union consumed by Apply.
type Command interface{ isCommand() }

// ServerState replaces the projection with an authoritative broadcast.
type ServerState struct {
	Room *entity.Room
}

// AssignSeat records the symbol the server seated us on.
type AssignSeat struct {
	Symbol string
}

// LocalMove is a move made on this device.
type LocalMove struct {
	Move entity.Move
}

// ResetGame requests a rematch with retained players and scores.
type ResetGame struct{}

// LeaveGame abandons the current game.
type LeaveGame struct{}

// HardReset clears the mirror entirely, e.g. on transport disconnect.
type HardReset struct{}

func (ServerState) isCommand() {}
func (AssignSeat) isCommand()  {}
func (LocalMove) isCommand()   {}
func (ResetGame) isCommand()   {}
func (LeaveGame) isCommand()   {}
func (HardReset) isCommand()   {}

const (
	localPlayerX = "local-x"
	localPlayerO = "local-o"
)

// Mirror is the deterministic reducer over the local game state.
type Mirror struct {
	upstream Upstream
	room     *entity.Room
	symbol   string
}

// NewOnline builds a mirror whose only mutation source is the server.
func NewOnline(upstream Upstream) *Mirror {
	return &Mirror{upstream: upstream}
}

// NewOffline builds a self-contained mirror for local two-player play in
// the given game mode. The game is seated and active immediately.
func NewOffline(mode string) *Mirror {
	room := entity.NewRoom("local", "", mode)
	_, _ = room.Join(localPlayerX, "Player X")
	_, _ = room.Join(localPlayerO, "Player O")
	_ = room.Start()

	return &Mirror{room: room}
}

// Room is the current projection. Callers must treat it as read-only.
func (that *Mirror) Room() *entity.Room {
	return that.room
}

// Symbol is the seat held on this device in online mode.
func (that *Mirror) Symbol() string {
	return that.symbol
}

// Scores is the running win tally per symbol plus the draw counter. It
// accumulates across resets.
func (that *Mirror) Scores() entity.Scores {
	if that.room == nil {
		return entity.Scores{}
	}
	return that.room.Scores
}

// Apply runs one command through the reducer.
func (that *Mirror) Apply(cmd Command) error {
	if that.upstream != nil {
		return that.applyOnline(cmd)
	}
	return that.applyOffline(cmd)
}

func (that *Mirror) applyOnline(cmd Command) error {
	switch c := cmd.(type) {
	case ServerState:
		that.room = c.Room
		return nil
	case AssignSeat:
		that.symbol = c.Symbol
		return nil
	case LocalMove:
		if that.room == nil {
			return ErrNoGame
		}
		return that.upstream.SubmitMove(that.room.ID, c.Move)
	case ResetGame:
		if that.room == nil {
			return ErrNoGame
		}
		return that.upstream.ResetRoom(that.room.ID)
	case LeaveGame:
		if that.room == nil {
			return ErrNoGame
		}
		return that.upstream.LeaveRoom(that.room.ID)
	case HardReset:
		that.room = nil
		that.symbol = ""
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownIntent, cmd)
	}
}

func (that *Mirror) applyOffline(cmd Command) error {
	switch c := cmd.(type) {
	case LocalMove:
		if that.room == nil {
			return ErrNoGame
		}
		mover := that.room.PlayerBySymbol(that.room.CurrentSymbol())
		return that.room.SubmitMove(mover.ID, c.Move)
	case ResetGame:
		if that.room == nil {
			return ErrNoGame
		}
		return that.room.Reset()
	case LeaveGame, HardReset:
		that.room = nil
		return nil
	case ServerState, AssignSeat:
		return fmt.Errorf("%w: %T", ErrNotOnline, cmd)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownIntent, cmd)
	}
}
