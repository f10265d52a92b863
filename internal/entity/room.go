package entity

import (
	"fmt"

	"github.com/playsquare/gamerooms-backend/internal/apperror"
	"github.com/playsquare/gamerooms-backend/internal/tictactoe"
)

const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"

	ModeClassic  = "classic"
	ModeUltimate = "ultimate"
)

// Move is one entry of a room's move history. CellIndex is set in ultimate
// mode only; in classic mode MacroIndex is the board cell itself.
type Move struct {
	MacroIndex int  `json:"macroIndex"`
	CellIndex  *int `json:"cellIndex,omitempty"`
}

// Scores is the cumulative win tally of a room. It survives resets.
type Scores struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

// Room is one authoritative game instance: two player slots, a turn
// pointer, the board state and the game status. All mutation goes through
// its methods; callers are expected to serialize access per room.
type Room struct {
	ID      string    `json:"id"`
	Name    string    `json:"name,omitempty"`
	Mode    string    `json:"mode"`
	Players []*Player `json:"players,omitempty"`

	TurnIsX bool `json:"turnIsX"`

	Board    tictactoe.ClassicBoard   `json:"board"`
	Ultimate *tictactoe.UltimateState `json:"ultimate,omitempty"`

	Winner      string `json:"winner,omitempty"`
	IsDraw      bool   `json:"isDraw"`
	Status      string `json:"status"`
	MoveHistory []Move `json:"moveHistory,omitempty"`
	Scores      Scores `json:"scores"`
}

// NewRoom creates an empty waiting room. Unknown modes fall back to classic.
func NewRoom(id, name, mode string) *Room {
	if mode != ModeUltimate {
		mode = ModeClassic
	}

	room := &Room{
		ID:      id,
		Name:    name,
		Mode:    mode,
		TurnIsX: true,
		Status:  StatusWaiting,
	}

	if mode == ModeUltimate {
		room.Ultimate = &tictactoe.UltimateState{}
	}

	return room
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

// IsEmpty reports whether both slots are free.
func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// CurrentSymbol is the symbol allowed to move next.
func (that *Room) CurrentSymbol() string {
	if that.TurnIsX {
		return tictactoe.PlayerX
	}
	return tictactoe.PlayerO
}

// PlayerByID returns the seated player with the given id, or nil.
func (that *Room) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

// PlayerBySymbol returns the player seated on the given symbol, or nil.
func (that *Room) PlayerBySymbol(symbol string) *Player {
	for _, player := range that.Players {
		if player.Symbol == symbol {
			return player
		}
	}
	return nil
}

// Join seats the player on the first free symbol slot, X before O. A player
// that is already seated re-attaches to its existing slot; a third distinct
// player is rejected with ErrRoomFull.
func (that *Room) Join(playerID, name string) (*Player, error) {
	if seated := that.PlayerByID(playerID); seated != nil {
		return seated, nil
	}

	symbol := tictactoe.PlayerX
	if that.PlayerBySymbol(symbol) != nil {
		symbol = tictactoe.PlayerO
	}

	if that.PlayerBySymbol(symbol) != nil {
		return nil, fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	player := &Player{
		ID:     playerID,
		Name:   name,
		Symbol: symbol,
	}
	that.Players = append(that.Players, player)

	return player, nil
}

// Start moves a waiting room with both slots filled to active. Starting an
// already active room is a no-op.
func (that *Room) Start() error {
	if that.PlayerBySymbol(tictactoe.PlayerX) == nil || that.PlayerBySymbol(tictactoe.PlayerO) == nil {
		return apperror.ErrNotEnoughPlayers
	}

	if that.IsActive() {
		return nil
	}

	if that.IsFinished() {
		return fmt.Errorf("%w: status %s", apperror.ErrGameNotActive, that.Status)
	}

	that.Status = StatusActive

	return nil
}

// SubmitMove validates ownership and turn order, then delegates to the
// board engine. A rejection of any kind leaves the room unchanged.
func (that *Room) SubmitMove(playerID string, move Move) error {
	if !that.IsActive() {
		return fmt.Errorf("%w: status %s", apperror.ErrGameNotActive, that.Status)
	}

	player := that.PlayerByID(playerID)
	if player == nil || player.Symbol != that.CurrentSymbol() {
		return apperror.ErrNotYourTurn
	}

	switch that.Mode {
	case ModeUltimate:
		if move.CellIndex == nil {
			return fmt.Errorf("%w: cell index is required", apperror.ErrInvalidCell)
		}

		state, err := tictactoe.ApplyUltimateMove(*that.Ultimate, move.MacroIndex, *move.CellIndex, player.Symbol)
		if err != nil {
			return err
		}

		that.Ultimate = &state
	default:
		board, err := tictactoe.ApplyClassicMove(that.Board, move.MacroIndex, player.Symbol)
		if err != nil {
			return err
		}

		that.Board = board
	}

	that.MoveHistory = append(that.MoveHistory, move)
	that.TurnIsX = !that.TurnIsX
	that.updateResult()

	return nil
}

// Reset clears the board of an active or finished room and re-enters active
// play with X to move. Players and cumulative scores are retained.
func (that *Room) Reset() error {
	if that.IsWaiting() {
		return fmt.Errorf("%w: status %s", apperror.ErrGameNotActive, that.Status)
	}

	that.Board = tictactoe.ClassicBoard{}
	if that.Mode == ModeUltimate {
		that.Ultimate = &tictactoe.UltimateState{}
	}

	that.TurnIsX = true
	that.Winner = ""
	that.IsDraw = false
	that.MoveHistory = nil
	that.Status = StatusActive

	return nil
}

// Leave frees the slot held by the given player, if any.
func (that *Room) Leave(playerID string) {
	for i, player := range that.Players {
		if player.ID == playerID {
			that.Players = append(that.Players[:i], that.Players[i+1:]...)
			return
		}
	}
}

// updateResult re-checks win/draw after an accepted move and transitions
// the room to finished on a terminal result, updating the score tally.
func (that *Room) updateResult() {
	var winner string
	var isDraw bool

	switch that.Mode {
	case ModeUltimate:
		winner, isDraw = tictactoe.CheckUltimateResult(that.Ultimate.MacroResults)
	default:
		winner, isDraw = tictactoe.CheckClassicResult(that.Board)
	}

	switch {
	case winner == tictactoe.PlayerX:
		that.Winner = winner
		that.Scores.X++
	case winner == tictactoe.PlayerO:
		that.Winner = winner
		that.Scores.O++
	case isDraw:
		that.IsDraw = true
		that.Scores.Draws++
	default:
		return
	}

	that.Status = StatusFinished
}
