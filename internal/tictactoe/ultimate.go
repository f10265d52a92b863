package tictactoe

import (
	"fmt"

	"github.com/playsquare/gamerooms-backend/internal/apperror"
)

// UltimateBoard is the 9 macro-boards of an ultimate game, each a classic
// 3x3 board, indexed row-major like a classic board.
type UltimateBoard [9]ClassicBoard

// MacroResults holds the decided result of each macro-board: PlayerX,
// PlayerO, ResultDraw, or EmptyCell while still undecided.
type MacroResults [9]string

// UltimateState is the complete board state of an ultimate game. ActiveCell,
// when non-nil, is the macro-board the next move is constrained to; nil
// means any undecided macro-board is legal.
type UltimateState struct {
	Boards       UltimateBoard `json:"boards"`
	MacroResults MacroResults  `json:"macroResults"`
	ActiveCell   *int          `json:"activeCell,omitempty"`
}

// ApplyUltimateMove places symbol into cell of the macro-board at macro and
// returns the resulting state. The forwarding rule: the new ActiveCell is
// the move's cell index, unless that macro-board is already decided, in
// which case the opponent gets free choice (nil). Rejections return the
// input state unchanged.
func ApplyUltimateMove(state UltimateState, macro, cell int, symbol string) (UltimateState, error) {
	if macro < 0 || macro >= len(state.Boards) {
		return state, fmt.Errorf("%w: macro-board %d", apperror.ErrInvalidCell, macro)
	}

	if state.MacroResults[macro] != EmptyCell {
		return state, fmt.Errorf("%w: macro-board %d", apperror.ErrMacroBoardDecided, macro)
	}

	if state.ActiveCell != nil && *state.ActiveCell != macro {
		return state, fmt.Errorf("%w: macro-board %d", apperror.ErrWrongMacroBoard, *state.ActiveCell)
	}

	board, err := ApplyClassicMove(state.Boards[macro], cell, symbol)
	if err != nil {
		return state, err
	}

	state.Boards[macro] = board

	if winner, isDraw := CheckClassicResult(board); winner != EmptyCell {
		state.MacroResults[macro] = winner
	} else if isDraw {
		state.MacroResults[macro] = ResultDraw
	}

	if state.MacroResults[cell] != EmptyCell {
		state.ActiveCell = nil
	} else {
		next := cell
		state.ActiveCell = &next
	}

	return state, nil
}

// CheckUltimateResult applies the classic line test to the macro-results.
// A drawn macro-board fills its cell but never completes a line; the whole
// game is drawn iff every macro-board is decided with no winner.
func CheckUltimateResult(results MacroResults) (string, bool) {
	for _, line := range WinLines {
		a, b, c := results[line[0]], results[line[1]], results[line[2]]
		if a != EmptyCell && a != ResultDraw && a == b && b == c {
			return a, false
		}
	}

	for _, result := range results {
		if result == EmptyCell {
			return "", false
		}
	}

	return "", true
}
