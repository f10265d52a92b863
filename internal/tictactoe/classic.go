package tictactoe

import (
	"fmt"

	"github.com/playsquare/gamerooms-backend/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	// ResultDraw marks a drawn board in a macro-result slot. A drawn
	// macro-board fills its cell but belongs to neither player.
	ResultDraw = "-"
)

// WinLines are the 8 canonical lines of a 3x3 board: rows, columns, diagonals.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// ClassicBoard is a 3x3 board in row-major order, cells 0-8.
type ClassicBoard [9]string

// ApplyClassicMove places symbol into cell and returns the resulting board.
// The input board is never mutated; a rejected move returns it unchanged.
func ApplyClassicMove(board ClassicBoard, cell int, symbol string) (ClassicBoard, error) {
	if cell < 0 || cell >= len(board) {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if board[cell] != EmptyCell {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	board[cell] = symbol

	return board, nil
}

// CheckClassicResult reports the winner, if any, and whether the board is
// drawn. A line wins when all three cells share a non-empty symbol; the
// board is drawn iff it is full with no winner. Never both.
func CheckClassicResult(board ClassicBoard) (string, bool) {
	for _, line := range WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != EmptyCell && a == b && b == c {
			return a, false
		}
	}

	for _, cell := range board {
		if cell == EmptyCell {
			return "", false
		}
	}

	return "", true
}

// ToggleSymbol returns the opposing symbol.
func ToggleSymbol(symbol string) string {
	if symbol == PlayerX {
		return PlayerO
	}
	return PlayerX
}
