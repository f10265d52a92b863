package apperror

import "errors"

var (
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrWrongMacroBoard   = errors.New("move must be played in the active macro-board")
	ErrMacroBoardDecided = errors.New("macro-board is already decided")

	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameNotActive    = errors.New("game is not active")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrCodeExhausted    = errors.New("could not allocate a unique room code")
)
