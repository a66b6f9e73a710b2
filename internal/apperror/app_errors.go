package apperror

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is the umbrella for every rejected move.
var ErrInvalidMove = errors.New("invalid move")

var (
	ErrGameFinished = fmt.Errorf("%w: game is already finished", ErrInvalidMove)
	ErrNotYourTurn  = fmt.Errorf("%w: it's not your turn", ErrInvalidMove)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrInvalidCell  = fmt.Errorf("%w: invalid cell position", ErrInvalidMove)
)

var (
	ErrNoMoveAvailable   = errors.New("no move available")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrNotBotTurn        = errors.New("it's not the bot's turn")
	ErrGameNotFound      = errors.New("game not found")
)
