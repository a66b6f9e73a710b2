package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

// NewGameState returns the initial state: an empty board with X to move.
func NewGameState() entity.GameState {
	return entity.GameState{
		Turn:    entity.PlayerX,
		Outcome: entity.Outcome{Kind: entity.OutcomeNone},
	}
}

// Reset returns any state back to the initial in-progress state.
func Reset(_ entity.GameState) entity.GameState {
	return NewGameState()
}

// ApplyMove places player's mark at (row, col) and returns the resulting state.
// The given state is never modified; on error it is returned unchanged.
func ApplyMove(state entity.GameState, player entity.Cell, row, col int) (entity.GameState, error) {
	pos := entity.Position{Row: row, Col: col}

	if err := validateMove(state, player, pos); err != nil {
		return state, fmt.Errorf("invalid turn: %w", err)
	}

	state.Board[row][col] = player
	updateGameStatus(&state, player, pos)

	return state, nil
}

// CheckWinner looks for a completed line through the last move. Only the row, the
// column and the diagonals that contain the move are checked, since a win can only
// be completed by the most recent mark. The first complete line found is returned.
func CheckWinner(board entity.Board, player entity.Cell, lastRow, lastCol int) (entity.Line, bool) {
	if !player.IsPlayer() {
		return entity.Line{}, false
	}

	for _, line := range candidateLines(lastRow, lastCol) {
		if isComplete(board, line, player) {
			return line, true
		}
	}

	return entity.Line{}, false
}

// CheckStalemate reports whether no empty cell remains. A win must be ruled out first.
func CheckStalemate(board entity.Board) bool {
	return board.IsFull()
}

// validateMove - checks if the move is valid.
func validateMove(state entity.GameState, player entity.Cell, pos entity.Position) error {
	if state.IsFinished() {
		return apperror.ErrGameFinished
	}

	if !pos.InBounds() {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, pos.Row, pos.Col)
	}

	if state.Turn != player {
		return apperror.ErrNotYourTurn
	}

	if state.Board.At(pos) != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(state *entity.GameState, player entity.Cell, pos entity.Position) {
	if line, ok := CheckWinner(state.Board, player, pos.Row, pos.Col); ok {
		state.Over = true
		state.Outcome = entity.Outcome{Kind: entity.OutcomeWin, Winner: player, Line: &line}
		return
	}

	if CheckStalemate(state.Board) {
		state.Over = true
		state.Outcome = entity.Outcome{Kind: entity.OutcomeDraw}
		return
	}

	state.Turn = player.Opponent()
}

// candidateLines returns the row, the column and, when the position lies on them,
// the main and anti-diagonal, in that order.
func candidateLines(row, col int) []entity.Line {
	lines := make([]entity.Line, 0, 4)

	var rowLine, colLine entity.Line
	for i := range entity.BoardSize {
		rowLine[i] = entity.Position{Row: row, Col: i}
		colLine[i] = entity.Position{Row: i, Col: col}
	}
	lines = append(lines, rowLine, colLine)

	if row == col {
		var diag entity.Line
		for i := range entity.BoardSize {
			diag[i] = entity.Position{Row: i, Col: i}
		}
		lines = append(lines, diag)
	}

	if row+col == entity.BoardSize-1 {
		var anti entity.Line
		for i := range entity.BoardSize {
			anti[i] = entity.Position{Row: i, Col: entity.BoardSize - 1 - i}
		}
		lines = append(lines, anti)
	}

	return lines
}

func isComplete(board entity.Board, line entity.Line, player entity.Cell) bool {
	for _, pos := range line {
		if !pos.InBounds() || board.At(pos) != player {
			return false
		}
	}
	return true
}
