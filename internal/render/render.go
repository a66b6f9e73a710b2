// Package render projects game state into text for status lines, terminals and JSON clients.
package render

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

const emptyMark = "·"

// Status returns the status line shown under the board.
func Status(state entity.GameState) string {
	switch state.Status() {
	case entity.StatusWon:
		return fmt.Sprintf("Player %d wins!", state.Outcome.Winner.Number())
	case entity.StatusDrawn:
		return "The game has ended in a stalemate."
	default:
		return fmt.Sprintf("It's Player %d's turn.", state.Turn.Number())
	}
}

// IsHighlighted reports whether the cell at pos belongs to the winning line.
func IsHighlighted(state entity.GameState, pos entity.Position) bool {
	if state.Outcome.Kind != entity.OutcomeWin || state.Outcome.Line == nil {
		return false
	}
	return state.Outcome.Line.Contains(pos)
}

// Board draws the grid as plain text. Winning cells are wrapped in brackets.
func Board(state entity.GameState) string {
	var sb strings.Builder

	for row := range entity.BoardSize {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := range entity.BoardSize {
			if col > 0 {
				sb.WriteByte('|')
			}

			pos := entity.Position{Row: row, Col: col}
			mark := Mark(state.Board.At(pos))
			if IsHighlighted(state, pos) {
				sb.WriteString("[" + mark + "]")
			} else {
				sb.WriteString(" " + mark + " ")
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// Mark returns the symbol drawn for a cell.
func Mark(cell entity.Cell) string {
	if cell == entity.EmptyCell {
		return emptyMark
	}
	return string(cell)
}

// GameView is the JSON shape pushed to browser clients.
type GameView struct {
	ID          string                                     `json:"id"`
	Board       [entity.BoardSize][entity.BoardSize]string `json:"board"`
	Turn        entity.Cell                                `json:"player_turn,omitempty"`
	Status      entity.Status                              `json:"status"`
	Message     string                                     `json:"message"`
	Winner      entity.Cell                                `json:"winner,omitempty"`
	WinningLine []entity.Position                          `json:"winning_line,omitempty"`
	Settings    entity.Settings                            `json:"settings"`
	BotPending  bool                                       `json:"bot_pending"`
}

// View builds the client view of a game.
func View(game *entity.Game) *GameView {
	state := game.State

	view := &GameView{
		ID:         game.ID,
		Status:     state.Status(),
		Message:    Status(state),
		Settings:   game.Settings,
		BotPending: game.IsBotTurn(),
	}

	for row := range entity.BoardSize {
		for col := range entity.BoardSize {
			view.Board[row][col] = string(state.Board[row][col])
		}
	}

	if state.IsOngoing() {
		view.Turn = state.Turn
	}

	if state.Outcome.Kind == entity.OutcomeWin {
		view.Winner = state.Outcome.Winner
		if state.Outcome.Line != nil {
			view.WinningLine = state.Outcome.Line[:]
		}
	}

	return view
}
