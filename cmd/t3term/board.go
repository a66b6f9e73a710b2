package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/render"
)

const (
	cellWidth   = 3
	boardWidth  = entity.BoardSize*cellWidth + entity.BoardSize - 1
	boardHeight = entity.BoardSize*2 - 1
)

type gameManager interface {
	StartGame(ctx context.Context, settings *entity.Settings) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID string, row, col int) (*entity.Game, error)
	MakeBotTurn(ctx context.Context, gameID string) (*entity.Game, error)
	ResetGame(ctx context.Context, gameID string) (*entity.Game, error)
	UpdateSettings(ctx context.Context, gameID string, settings entity.Settings) (*entity.Game, error)
}

// boardUI draws the game and turns key presses into game manager calls. Every method
// runs on the tview event goroutine; the bot timer hops back onto it through queue.
type boardUI struct {
	Box  *tview.Box
	hint *tview.TextView

	logger   *slog.Logger
	games    gameManager
	game     *entity.Game
	cursor   entity.Position
	notice   string
	botDelay time.Duration
	botTimer *time.Timer
	botGen   int
	queue    func(func())
}

func newBoardUI(logger *slog.Logger, games gameManager, game *entity.Game, botDelay time.Duration, queue func(func())) *boardUI {
	board := &boardUI{
		Box:      tview.NewBox(),
		hint:     tview.NewTextView(),
		logger:   logger.With("component", "board"),
		games:    games,
		game:     game,
		cursor:   entity.Position{Row: 1, Col: 1},
		botDelay: botDelay,
		queue:    queue,
	}

	board.Box.SetBorder(true).SetTitle(" tic-tac-toe ")
	board.Box.SetDrawFunc(board.draw)
	board.Box.SetInputCapture(board.handleKey)

	if game.IsBotTurn() {
		board.scheduleBot()
	}

	board.refresh()

	return board
}

// handleKey consumes the game keys and passes everything else on.
func (that *boardUI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		that.moveCursor(-1, 0)
	case tcell.KeyDown:
		that.moveCursor(1, 0)
	case tcell.KeyLeft:
		that.moveCursor(0, -1)
	case tcell.KeyRight:
		that.moveCursor(0, 1)
	case tcell.KeyEnter:
		that.play()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			that.moveCursor(-1, 0)
		case 'j':
			that.moveCursor(1, 0)
		case 'h':
			that.moveCursor(0, -1)
		case 'l':
			that.moveCursor(0, 1)
		case ' ':
			that.play()
		case 'r':
			that.reset()
		case 'a':
			settings := that.game.Settings
			settings.AutoPlay = !settings.AutoPlay
			that.updateSettings(settings)
		case '1', '2':
			settings := that.game.Settings
			settings.Difficulty = entity.Difficulty(event.Rune() - '0')
			that.updateSettings(settings)
		default:
			return event
		}
	default:
		return event
	}

	return nil
}

func (that *boardUI) moveCursor(dRow, dCol int) {
	next := entity.Position{Row: that.cursor.Row + dRow, Col: that.cursor.Col + dCol}
	if next.InBounds() {
		that.cursor = next
	}
}

func (that *boardUI) play() {
	game, err := that.games.MakeTurn(context.Background(), that.game.ID, that.cursor.Row, that.cursor.Col)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidMove) {
			that.notice = moveNotice(err)
			that.refresh()
			return
		}

		that.fail("failed to make turn", err)
		return
	}

	that.setGame(game)
}

func (that *boardUI) reset() {
	that.cancelBot()

	game, err := that.games.ResetGame(context.Background(), that.game.ID)
	if err != nil {
		that.fail("failed to reset game", err)
		return
	}

	that.cursor = entity.Position{Row: 1, Col: 1}
	that.setGame(game)
}

func (that *boardUI) updateSettings(settings entity.Settings) {
	game, err := that.games.UpdateSettings(context.Background(), that.game.ID, settings)
	if err != nil {
		that.fail("failed to update settings", err)
		return
	}

	that.setGame(game)
}

func (that *boardUI) playBot() {
	that.botTimer = nil

	game, err := that.games.MakeBotTurn(context.Background(), that.game.ID)
	if errors.Is(err, apperror.ErrNotBotTurn) {
		return
	}

	if err != nil {
		that.fail("bot failed to move", err)
		return
	}

	that.setGame(game)
}

func (that *boardUI) setGame(game *entity.Game) {
	that.game = game
	that.notice = ""

	if game.IsBotTurn() {
		that.scheduleBot()
	} else {
		that.cancelBot()
	}

	that.refresh()
}

func (that *boardUI) scheduleBot() {
	if that.botTimer != nil {
		return
	}

	gen := that.botGen
	that.botTimer = time.AfterFunc(that.botDelay, func() {
		that.queue(func() {
			// cancelled after the callback was queued
			if gen != that.botGen {
				return
			}
			that.playBot()
		})
	})
}

// cancelBot stops the timer and invalidates a callback that is already queued.
func (that *boardUI) cancelBot() {
	that.botGen++

	if that.botTimer == nil {
		return
	}

	that.botTimer.Stop()
	that.botTimer = nil
}

func (that *boardUI) fail(msg string, err error) {
	that.logger.Error(msg, "gameID", that.game.ID, "error", err)
	that.notice = msg
	that.refresh()
}

func (that *boardUI) refresh() {
	mode := "hot seat"
	if that.game.Settings.AutoPlay {
		mode = fmt.Sprintf("vs bot (%s), difficulty %d", that.game.Settings.BotMark, that.game.Settings.Difficulty)
	}

	text := fmt.Sprintf("  %s\n  %s\n", render.Status(that.game.State), mode)
	if that.notice != "" {
		text += fmt.Sprintf("  %s\n", that.notice)
	}

	text += `
  hjkl/↑↓←→ move   ⏎ play   r reset
  a auto-play   1/2 difficulty   q quit`

	that.hint.SetText(text)
}

func (that *boardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	// inside the border
	innerX, innerY, innerW, innerH := x+1, y+1, width-2, height-2
	left := innerX + (innerW-boardWidth)/2
	top := innerY + (innerH-boardHeight)/2

	lineStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)

	for row := range entity.BoardSize {
		for col := range entity.BoardSize {
			pos := entity.Position{Row: row, Col: col}
			cellX := left + col*(cellWidth+1)
			cellY := top + row*2

			style := cellStyle(that.game.State.Board.At(pos))
			if render.IsHighlighted(that.game.State, pos) {
				style = style.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
			}
			if pos == that.cursor && that.game.State.IsOngoing() {
				style = style.Reverse(true)
			}

			screen.SetContent(cellX, cellY, ' ', nil, style)
			screen.SetContent(cellX+1, cellY, []rune(render.Mark(that.game.State.Board.At(pos)))[0], nil, style)
			screen.SetContent(cellX+2, cellY, ' ', nil, style)

			if col < entity.BoardSize-1 {
				screen.SetContent(cellX+cellWidth, cellY, '│', nil, lineStyle)
			}

			if row < entity.BoardSize-1 {
				for i := range cellWidth {
					screen.SetContent(cellX+i, cellY+1, '─', nil, lineStyle)
				}
				if col < entity.BoardSize-1 {
					screen.SetContent(cellX+cellWidth, cellY+1, '┼', nil, lineStyle)
				}
			}
		}
	}

	return innerX, innerY, innerW, innerH
}

func cellStyle(cell entity.Cell) tcell.Style {
	switch cell {
	case entity.PlayerX:
		return tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	case entity.PlayerO:
		return tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue).Bold(true)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
}

func moveNotice(err error) string {
	switch {
	case errors.Is(err, apperror.ErrCellOccupied):
		return "That cell is taken."
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "Wait for the bot."
	case errors.Is(err, apperror.ErrGameFinished):
		return "The game is over, press r to play again."
	default:
		return "Invalid move."
	}
}
