// Command t3term plays tic-tac-toe in the terminal against a friend or the bot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rocketscienceinc/tictactoe/internal/config"
	"github.com/rocketscienceinc/tictactoe/internal/repository"
	"github.com/rocketscienceinc/tictactoe/internal/service"
	"github.com/rocketscienceinc/tictactoe/internal/usecase"
)

const logFileName = "t3term.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "t3term: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(filepath.Join(os.TempDir(), logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	// the terminal belongs to tview, so logs go to a file
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))

	games := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(conf.SessionTTL), service.NewBotService(nil), conf.GameSettings())

	game, err := games.StartGame(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	app := tview.NewApplication()
	board := newBoardUI(logger, games, game, conf.AI.MoveDelay, func(f func()) {
		app.QueueUpdateDraw(f)
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(board.Box, boardHeight+4, 0, true).
		AddItem(board.hint, 0, 1, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			app.Stop()
			return nil
		}
		return event
	})

	logger.Info("terminal game started", "gameID", game.ID)

	if err = app.SetRoot(layout, true).Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	board.cancelBot()

	return nil
}

// loadConfig reads config.yml from the working directory when present, otherwise the
// environment and defaults.
func loadConfig() (*config.Config, error) {
	baseDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(baseDir, "config.yml")
	if _, err = os.Stat(path); err == nil {
		return config.Load(path)
	}

	return config.LoadEnv()
}
