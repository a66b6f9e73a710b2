package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/pkg"
	"github.com/rocketscienceinc/tictactoe/internal/tictactoe"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type botService interface {
	MakeTurn(game *entity.Game) (entity.Position, error)
}

// GameManager runs game sessions: it loads a game, lets the rules engine or the bot
// change it and stores the result. Updates of one game run one at a time within
// the process.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	bot      botService
	defaults entity.Settings
	locks    *gameLocks
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, bot botService, defaults entity.Settings) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		bot:      bot,
		defaults: defaults.Normalize(),
		locks:    newGameLocks(),
	}
}

// DefaultSettings returns the settings used when a client supplies none.
func (that *GameManager) DefaultSettings() entity.Settings {
	return that.defaults
}

// StartGame creates a new session. A nil settings uses the configured defaults.
func (that *GameManager) StartGame(ctx context.Context, settings *entity.Settings) (*entity.Game, error) {
	gameSettings := that.defaults
	if settings != nil {
		gameSettings = settings.Normalize()
	}

	if err := gameSettings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	game := &entity.Game{
		ID:       pkg.GenerateGameID(),
		State:    tictactoe.NewGameState(),
		Settings: gameSettings,
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Debug("game started", "gameID", game.ID, "autoPlay", gameSettings.AutoPlay, "difficulty", gameSettings.Difficulty)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// MakeTurn plays the human move at (row, col) for whoever is to move. While it is
// the bot's turn human input is rejected. On error the stored game is unchanged and
// the returned game, if any, is the current one.
func (that *GameManager) MakeTurn(ctx context.Context, gameID string, row, col int) (*entity.Game, error) {
	log := that.logger.With("method", "MakeTurn", "gameID", gameID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.IsBotTurn() {
		return game, fmt.Errorf("failed make turn: %w", apperror.ErrNotYourTurn)
	}

	state, err := tictactoe.ApplyMove(game.State, game.State.Turn, row, col)
	if err != nil {
		log.Debug("move rejected", "row", row, "col", col, "error", err)
		return game, fmt.Errorf("failed make turn: %w", err)
	}

	game.State = state

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	log.Debug("turn made", "row", row, "col", col, "status", state.Status())

	return game, nil
}

// MakeBotTurn lets the bot play if it is its turn.
func (that *GameManager) MakeBotTurn(ctx context.Context, gameID string) (*entity.Game, error) {
	log := that.logger.With("method", "MakeBotTurn", "gameID", gameID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	pos, err := that.bot.MakeTurn(game)
	if errors.Is(err, apperror.ErrNoMoveAvailable) {
		// a full board is always finished before the bot is asked to move
		log.Error("bot asked to move on a full board", "error", err)
		return game, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if err != nil {
		return game, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	log.Debug("bot turn made", "row", pos.Row, "col", pos.Col, "status", game.State.Status())

	return game, nil
}

// ResetGame replaces the game state with a fresh one, keeping the settings.
func (that *GameManager) ResetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	game.State = tictactoe.Reset(game.State)

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Debug("game reset", "gameID", gameID)

	return game, nil
}

// UpdateSettings changes auto play, difficulty or the bot's mark of a running game.
func (that *GameManager) UpdateSettings(ctx context.Context, gameID string, settings entity.Settings) (*entity.Game, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	game.Settings = settings

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// EndGame removes the session.
func (that *GameManager) EndGame(ctx context.Context, gameID string) error {
	unlock := that.locks.lock(gameID)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Debug("game deleted", "gameID", gameID)

	return nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}
