package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/repository"
	"github.com/rocketscienceinc/tictactoe/internal/service"
	"github.com/rocketscienceinc/tictactoe/internal/tictactoe"
)

var errRedisDown = errors.New("redis down")

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)

	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type mockBot struct {
	mock.Mock
}

func (that *mockBot) MakeTurn(game *entity.Game) (entity.Position, error) {
	args := that.Called(game)

	pos, _ := args.Get(0).(entity.Position)
	return pos, args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(defaults entity.Settings) *GameManager {
	return NewGameManager(newTestLogger(), repository.NewMemoryGameRepository(0), service.NewBotService(nil), defaults)
}

func TestGameManager_StartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a game with default settings", func(t *testing.T) {
		// Given: a manager with auto play on by default
		manager := newManager(entity.Settings{AutoPlay: true, Difficulty: entity.DifficultyRandom})

		// When: starting a game without settings
		game, err := manager.StartGame(ctx, nil)

		// Then: a fresh game with the defaults is stored
		require.NoError(t, err)
		assert.NotEmpty(t, game.ID)
		assert.Equal(t, tictactoe.NewGameState(), game.State)
		assert.Equal(t, entity.Settings{AutoPlay: true, Difficulty: entity.DifficultyRandom, BotMark: entity.PlayerO}, game.Settings)

		stored, err := manager.GetGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, game, stored)
	})

	t.Run("Rejects invalid settings", func(t *testing.T) {
		manager := newManager(entity.Settings{})

		_, err := manager.StartGame(ctx, &entity.Settings{Difficulty: 5})

		require.ErrorIs(t, err, apperror.ErrInvalidDifficulty)
	})

	t.Run("Returns storage errors", func(t *testing.T) {
		// Given: a repository that fails to write
		mockRepo := &mockGameRepo{}
		mockRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Game")).Return(errRedisDown).Once()

		manager := NewGameManager(newTestLogger(), mockRepo, &mockBot{}, entity.Settings{})

		// When: starting a game
		game, err := manager.StartGame(ctx, nil)

		// Then: the error is returned
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, game)
		mockRepo.AssertExpectations(t)
	})
}

func TestGameManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Hot seat game alternates players", func(t *testing.T) {
		manager := newManager(entity.Settings{})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		// When: two moves are made
		game, err = manager.MakeTurn(ctx, game.ID, 0, 0)
		require.NoError(t, err)
		game, err = manager.MakeTurn(ctx, game.ID, 1, 1)
		require.NoError(t, err)

		// Then: X and O have played and it is X's turn again
		assert.Equal(t, entity.PlayerX, game.State.Board[0][0])
		assert.Equal(t, entity.PlayerO, game.State.Board[1][1])
		assert.Equal(t, entity.PlayerX, game.State.Turn)
	})

	t.Run("Invalid move keeps stored state", func(t *testing.T) {
		manager := newManager(entity.Settings{})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		game, err = manager.MakeTurn(ctx, game.ID, 0, 0)
		require.NoError(t, err)

		// When: the same cell is played again
		_, err = manager.MakeTurn(ctx, game.ID, 0, 0)

		// Then: the move is rejected and the game is unchanged
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		stored, err := manager.GetGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, game, stored)
	})

	t.Run("Human cannot play on the bot's turn", func(t *testing.T) {
		manager := newManager(entity.Settings{AutoPlay: true})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		game, err = manager.MakeTurn(ctx, game.ID, 0, 0)
		require.NoError(t, err)
		require.True(t, game.IsBotTurn())

		_, err = manager.MakeTurn(ctx, game.ID, 1, 1)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Move after game over is rejected", func(t *testing.T) {
		manager := newManager(entity.Settings{})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		for _, pos := range []entity.Position{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 0, Col: 2}} {
			game, err = manager.MakeTurn(ctx, game.ID, pos.Row, pos.Col)
			require.NoError(t, err)
		}
		require.Equal(t, entity.StatusWon, game.State.Status())

		_, err = manager.MakeTurn(ctx, game.ID, 2, 2)

		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Unknown game", func(t *testing.T) {
		manager := newManager(entity.Settings{})

		_, err := manager.MakeTurn(ctx, "missing", 0, 0)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Storage failure on update", func(t *testing.T) {
		// Given: a repository that reads but fails to write
		mockRepo := &mockGameRepo{}
		game := &entity.Game{ID: "g1", State: tictactoe.NewGameState(), Settings: entity.Settings{}.Normalize()}
		mockRepo.On("GetByID", mock.Anything, "g1").Return(game, nil).Once()
		mockRepo.On("CreateOrUpdate", mock.Anything, game).Return(errRedisDown).Once()

		manager := NewGameManager(newTestLogger(), mockRepo, &mockBot{}, entity.Settings{})

		// When: making a turn
		_, err := manager.MakeTurn(ctx, "g1", 0, 0)

		// Then: the storage error is returned
		require.ErrorIs(t, err, errRedisDown)
		mockRepo.AssertExpectations(t)
	})
}

func TestGameManager_MakeBotTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot answers a human move", func(t *testing.T) {
		manager := newManager(entity.Settings{AutoPlay: true, Difficulty: entity.DifficultyHeuristic})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		_, err = manager.MakeTurn(ctx, game.ID, 0, 0)
		require.NoError(t, err)

		// When: the bot plays
		game, err = manager.MakeBotTurn(ctx, game.ID)

		// Then: it took the center and the human is to move
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, game.State.Board[1][1])
		assert.Equal(t, entity.PlayerX, game.State.Turn)
		assert.False(t, game.IsBotTurn())
	})

	t.Run("Bot holding X opens the game", func(t *testing.T) {
		manager := newManager(entity.Settings{})
		game, err := manager.StartGame(ctx, &entity.Settings{AutoPlay: true, Difficulty: entity.DifficultyHeuristic, BotMark: entity.PlayerX})
		require.NoError(t, err)
		require.True(t, game.IsBotTurn())

		game, err = manager.MakeBotTurn(ctx, game.ID)

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, game.State.Board[1][1])
		assert.Equal(t, entity.PlayerO, game.State.Turn)
	})

	t.Run("Bot refuses to play on the human's turn", func(t *testing.T) {
		manager := newManager(entity.Settings{AutoPlay: true})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		_, err = manager.MakeBotTurn(ctx, game.ID)

		require.ErrorIs(t, err, apperror.ErrNotBotTurn)
	})

	t.Run("No move available is surfaced", func(t *testing.T) {
		// Given: a bot that finds no move
		mockRepo := &mockGameRepo{}
		game := &entity.Game{ID: "g1", State: tictactoe.NewGameState()}
		mockRepo.On("GetByID", mock.Anything, "g1").Return(game, nil).Once()

		bot := &mockBot{}
		bot.On("MakeTurn", game).Return(entity.Position{}, apperror.ErrNoMoveAvailable).Once()

		manager := NewGameManager(newTestLogger(), mockRepo, bot, entity.Settings{})

		// When: the bot is asked to move
		_, err := manager.MakeBotTurn(ctx, "g1")

		// Then: the error is returned and nothing is stored
		require.ErrorIs(t, err, apperror.ErrNoMoveAvailable)
		mockRepo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
		bot.AssertExpectations(t)
	})
}

func TestGameManager_ResetGame(t *testing.T) {
	ctx := context.Background()
	manager := newManager(entity.Settings{AutoPlay: true, Difficulty: entity.DifficultyRandom})

	// Given: a game in progress
	game, err := manager.StartGame(ctx, nil)
	require.NoError(t, err)
	_, err = manager.MakeTurn(ctx, game.ID, 2, 2)
	require.NoError(t, err)

	// When: the game is reset
	game, err = manager.ResetGame(ctx, game.ID)

	// Then: the state is fresh and settings are kept
	require.NoError(t, err)
	assert.Equal(t, tictactoe.NewGameState(), game.State)
	assert.True(t, game.Settings.AutoPlay)
	assert.Equal(t, entity.DifficultyRandom, game.Settings.Difficulty)
}

func TestGameManager_UpdateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("Turns auto play on", func(t *testing.T) {
		manager := newManager(entity.Settings{})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)
		_, err = manager.MakeTurn(ctx, game.ID, 0, 0)
		require.NoError(t, err)

		game, err = manager.UpdateSettings(ctx, game.ID, entity.Settings{AutoPlay: true, Difficulty: entity.DifficultyRandom})

		require.NoError(t, err)
		assert.True(t, game.IsBotTurn())
		assert.Equal(t, entity.PlayerO, game.Settings.BotMark)
	})

	t.Run("Rejects invalid difficulty", func(t *testing.T) {
		manager := newManager(entity.Settings{})
		game, err := manager.StartGame(ctx, nil)
		require.NoError(t, err)

		_, err = manager.UpdateSettings(ctx, game.ID, entity.Settings{Difficulty: 9})

		require.ErrorIs(t, err, apperror.ErrInvalidDifficulty)
	})
}

func TestGameManager_EndGame(t *testing.T) {
	ctx := context.Background()
	manager := newManager(entity.Settings{})

	game, err := manager.StartGame(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, manager.EndGame(ctx, game.ID))

	_, err = manager.GetGame(ctx, game.ID)
	require.ErrorIs(t, err, apperror.ErrGameNotFound)

	require.ErrorIs(t, manager.EndGame(ctx, game.ID), apperror.ErrGameNotFound)
}

// slowRepo adds a store round-trip to every read.
type slowRepo struct {
	repository.GameRepository
	delay time.Duration
}

func (that *slowRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	time.Sleep(that.delay)
	return that.GameRepository.GetByID(ctx, id)
}

func TestGameManager_ConcurrentTurns(t *testing.T) {
	ctx := context.Background()

	// Given: a hot seat game behind a store with read latency
	repo := &slowRepo{GameRepository: repository.NewMemoryGameRepository(0), delay: time.Millisecond}
	manager := NewGameManager(newTestLogger(), repo, service.NewBotService(nil), entity.Settings{})

	game, err := manager.StartGame(ctx, nil)
	require.NoError(t, err)

	// When: every cell is played at the same time
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []entity.Position
	)

	for row := range entity.BoardSize {
		for col := range entity.BoardSize {
			wg.Add(1)
			go func() {
				defer wg.Done()

				if _, err := manager.MakeTurn(ctx, game.ID, row, col); err == nil {
					mu.Lock()
					succeeded = append(succeeded, entity.Position{Row: row, Col: col})
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	// Then: every accepted move is on the board
	stored, err := manager.GetGame(ctx, game.ID)
	require.NoError(t, err)

	var xCount, oCount int
	for _, pos := range succeeded {
		switch stored.State.Board.At(pos) {
		case entity.PlayerX:
			xCount++
		case entity.PlayerO:
			oCount++
		default:
			t.Fatalf("accepted move %v is missing from the board", pos)
		}
	}

	marks := entity.BoardSize*entity.BoardSize - len(stored.State.Board.EmptyCells())
	assert.Equal(t, len(succeeded), marks)

	// And: turns still alternated
	assert.Contains(t, []int{0, 1}, xCount-oCount)

	// And: no locks are left behind
	assert.Equal(t, 0, manager.locks.len())
}

func TestGameLocks(t *testing.T) {
	locks := newGameLocks()

	// Given: game a is held
	unlockA := locks.lock("a")

	// When: another goroutine waits for game a
	acquired := make(chan struct{})
	go func() {
		unlock := locks.lock("a")
		close(acquired)
		unlock()
	}()

	// Then: game b is not blocked by it
	unlockB := locks.lock("b")
	unlockB()

	select {
	case <-acquired:
		t.Fatal("lock on game a was acquired twice")
	case <-time.After(20 * time.Millisecond):
	}

	// When: game a is released
	unlockA()

	// Then: the waiter gets it
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired game a")
	}
}
