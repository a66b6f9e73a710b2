package service

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/tictactoe"
)

type BotService interface {
	MakeTurn(game *entity.Game) (entity.Position, error)
}

type botService struct {
	rnd tictactoe.Random
}

// NewBotService returns a bot that draws from rnd; nil means the process-wide source.
func NewBotService(rnd tictactoe.Random) BotService {
	if rnd == nil {
		rnd = tictactoe.DefaultRandom
	}

	return &botService{
		rnd: rnd,
	}
}

// MakeTurn selects a move with the game's difficulty and applies it for the bot's mark.
func (that *botService) MakeTurn(game *entity.Game) (entity.Position, error) {
	if !game.IsBotTurn() {
		return entity.Position{}, apperror.ErrNotBotTurn
	}

	pos, err := tictactoe.SelectAIMove(game.State.Board, game.Settings.Difficulty, that.rnd)
	if err != nil {
		return entity.Position{}, fmt.Errorf("failed to select bot move: %w", err)
	}

	state, err := tictactoe.ApplyMove(game.State, game.Settings.BotMark, pos.Row, pos.Col)
	if err != nil {
		return entity.Position{}, fmt.Errorf("bot failed to make turn: %w", err)
	}

	game.State = state

	return pos, nil
}
