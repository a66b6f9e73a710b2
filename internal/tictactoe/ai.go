package tictactoe

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

// Random is the subset of *rand.Rand the AI needs.
type Random interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRandom struct{}

func (globalRandom) Intn(n int) int {
	return rand.Intn(n) //nolint: gosec // it's ok
}

func (globalRandom) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// DefaultRandom uses the process-wide math/rand source.
var DefaultRandom Random = globalRandom{}

var (
	center = entity.Position{Row: 1, Col: 1}

	corners = [4]entity.Position{
		{Row: 0, Col: 0},
		{Row: 0, Col: 2},
		{Row: 2, Col: 0},
		{Row: 2, Col: 2},
	}

	edges = [4]entity.Position{
		{Row: 0, Col: 1},
		{Row: 1, Col: 0},
		{Row: 1, Col: 2},
		{Row: 2, Col: 1},
	}
)

// SelectAIMove picks the next AI move for the given difficulty. A nil rnd falls back
// to DefaultRandom.
func SelectAIMove(board entity.Board, difficulty entity.Difficulty, rnd Random) (entity.Position, error) {
	if rnd == nil {
		rnd = DefaultRandom
	}

	switch difficulty {
	case entity.DifficultyRandom:
		return randomMove(board, rnd)
	case entity.DifficultyHeuristic:
		return heuristicMove(board, rnd)
	default:
		return entity.Position{}, fmt.Errorf("%w: %d", apperror.ErrInvalidDifficulty, difficulty)
	}
}

func randomMove(board entity.Board, rnd Random) (entity.Position, error) {
	available := board.EmptyCells()
	if len(available) == 0 {
		return entity.Position{}, apperror.ErrNoMoveAvailable
	}

	return available[rnd.Intn(len(available))], nil
}

// heuristicMove prefers the center, then a random free corner, then a random free edge.
func heuristicMove(board entity.Board, rnd Random) (entity.Position, error) {
	if board.At(center) == entity.EmptyCell {
		return center, nil
	}

	for _, group := range [][4]entity.Position{corners, edges} {
		rnd.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})

		for _, pos := range group {
			if board.At(pos) == entity.EmptyCell {
				return pos, nil
			}
		}
	}

	return entity.Position{}, apperror.ErrNoMoveAvailable
}
