package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
)

var ErrInvalidMark = errors.New("invalid mark")

type OutcomeKind string

const (
	OutcomeNone OutcomeKind = "none"
	OutcomeWin  OutcomeKind = "win"
	OutcomeDraw OutcomeKind = "draw"
)

// Outcome holds the result of a game. Winner and Line are set only for OutcomeWin.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Cell        `json:"winner,omitempty"`
	Line   *Line       `json:"line,omitempty"`
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusDrawn      Status = "drawn"
)

// GameState is the whole state of a single game. It is only changed by applying a move
// and is replaced wholesale on reset.
type GameState struct {
	Board   Board   `json:"board"`
	Turn    Cell    `json:"player_turn"`
	Over    bool    `json:"over"`
	Outcome Outcome `json:"outcome"`
}

func (that GameState) Status() Status {
	switch that.Outcome.Kind {
	case OutcomeWin:
		return StatusWon
	case OutcomeDraw:
		return StatusDrawn
	default:
		return StatusInProgress
	}
}

func (that GameState) IsFinished() bool {
	return that.Over
}

func (that GameState) IsOngoing() bool {
	return !that.Over
}

// Difficulty selects the AI move policy.
type Difficulty int

const (
	DifficultyRandom    Difficulty = 1
	DifficultyHeuristic Difficulty = 2
)

func (that Difficulty) IsValid() bool {
	return that == DifficultyRandom || that == DifficultyHeuristic
}

// Settings are the per-game configuration inputs of the presentation layer.
type Settings struct {
	AutoPlay   bool       `json:"auto_play"`
	Difficulty Difficulty `json:"difficulty"`
	BotMark    Cell       `json:"bot_mark,omitempty"`
}

// Normalize fills in defaults for unset fields.
func (that Settings) Normalize() Settings {
	if that.BotMark == EmptyCell {
		that.BotMark = PlayerO
	}
	if that.Difficulty == 0 {
		that.Difficulty = DifficultyHeuristic
	}
	return that
}

func (that Settings) Validate() error {
	if !that.Difficulty.IsValid() {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidDifficulty, that.Difficulty)
	}

	if !that.BotMark.IsPlayer() {
		return fmt.Errorf("%w: bot mark %q", ErrInvalidMark, that.BotMark)
	}

	return nil
}

// Game is a session record: a game state plus the settings it is played with.
type Game struct {
	ID       string    `json:"id"`
	State    GameState `json:"state"`
	Settings Settings  `json:"settings"`
}

// IsBotTurn reports whether the AI should move next.
func (that *Game) IsBotTurn() bool {
	return that.Settings.AutoPlay && that.State.IsOngoing() && that.State.Turn == that.Settings.BotMark
}
