package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/render"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	GameID   string           `json:"game_id,omitempty"`
	Cell     *entity.Position `json:"cell,omitempty"`
	Settings *entity.Settings `json:"settings,omitempty"`
	Game     *render.GameView `json:"game,omitempty"`
	Error    string           `json:"error,omitempty"`
}
