package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/render"
)

type turnRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type response struct {
	Game  *render.GameView `json:"game,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	settings := &entity.Settings{}

	// an empty body means the configured defaults
	err := json.NewDecoder(r.Body).Decode(settings)
	switch {
	case errors.Is(err, io.EOF):
		settings = nil
	case err != nil:
		that.writeError(w, http.StatusBadRequest, "invalid settings body", nil)
		return
	}

	game, err := that.games.StartGame(r.Context(), settings)
	if err != nil {
		that.writeGameError(w, "handleCreateGame", err, nil)
		return
	}

	that.writeJSON(w, http.StatusCreated, response{Game: render.View(game)})
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeGameError(w, "handleGetGame", err, nil)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: render.View(game)})
}

func (that *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.games.EndGame(r.Context(), r.PathValue("id")); err != nil {
		that.writeGameError(w, "handleDeleteGame", err, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Row == nil || req.Col == nil {
		that.writeError(w, http.StatusBadRequest, "row and col are required", nil)
		return
	}

	game, err := that.games.MakeTurn(r.Context(), r.PathValue("id"), *req.Row, *req.Col)
	if err != nil {
		that.writeGameError(w, "handleTurn", err, game)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: render.View(game)})
}

func (that *Server) handleBotTurn(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.MakeBotTurn(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeGameError(w, "handleBotTurn", err, game)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: render.View(game)})
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.ResetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeGameError(w, "handleReset", err, nil)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: render.View(game)})
}

func (that *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var settings entity.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid settings body", nil)
		return
	}

	game, err := that.games.UpdateSettings(r.Context(), r.PathValue("id"), settings)
	if err != nil {
		that.writeGameError(w, "handleSettings", err, nil)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: render.View(game)})
}

// writeGameError maps domain errors to status codes. Rejected moves carry the
// current game so clients can re-render.
func (that *Server) writeGameError(w http.ResponseWriter, method string, err error, game *entity.Game) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeError(w, http.StatusNotFound, apperror.ErrGameNotFound.Error(), nil)
	case errors.Is(err, apperror.ErrInvalidMove), errors.Is(err, apperror.ErrNotBotTurn):
		that.writeError(w, http.StatusConflict, err.Error(), game)
	case errors.Is(err, apperror.ErrInvalidDifficulty), errors.Is(err, entity.ErrInvalidMark):
		that.writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		that.logger.Error("request failed", "method", method, "error", err)
		that.writeError(w, http.StatusInternalServerError, "Internal Server Error", nil)
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, msg string, game *entity.Game) {
	resp := response{Error: msg}
	if game != nil {
		resp.Game = render.View(game)
	}

	that.writeJSON(w, status, resp)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
