package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/repository"
	"github.com/rocketscienceinc/tictactoe/internal/service"
	"github.com/rocketscienceinc/tictactoe/internal/usecase"
)

func newTestServer(t *testing.T, defaults entity.Settings) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(0), service.NewBotService(nil), defaults)

	srv := httptest.NewServer(New(logger, manager).Handler())
	t.Cleanup(srv.Close)

	return srv
}

func doRequest(t *testing.T, method, url, body string) (int, response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded response
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}

	return resp.StatusCode, decoded
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, entity.Settings{})

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestGameLifecycle(t *testing.T) {
	srv := newTestServer(t, entity.Settings{})

	// Given: a new hot seat game
	status, resp := doRequest(t, http.MethodPost, srv.URL+"/games", "")
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, resp.Game)
	gameURL := srv.URL + "/games/" + resp.Game.ID

	assert.Equal(t, "It's Player 1's turn.", resp.Game.Message)

	// When: X wins along the top row
	moves := []string{
		`{"row":0,"col":0}`, `{"row":1,"col":0}`,
		`{"row":0,"col":1}`, `{"row":1,"col":1}`,
		`{"row":0,"col":2}`,
	}
	for _, move := range moves {
		status, resp = doRequest(t, http.MethodPost, gameURL+"/turns", move)
		require.Equal(t, http.StatusOK, status, resp.Error)
	}

	// Then: the game reports the win
	assert.Equal(t, entity.StatusWon, resp.Game.Status)
	assert.Equal(t, "Player 1 wins!", resp.Game.Message)
	assert.Equal(t, entity.PlayerX, resp.Game.Winner)
	assert.Len(t, resp.Game.WinningLine, 3)

	// And: further moves conflict but return the game
	status, resp = doRequest(t, http.MethodPost, gameURL+"/turns", `{"row":2,"col":2}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, resp.Error)
	require.NotNil(t, resp.Game)
	assert.Equal(t, "", resp.Game.Board[2][2])

	// When: the game is reset
	status, resp = doRequest(t, http.MethodPost, gameURL+"/reset", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.StatusInProgress, resp.Game.Status)

	// When: the game is deleted
	status, _ = doRequest(t, http.MethodDelete, gameURL, "")
	require.Equal(t, http.StatusNoContent, status)

	status, resp = doRequest(t, http.MethodGet, gameURL, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, resp.Error)
}

func TestBotTurn(t *testing.T) {
	srv := newTestServer(t, entity.Settings{})

	// Given: a game against the heuristic bot
	status, resp := doRequest(t, http.MethodPost, srv.URL+"/games", `{"auto_play":true,"difficulty":2}`)
	require.Equal(t, http.StatusCreated, status)
	gameURL := srv.URL + "/games/" + resp.Game.ID

	// When: the bot is asked to move first
	status, _ = doRequest(t, http.MethodPost, gameURL+"/bot-turn", "")

	// Then: it is refused because the human moves first
	assert.Equal(t, http.StatusConflict, status)

	// When: the human plays a corner
	status, resp = doRequest(t, http.MethodPost, gameURL+"/turns", `{"row":0,"col":0}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Game.BotPending)

	// And: the human tries again before the bot
	status, _ = doRequest(t, http.MethodPost, gameURL+"/turns", `{"row":2,"col":2}`)
	assert.Equal(t, http.StatusConflict, status)

	// When: the bot moves
	status, resp = doRequest(t, http.MethodPost, gameURL+"/bot-turn", "")

	// Then: it took the center
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "O", resp.Game.Board[1][1])
	assert.False(t, resp.Game.BotPending)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, entity.Settings{})

	status, resp := doRequest(t, http.MethodPost, srv.URL+"/games", `{"difficulty":3}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, resp.Error)

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/games", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = doRequest(t, http.MethodPost, srv.URL+"/games", "")
	require.Equal(t, http.StatusCreated, status)
	gameURL := srv.URL + "/games/" + resp.Game.ID

	status, _ = doRequest(t, http.MethodPost, gameURL+"/turns", `{"row":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, gameURL+"/turns", `{"row":5,"col":1}`)
	assert.Equal(t, http.StatusConflict, status)

	status, resp = doRequest(t, http.MethodPut, gameURL+"/settings", `{"auto_play":true,"difficulty":1}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Game.Settings.AutoPlay)
	assert.Equal(t, entity.DifficultyRandom, resp.Game.Settings.Difficulty)

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/games/missing/turns", `{"row":0,"col":0}`)
	assert.Equal(t, http.StatusNotFound, status)
}
