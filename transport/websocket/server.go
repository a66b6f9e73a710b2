package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/pkg"
)

const shutdownTimeout = 5 * time.Second

const (
	actionConnect  = "connect"
	actionNewGame  = "game:new"
	actionTurn     = "game:turn"
	actionBotTurn  = "game:bot-turn"
	actionReset    = "game:reset"
	actionSettings = "game:settings"
	actionLeave    = "game:leave"
	actionUnknown  = "error"
)

type gameManager interface {
	StartGame(ctx context.Context, settings *entity.Settings) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID string, row, col int) (*entity.Game, error)
	MakeBotTurn(ctx context.Context, gameID string) (*entity.Game, error)
	ResetGame(ctx context.Context, gameID string) (*entity.Game, error)
	UpdateSettings(ctx context.Context, gameID string, settings entity.Settings) (*entity.Game, error)
	EndGame(ctx context.Context, gameID string) error
}

type handlerFunc func(ctx context.Context, sess *session, msg *Message) error

type Server struct {
	logger   *slog.Logger
	games    gameManager
	upgrader websocket.Upgrader
	botDelay time.Duration

	handlers map[string]handlerFunc
}

// New builds the server. botDelay is how long the bot waits before answering so the
// client can render the human move first.
func New(logger *slog.Logger, games gameManager, botDelay time.Duration) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		games:    games,
		botDelay: botDelay,
		upgrader: websocket.Upgrader{
			// the game is served to any browser origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionNewGame] = server.handleNewGame
	server.handlers[actionTurn] = server.handleGameTurn
	server.handlers[actionReset] = server.handleGameReset
	server.handlers[actionSettings] = server.handleGameSettings
	server.handlers[actionLeave] = server.handleGameLeave

	return server
}

// Handler returns the routes of the WebSocket server.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	sessionID := pkg.GenerateNewSessionID()
	log := that.logger.With("method", "upgradeConnection", "sessionID", sessionID)

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, newSession(sessionID, conn)); err != nil {
		log.Error("error handling messages", "error", err)
		return
	}

	log.Info("WebSocket connection closed")
}

// handleMessages - processes messages from the client. Inbound messages and the bot
// timer are handled one at a time on this goroutine.
func (that *Server) handleMessages(ctx context.Context, sess *session) error {
	log := that.logger.With("method", "handleMessages", "sessionID", sess.id)

	defer sess.cancelBot()

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, data, err := sess.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}

			select {
			case inbound <- data:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)

		case data := <-inbound:
			var message Message
			if err := json.Unmarshal(data, &message); err != nil {
				log.Error("failed to unmarshal message", "error", err)
				if err = that.sendErrorResponse(sess, actionUnknown, "malformed message"); err != nil {
					return err
				}
				continue
			}

			handler, ok := that.handlers[message.Action]
			if !ok {
				log.Error("unknown action", "action", message.Action)
				if err := that.sendErrorResponse(sess, message.Action, "unknown action"); err != nil {
					return err
				}
				continue
			}

			if err := handler(ctx, sess, &message); err != nil {
				log.Error("error processing message", "action", message.Action, "error", err)
				return err
			}

		case <-sess.botC:
			sess.botFired()

			if err := that.handleBotTurn(ctx, sess); err != nil {
				log.Error("error processing bot turn", "error", err)
				return err
			}
		}
	}
}
