package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
	"github.com/rocketscienceinc/tictactoe/internal/render"
)

// handleConnect resumes the game named in the payload or starts a fresh one with the
// server defaults.
func (that *Server) handleConnect(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleConnect", "sessionID", sess.id)

	payloadReq, ok, err := that.decodePayload(sess, msg)
	if !ok {
		return err
	}

	if payloadReq.GameID != "" {
		game, err := that.games.GetGame(ctx, payloadReq.GameID)
		if err == nil {
			log.Info("resumed game", "gameID", game.ID)
			return that.attachGame(sess, msg.Action, game)
		}

		if !errors.Is(err, apperror.ErrGameNotFound) {
			log.Error("failed to get game", "gameID", payloadReq.GameID, "error", err)
			return that.sendErrorResponse(sess, msg.Action, "failed to get the game")
		}

		log.Info("game not found, starting a new one", "gameID", payloadReq.GameID)
	}

	game, err := that.games.StartGame(ctx, nil)
	if err != nil {
		log.Error("failed to start game", "error", err)
		return that.sendErrorResponse(sess, msg.Action, "failed to start a new game")
	}

	return that.attachGame(sess, msg.Action, game)
}

// handleNewGame drops the current game of the session and starts another one.
func (that *Server) handleNewGame(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleNewGame", "sessionID", sess.id)

	payloadReq, ok, err := that.decodePayload(sess, msg)
	if !ok {
		return err
	}

	that.leaveGame(ctx, sess)

	game, err := that.games.StartGame(ctx, payloadReq.Settings)
	if err != nil {
		log.Error("failed to start game", "error", err)
		return that.sendErrorResponse(sess, msg.Action, err.Error())
	}

	log.Info("started game", "gameID", game.ID)

	return that.attachGame(sess, msg.Action, game)
}

func (that *Server) handleGameTurn(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleGameTurn", "sessionID", sess.id)

	payloadReq, ok, err := that.decodePayload(sess, msg)
	if !ok {
		return err
	}

	if sess.gameID == "" {
		return that.sendErrorResponse(sess, msg.Action, "no game in progress")
	}

	if payloadReq.Cell == nil {
		log.Error("Cell is missing in payload")
		return that.sendErrorResponse(sess, msg.Action, "Cell is required")
	}

	game, err := that.games.MakeTurn(ctx, sess.gameID, payloadReq.Cell.Row, payloadReq.Cell.Col)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidMove) && game != nil {
			return that.sendMessage(sess, msg.Action, Payload{GameID: game.ID, Game: render.View(game), Error: err.Error()})
		}

		log.Error("failed to make turn", "gameID", sess.gameID, "error", err)
		return that.sendErrorResponse(sess, msg.Action, err.Error())
	}

	return that.sendGame(sess, msg.Action, game)
}

func (that *Server) handleGameReset(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleGameReset", "sessionID", sess.id)

	if sess.gameID == "" {
		return that.sendErrorResponse(sess, msg.Action, "no game in progress")
	}

	sess.cancelBot()

	game, err := that.games.ResetGame(ctx, sess.gameID)
	if err != nil {
		log.Error("failed to reset game", "gameID", sess.gameID, "error", err)
		return that.sendErrorResponse(sess, msg.Action, err.Error())
	}

	return that.sendGame(sess, msg.Action, game)
}

func (that *Server) handleGameSettings(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleGameSettings", "sessionID", sess.id)

	payloadReq, ok, err := that.decodePayload(sess, msg)
	if !ok {
		return err
	}

	if sess.gameID == "" {
		return that.sendErrorResponse(sess, msg.Action, "no game in progress")
	}

	if payloadReq.Settings == nil {
		log.Error("Settings are missing in payload")
		return that.sendErrorResponse(sess, msg.Action, "Settings are required")
	}

	sess.cancelBot()

	game, err := that.games.UpdateSettings(ctx, sess.gameID, *payloadReq.Settings)
	if err != nil {
		log.Error("failed to update settings", "gameID", sess.gameID, "error", err)
		return that.sendErrorResponse(sess, msg.Action, err.Error())
	}

	return that.sendGame(sess, msg.Action, game)
}

func (that *Server) handleGameLeave(ctx context.Context, sess *session, msg *Message) error {
	gameID := sess.gameID

	that.leaveGame(ctx, sess)

	return that.sendMessage(sess, msg.Action, Payload{GameID: gameID})
}

// handleBotTurn runs when the bot timer of the session fires.
func (that *Server) handleBotTurn(ctx context.Context, sess *session) error {
	log := that.logger.With("method", "handleBotTurn", "sessionID", sess.id, "gameID", sess.gameID)

	if sess.gameID == "" {
		return nil
	}

	game, err := that.games.MakeBotTurn(ctx, sess.gameID)
	if err != nil {
		// the game may have changed since the timer was armed
		if errors.Is(err, apperror.ErrNotBotTurn) || errors.Is(err, apperror.ErrNoMoveAvailable) {
			log.Warn("bot turn skipped", "error", err)
			return nil
		}

		log.Error("failed to make bot turn", "error", err)
		return that.sendErrorResponse(sess, actionBotTurn, "bot failed to move")
	}

	return that.sendGame(sess, actionBotTurn, game)
}

func (that *Server) leaveGame(ctx context.Context, sess *session) {
	sess.cancelBot()

	if sess.gameID == "" {
		return
	}

	if err := that.games.EndGame(ctx, sess.gameID); err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
		that.logger.Error("failed to end game", "sessionID", sess.id, "gameID", sess.gameID, "error", err)
	}

	sess.gameID = ""
}

func (that *Server) attachGame(sess *session, action string, game *entity.Game) error {
	sess.cancelBot()
	sess.gameID = game.ID

	return that.sendGame(sess, action, game)
}

// sendGame pushes the game to the client and arms the bot timer when the bot moves next.
func (that *Server) sendGame(sess *session, action string, game *entity.Game) error {
	if game.IsBotTurn() {
		sess.scheduleBot(that.botDelay)
	} else {
		sess.cancelBot()
	}

	return that.sendMessage(sess, action, Payload{GameID: game.ID, Game: render.View(game)})
}

// decodePayload reports ok=false when the payload is malformed; err is then the result
// of answering the client.
func (that *Server) decodePayload(sess *session, msg *Message) (Payload, bool, error) {
	var payloadReq Payload

	if len(msg.Payload) == 0 {
		return payloadReq, true, nil
	}

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.logger.Error("failed to unmarshal payload", "sessionID", sess.id, "action", msg.Action, "error", err)
		return payloadReq, false, that.sendErrorResponse(sess, msg.Action, "malformed payload")
	}

	return payloadReq, true, nil
}

// sendErrorResponse - sends an error message to the client.
func (that *Server) sendErrorResponse(sess *session, action, errorMessage string) error {
	return that.sendMessage(sess, action, Payload{GameID: sess.gameID, Error: errorMessage})
}

// sendMessage - sends a message to the client.
func (that *Server) sendMessage(sess *session, action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = sess.conn.WriteJSON(Message{Action: action, Payload: payloadBytes}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
