package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// session is the per-connection state. It is owned by the connection's event loop
// and never touched from another goroutine.
type session struct {
	id     string
	conn   *websocket.Conn
	gameID string

	botTimer *time.Timer
	botC     <-chan time.Time
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{
		id:   id,
		conn: conn,
	}
}

// scheduleBot arms the bot timer unless one is already pending.
func (that *session) scheduleBot(delay time.Duration) {
	if that.botTimer != nil {
		return
	}

	that.botTimer = time.NewTimer(delay)
	that.botC = that.botTimer.C
}

func (that *session) cancelBot() {
	if that.botTimer == nil {
		return
	}

	that.botTimer.Stop()
	that.botTimer = nil
	that.botC = nil
}

// botFired clears the timer after it has fired.
func (that *session) botFired() {
	that.botTimer = nil
	that.botC = nil
}
