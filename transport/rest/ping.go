package rest

import (
	"io"
	"net/http"
)

// handlePing answers liveness probes.
func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := io.WriteString(w, "pong"); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}
