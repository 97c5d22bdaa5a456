package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. An optional user_id query parameter limits the
// connection to that user's changes.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID != "" {
			if _, err := uuid.Parse(userID); err != nil {
				http.Error(w, "invalid user_id", http.StatusBadRequest)
				return
			}
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Clients are mobile apps and assistants, not browsers on a known origin
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		hub.logger.Debug("websocket connected", "user_id", userID, "remote", r.RemoteAddr)
		client.Run(r.Context())
	}
}
