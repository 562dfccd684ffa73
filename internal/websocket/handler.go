package websocket

import (
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// Serve upgrades the request and streams updates for listID until the
// connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, listID int64) {
	// server timeouts would otherwise close idle subscriptions
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := ws.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept", "list_id", listID, "error", err)
		return
	}
	defer conn.CloseNow()

	client := NewClient(h, conn, listID)
	client.Run(r.Context())
	conn.Close(ws.StatusNormalClosure, "")
}
