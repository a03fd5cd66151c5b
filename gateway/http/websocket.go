package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	socketReadTimeout  = 60 * time.Second
	socketWriteTimeout = 10 * time.Second
	socketMaxFrame     = 4096
)

// searchFrame is one search-as-you-type request.
type searchFrame struct {
	Term string `json:"term"`
}

// handleSearchSocket answers every {"term": ...} text frame with a SearchResponse.
// Malformed frames get an error frame and the connection stays open.
func (s *Server) handleSearchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "WebSocket upgrade failed", "error", err,
			"request_id", RequestID(r.Context()))
		return
	}
	s.trackSocket(conn)
	defer func() {
		s.untrackSocket(conn)
		_ = conn.Close()
	}()

	conn.SetReadLimit(socketMaxFrame)
	ctx := r.Context()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.DebugContext(ctx, "WebSocket closed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var reply any
		var frame searchFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			reply = map[string]string{"error": "invalid request"}
		} else {
			reply = newSearchResponse(frame.Term, s.store.Search(ctx, frame.Term))
		}

		_ = conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.DebugContext(ctx, "WebSocket write failed", "error", err)
			return
		}
	}
}
