package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lacopro/lacobot/internal/chat"
)

const (
	wsReadLimit    = 64 << 10
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type wsInbound struct {
	Message string `json:"message"`
}

type wsOutbound struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatWS relays chat over a websocket: the client sends {message}
// frames and receives {reply} frames produced by the same orchestration
// pipeline as POST /chat.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "query parameter session_id is required",
		})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, s.cfg.AllowAnyOrigin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		reply, err := s.orchestrator.Handle(r.Context(), sessionID, in.Message)
		out := wsOutbound{Reply: reply}
		if err != nil {
			if errors.Is(err, chat.ErrInvalidRequest) {
				out = wsOutbound{Error: "sessionId and message are required"}
			} else {
				out = wsOutbound{Error: "Failed to get response from AI"}
			}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
