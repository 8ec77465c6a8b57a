package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsMaxMessageSize = 64 << 10
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
)

// handleWebsocket streams analyses over a websocket. Each text message is an
// analysis request and is answered with one result message. Browsers cannot
// set headers on the upgrade request, so the token comes in the query string.
func (h *Handler) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		unauthorized(w, "Could not validate credentials")
		return
	}
	if !user.IsActive {
		respondError(w, "Inactive user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	logger := h.logger.With("user_id", user.ID)
	logger.InfoContext(ctx, "websocket connected")

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(ctx, "websocket read failed", "error", err)
			}
			return
		}

		var reply any
		var req analysisRequest
		if err := json.Unmarshal(data, &req); err != nil {
			reply = map[string]string{"detail": "Invalid request body"}
		} else if result, err := h.analyze(ctx, user, req); err != nil {
			logger.ErrorContext(ctx, "websocket analysis failed", "error", err)
			reply = map[string]string{"detail": "Failed to analyze text"}
		} else {
			reply = result
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				logger.WarnContext(ctx, "websocket write failed", "error", err)
			}
			return
		}
	}
}
