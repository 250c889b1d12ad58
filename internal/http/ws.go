package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	coreflow "github.com/timescope/featureset-api/internal/flow"
)

// FlowSubscriber opens a per-user stream of flow messages. The Redis emitter
// adapter satisfies this.
type FlowSubscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan coreflow.Message, error)
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		// Token auth already gates the handler; origin carries no extra signal
		// for non-cookie clients.
		return true
	},
}

// FlowHandlers bridges the per-user flow channel onto a live websocket.
type FlowHandlers struct {
	Subscriber FlowSubscriber
	Logger     *slog.Logger
}

// ServeFlow handles GET /ws/flow. It upgrades the connection and forwards
// every message published to the user's flow channel until either side goes
// away.
func (h *FlowHandlers) ServeFlow(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	messages, err := h.Subscriber.Subscribe(ctx, user.ID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("flow subscription failed", "user_id", user.ID, "error", err)
		}
		return
	}

	if h.Logger != nil {
		h.Logger.Debug("flow websocket connected", "user_id", user.ID)
	}

	// Reader goroutine: we never expect client frames, but reading is what
	// surfaces close frames and pong responses.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				if h.Logger != nil {
					h.Logger.Debug("flow websocket write failed", "user_id", user.ID, "error", err)
				}
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
