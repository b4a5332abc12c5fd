package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/steamfolio/portfolio/internal/notify"
)

// WSHandler upgrades page connections onto the notification hub.
type WSHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a WSHandler accepting the given origins; "*" accepts any.
func NewWSHandler(hub *notify.Hub, origins []string, logger *slog.Logger) *WSHandler {
	allowAll := lo.Contains(origins, "*")
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || lo.Contains(origins, origin)
			},
		},
		logger: logger,
	}
}

// Serve handles GET /ws.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	h.hub.Serve(r.Context(), conn)
}
