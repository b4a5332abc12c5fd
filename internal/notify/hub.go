package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/steamfolio/portfolio/internal/domain"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Conn is one subscribed client. Messages queued on Send are written by the
// client's write pump.
type Conn struct {
	ID   string
	Send chan []byte
}

// NewConn creates a client with a fresh id.
func NewConn() *Conn {
	return &Conn{ID: uuid.New().String(), Send: make(chan []byte, sendBuffer)}
}

// Hub fans toast, modal and badge updates out to every connected page.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Conn),
		logger: logger,
	}
}

// Join registers conn.
func (h *Hub) Join(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID] = conn
}

// Leave unregisters the connection and closes its send queue.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[connID]; ok {
		delete(h.conns, connID)
		close(conn.Send)
	}
}

// Broadcast sends event to every connection. Slow clients drop the message.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.logger.Error("ws marshal error", "error", err, "event", event)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		select {
		case conn.Send <- payload:
		default:
			h.logger.Warn("ws send buffer full", "conn_id", conn.ID, "event", event)
		}
	}
}

// HandleUnlock is an unlock listener that pushes a toast to every page.
func (h *Hub) HandleUnlock(a domain.Achievement) {
	h.Broadcast(string(domain.EventAchievementUnlocked), NewToast(a))
}

// NotifyReset tells every page that all achievements were reset.
func (h *Hub) NotifyReset() {
	h.Broadcast(string(domain.EventAchievementsReset), struct{}{})
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Serve attaches an upgraded WebSocket to the hub and blocks until the peer
// goes away or ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, ws *websocket.Conn) {
	conn := NewConn()
	h.Join(conn)
	h.logger.Info("ws client connected", "conn_id", conn.ID, "remote", ws.RemoteAddr().String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, ws, conn)
	}()

	h.readPump(ws)
	h.Leave(conn.ID)
	<-done
	h.logger.Info("ws client disconnected", "conn_id", conn.ID)
}

// readPump drains client frames so control messages are processed.
func (h *Hub) readPump(ws *websocket.Conn) {
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, ws *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case msg, ok := <-conn.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// Shutdown closes every connection's send queue.
func (h *Hub) Shutdown(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		close(conn.Send)
		delete(h.conns, id)
	}
}
