package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/steamfolio/portfolio/internal/notify"
)

const pongTimeout = 60 * time.Second

// Notification is one message from the unlock stream. Toast is set for
// achievement.unlocked events.
type Notification struct {
	Event string
	Toast *notify.Toast
}

// Watch connects to the notification stream at wsURL and calls fn for every
// message until ctx ends or the connection drops. A cancelled ctx is not an error.
func Watch(ctx context.Context, wsURL string, fn func(Notification)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		n, err := parseNotification(data)
		if err != nil {
			continue
		}
		fn(n)
	}
}

func parseNotification(data []byte) (Notification, error) {
	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return Notification{}, err
	}
	n := Notification{Event: msg.Event}
	if msg.Event == string(domain.EventAchievementUnlocked) {
		var t notify.Toast
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return Notification{}, err
		}
		n.Toast = &t
	}
	return n, nil
}
