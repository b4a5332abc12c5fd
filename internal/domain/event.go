package domain

import (
	"encoding/json"
	"time"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventAchievementsReset   EventType = "achievement.reset"
)

// Event is the envelope forwarded to external subscribers (WebSocket, Kafka).
type Event struct {
	EventID    string          `json:"eventId"`
	EventType  EventType       `json:"eventType"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}
