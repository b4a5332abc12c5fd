package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewAchievementUnlockedEvent creates the envelope for a freshly unlocked achievement.
func NewAchievementUnlockedEvent(a Achievement) Event {
	payload, _ := json.Marshal(a)
	occurred := time.Now()
	if a.UnlockedAt != nil {
		occurred = *a.UnlockedAt
	}
	return Event{
		EventID:    uuid.New().String(),
		EventType:  EventAchievementUnlocked,
		Key:        a.ID,
		Payload:    payload,
		OccurredAt: occurred,
	}
}

// NewAchievementsResetEvent creates the envelope emitted after a reset.
func NewAchievementsResetEvent() Event {
	return Event{
		EventID:    uuid.New().String(),
		EventType:  EventAchievementsReset,
		Payload:    json.RawMessage(`{}`),
		OccurredAt: time.Now(),
	}
}
