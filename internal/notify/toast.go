// Package notify delivers unlock events to the page and to external consumers.
package notify

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/steamfolio/portfolio/internal/domain"
)

// Message is the envelope written to WebSocket clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Toast is the notification shown when an achievement unlocks.
type Toast struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Rarity      domain.Rarity `json:"rarity"`
	XP          int           `json:"xp"`
	XPLabel     string        `json:"xpLabel"`
	UnlockedAt  *time.Time    `json:"unlockedAt,omitempty"`
}

// NewToast builds the toast payload for a.
func NewToast(a domain.Achievement) Toast {
	return Toast{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Rarity:      a.Rarity,
		XP:          a.XP,
		XPLabel:     XPLabel(int64(a.XP)),
		UnlockedAt:  a.UnlockedAt,
	}
}

// XPLabel formats an XP amount as "+1,250 XP".
func XPLabel(xp int64) string {
	return "+" + humanize.Comma(xp) + " XP"
}

// UnlockedAgo describes when a was unlocked relative to now, e.g. "3 minutes ago".
// Locked achievements return an empty string.
func UnlockedAgo(a domain.Achievement, now time.Time) string {
	if a.UnlockedAt == nil {
		return ""
	}
	return humanize.RelTime(*a.UnlockedAt, now, "ago", "from now")
}
