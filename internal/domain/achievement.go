package domain

import "time"

// Rarity is the collectability tier of an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// XPRange returns the inclusive XP bounds an achievement of this rarity may carry.
func (r Rarity) XPRange() (min, max int, ok bool) {
	switch r {
	case RarityCommon:
		return 10, 25, true
	case RarityRare:
		return 30, 45, true
	case RarityEpic:
		return 50, 75, true
	case RarityLegendary:
		return 100, 200, true
	}
	return 0, 0, false
}

// TriggerKind is the display category of what unlocks an achievement.
type TriggerKind string

const (
	TriggerAuto      TriggerKind = "auto"
	TriggerScroll    TriggerKind = "scroll"
	TriggerClick     TriggerKind = "click"
	TriggerTime      TriggerKind = "time"
	TriggerEasterEgg TriggerKind = "easter-egg"
)

// Definition is an immutable catalog entry.
type Definition struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Trigger     TriggerKind `json:"trigger"`
	Condition   string      `json:"triggerCondition,omitempty"`
	Rule        Rule        `json:"-"`
	Rarity      Rarity      `json:"rarity"`
	XP          int         `json:"xp"`
}

// Achievement is a catalog definition merged with its unlock status.
// Values are always fresh copies; mutating one never touches the catalog.
type Achievement struct {
	Definition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// UnlockRecord is the persisted form of an unlocked achievement.
// UnlockedAt is epoch milliseconds. Locked achievements have no record.
type UnlockRecord struct {
	Unlocked   bool  `json:"unlocked"`
	UnlockedAt int64 `json:"unlockedAt"`
}

// TrackingState holds the visitor interaction counters and sets.
type TrackingState struct {
	VisitStartTime      int64    `json:"visitStartTime"`
	SectionsVisited     []string `json:"sectionsVisited"`
	ProjectsViewed      []string `json:"projectsViewed"`
	AchievementsHovered []string `json:"achievementsHovered"`
	LogoClicks          int      `json:"logoClicks"`
	KonamiProgress      int      `json:"konamiProgress"`
}

// NewTrackingState returns an empty state whose visit started at now.
func NewTrackingState(now time.Time) TrackingState {
	return TrackingState{
		VisitStartTime:      now.UnixMilli(),
		SectionsVisited:     []string{},
		ProjectsViewed:      []string{},
		AchievementsHovered: []string{},
	}
}

// VisitStart returns the visit start as a time.
func (s TrackingState) VisitStart() time.Time {
	return time.UnixMilli(s.VisitStartTime)
}

// AchievementStats is the derived summary returned by the engine.
type AchievementStats struct {
	UnlockedCount int           `json:"unlockedCount"`
	TotalCount    int           `json:"totalCount"`
	Percentage    int           `json:"percentage"`
	TotalXP       int           `json:"totalXP"`
	Achievements  []Achievement `json:"achievements"`
}
