package domain

import (
	"fmt"
	"strings"
	"time"
)

// Rule is the typed unlock condition of a catalog entry. The set of rules is
// closed: only the types in this file implement it.
type Rule interface {
	// Condition is a short human-readable label, e.g. "all-sections".
	Condition() string
	isRule()
}

// Auto unlocks when the achievement system initializes.
type Auto struct{}

// SectionVisited unlocks the first time a specific section is visited.
type SectionVisited struct {
	Section string
}

// AllSectionsVisited unlocks once every listed section has been visited.
type AllSectionsVisited struct {
	Sections []string
}

// AllProjectsViewed unlocks once the configured number of distinct projects
// has been viewed.
type AllProjectsViewed struct{}

// HoverCount unlocks once Count distinct achievements have been hovered.
type HoverCount struct {
	Count int
}

// LogoClicks unlocks when the logo click counter reaches exactly Count.
// The counter resets to zero at that point.
type LogoClicks struct {
	Count int
}

// KeySequence unlocks when Keys are entered in order without a mistake.
type KeySequence struct {
	Keys []string
}

// LinkClicked unlocks when the visitor clicks the named target.
type LinkClicked struct {
	Target string
}

// TimeOnSite unlocks once After has elapsed since the visit started.
type TimeOnSite struct {
	After time.Duration
}

// HourRange unlocks at initialization when the local hour is in [From, To).
type HourRange struct {
	From int
	To   int
}

// CalendarDay unlocks at initialization on the given local month and day.
type CalendarDay struct {
	Month time.Month
	Day   int
}

// UnlockCount unlocks once at least Count achievements are unlocked.
type UnlockCount struct {
	Count int
}

func (Auto) isRule() {}
func (SectionVisited) isRule() {}
func (AllSectionsVisited) isRule() {}
func (AllProjectsViewed) isRule() {}
func (HoverCount) isRule() {}
func (LogoClicks) isRule() {}
func (KeySequence) isRule() {}
func (LinkClicked) isRule() {}
func (TimeOnSite) isRule() {}
func (HourRange) isRule() {}
func (CalendarDay) isRule() {}
func (UnlockCount) isRule() {}

func (Auto) Condition() string { return "auto" }
func (r SectionVisited) Condition() string { return r.Section + "-section" }
func (AllSectionsVisited) Condition() string { return "all-sections" }
func (AllProjectsViewed) Condition() string { return "all-projects" }
func (HoverCount) Condition() string { return "all-achievements" }
func (LogoClicks) Condition() string { return "logo-clicks" }
func (KeySequence) Condition() string { return "key-sequence" }
func (r LinkClicked) Condition() string { return r.Target }
func (r TimeOnSite) Condition() string { return fmt.Sprintf("%d", r.After.Milliseconds()) }
func (r HourRange) Condition() string { return fmt.Sprintf("hours-%02d-%02d", r.From, r.To) }
func (r UnlockCount) Condition() string { return fmt.Sprintf("achievement-count-%d", r.Count) }

func (r CalendarDay) Condition() string {
	return strings.ToLower(fmt.Sprintf("%s-%d", r.Month, r.Day))
}
