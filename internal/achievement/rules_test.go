package achievement

import (
	"testing"
	"time"

	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	start := time.Date(2026, time.January, 5, 2, 0, 0, 0, time.UTC)
	st := evalState{
		tracking: domain.TrackingState{
			VisitStartTime:      start.UnixMilli(),
			SectionsVisited:     []string{"skills", "stats"},
			ProjectsViewed:      []string{"1", "2"},
			AchievementsHovered: []string{"a", "b", "c"},
			LogoClicks:          10,
			KonamiProgress:      3,
		},
		unlockedCount: 10,
		projectCount:  2,
	}

	tests := []struct {
		name string
		rule domain.Rule
		sig  signal
		want bool
	}{
		{"auto on init", domain.Auto{}, signal{kind: signalInit, at: start}, true},
		{"auto ignores clicks", domain.Auto{}, signal{kind: signalClick, value: "x"}, false},
		{"section match", domain.SectionVisited{Section: "skills"}, signal{kind: signalSection, value: "skills"}, true},
		{"section other", domain.SectionVisited{Section: "skills"}, signal{kind: signalSection, value: "stats"}, false},
		{"all sections subset", domain.AllSectionsVisited{Sections: []string{"stats", "skills"}}, signal{kind: signalSection}, true},
		{"all sections missing", domain.AllSectionsVisited{Sections: []string{"stats", "hobbies"}}, signal{kind: signalSection}, false},
		{"all projects", domain.AllProjectsViewed{}, signal{kind: signalProject}, true},
		{"hover below", domain.HoverCount{Count: 4}, signal{kind: signalHover}, false},
		{"hover reached", domain.HoverCount{Count: 3}, signal{kind: signalHover}, true},
		{"logo exact", domain.LogoClicks{Count: 10}, signal{kind: signalLogo}, true},
		{"logo other count", domain.LogoClicks{Count: 5}, signal{kind: signalLogo}, false},
		{"key sequence done", domain.KeySequence{Keys: []string{"a", "b", "c"}}, signal{kind: signalKey}, true},
		{"key sequence partial", domain.KeySequence{Keys: []string{"a", "b", "c", "d"}}, signal{kind: signalKey}, false},
		{"link", domain.LinkClicked{Target: "email-click"}, signal{kind: signalClick, value: "email-click"}, true},
		{"time not yet", domain.TimeOnSite{After: 2 * time.Minute}, signal{kind: signalElapsed, at: start.Add(time.Minute)}, false},
		{"time elapsed", domain.TimeOnSite{After: 2 * time.Minute}, signal{kind: signalElapsed, at: start.Add(2 * time.Minute)}, true},
		{"time waits for elapsed pass", domain.TimeOnSite{After: 2 * time.Minute}, signal{kind: signalInit, at: start.Add(2 * time.Minute)}, false},
		{"hour inside", domain.HourRange{From: 0, To: 6}, signal{kind: signalInit, at: start}, true},
		{"hour outside", domain.HourRange{From: 0, To: 6}, signal{kind: signalInit, at: start.Add(4 * time.Hour)}, false},
		{"calendar day", domain.CalendarDay{Month: time.January, Day: 5}, signal{kind: signalInit, at: start}, true},
		{"calendar other day", domain.CalendarDay{Month: time.January, Day: 5}, signal{kind: signalInit, at: start.Add(24 * time.Hour)}, false},
		{"unlock count", domain.UnlockCount{Count: 10}, signal{kind: signalUnlock}, true},
		{"unlock count not reached", domain.UnlockCount{Count: 11}, signal{kind: signalUnlock}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matches(tt.rule, tt.sig, st))
		})
	}
}

func TestMatches_ProjectsUnreachableWithoutCount(t *testing.T) {
	st := evalState{tracking: domain.TrackingState{ProjectsViewed: []string{"1", "2", "3"}}}
	assert.False(t, matches(domain.AllProjectsViewed{}, signal{kind: signalProject}, st))
}
