package achievement

import (
	"time"

	"github.com/samber/lo"
	"github.com/steamfolio/portfolio/internal/domain"
)

type signalKind int

const (
	signalInit signalKind = iota
	signalElapsed
	signalSection
	signalProject
	signalHover
	signalLogo
	signalKey
	signalClick
	signalUnlock
)

// signal describes the interaction that caused an evaluation pass.
type signal struct {
	kind  signalKind
	value string
	at    time.Time
}

// evalState is the read-only view a rule is evaluated against.
type evalState struct {
	tracking      domain.TrackingState
	unlockedCount int
	projectCount  int
}

// matches reports whether rule is satisfied by sig in state st. Rules only
// respond to the signals that can change their outcome.
func matches(rule domain.Rule, sig signal, st evalState) bool {
	switch r := rule.(type) {
	case domain.Auto:
		return sig.kind == signalInit
	case domain.SectionVisited:
		return sig.kind == signalSection && sig.value == r.Section
	case domain.AllSectionsVisited:
		return sig.kind == signalSection && lo.Every(st.tracking.SectionsVisited, r.Sections)
	case domain.AllProjectsViewed:
		return sig.kind == signalProject && st.projectCount > 0 &&
			len(st.tracking.ProjectsViewed) >= st.projectCount
	case domain.HoverCount:
		return sig.kind == signalHover && len(st.tracking.AchievementsHovered) >= r.Count
	case domain.LogoClicks:
		return sig.kind == signalLogo && st.tracking.LogoClicks == r.Count
	case domain.KeySequence:
		return sig.kind == signalKey && st.tracking.KonamiProgress == len(r.Keys)
	case domain.LinkClicked:
		return sig.kind == signalClick && sig.value == r.Target
	case domain.TimeOnSite:
		return sig.kind == signalElapsed && sig.at.Sub(st.tracking.VisitStart()) >= r.After
	case domain.HourRange:
		h := sig.at.Hour()
		return sig.kind == signalInit && h >= r.From && h < r.To
	case domain.CalendarDay:
		return sig.kind == signalInit && sig.at.Month() == r.Month && sig.at.Day() == r.Day
	case domain.UnlockCount:
		return sig.kind == signalUnlock && st.unlockedCount >= r.Count
	}
	return false
}
