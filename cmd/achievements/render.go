package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/steamfolio/portfolio/internal/client"
	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/steamfolio/portfolio/internal/notify"
)

const barWidth = 30

var (
	styleHeader = lipgloss.NewStyle().Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B8B8B"))
	styleLocked = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))

	rarityColors = map[domain.Rarity]lipgloss.Color{
		domain.RarityCommon:    lipgloss.Color("#8B8B8B"),
		domain.RarityRare:      lipgloss.Color("#4A90E2"),
		domain.RarityEpic:      lipgloss.Color("#9B59B6"),
		domain.RarityLegendary: lipgloss.Color("#FFD700"),
	}
)

func rarityLabel(r domain.Rarity) string {
	return lipgloss.NewStyle().Foreground(rarityColors[r]).Render(string(r))
}

// progressBar renders pct (0-100) as a fixed-width bar.
func progressBar(pct float64) string {
	filled := int(pct / 100 * barWidth)
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func renderLevel(r *client.LevelReport) string {
	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(r.Style.Color)).
		Render(fmt.Sprintf("Level %d %s", r.Level.Level, r.Style.Name))

	var b strings.Builder
	b.WriteString(badge + "\n")
	fmt.Fprintf(&b, "%s %s / %s XP\n",
		progressBar(r.Level.Progress),
		humanize.Comma(r.Level.CurrentLevelXP),
		humanize.Comma(r.Level.NextLevelXP),
	)
	fmt.Fprintf(&b, "%s\n", styleMuted.Render(fmt.Sprintf(
		"%s XP total: %d repos, %d followers, %d stars, %d years, %s from achievements",
		humanize.Comma(r.Level.TotalXP),
		r.Sources.Repos, r.Sources.Followers, r.Sources.Stars, r.Sources.Years,
		notify.XPLabel(r.Sources.AchievementsXP),
	)))
	return b.String()
}

func renderStats(s *domain.AchievementStats, now time.Time) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("Achievements %d/%d (%d%%)", s.UnlockedCount, s.TotalCount, s.Percentage)))
	fmt.Fprintf(&b, "  %s\n\n", notify.XPLabel(int64(s.TotalXP)))
	b.WriteString(renderAchievements(s.Achievements, now))
	return b.String()
}

func renderAchievements(list []domain.Achievement, now time.Time) string {
	var b strings.Builder
	for _, a := range list {
		if !a.Unlocked {
			b.WriteString(styleLocked.Render(fmt.Sprintf("  [ ] %s  %s", a.Title, notify.XPLabel(int64(a.XP)))))
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "  [x] %s %s  %s  %s  %s\n",
			a.Icon, a.Title, rarityLabel(a.Rarity), notify.XPLabel(int64(a.XP)),
			styleMuted.Render(notify.UnlockedAgo(a, now)),
		)
	}
	return b.String()
}

func renderNotification(n client.Notification, now time.Time) string {
	if n.Toast == nil {
		return styleMuted.Render(n.Event)
	}
	t := n.Toast
	when := ""
	if t.UnlockedAt != nil {
		when = humanize.RelTime(*t.UnlockedAt, now, "ago", "from now")
	}
	return fmt.Sprintf("%s %s %s  %s  %s  %s",
		styleHeader.Render("Achievement unlocked!"), t.Icon, t.Title,
		rarityLabel(t.Rarity), t.XPLabel, styleMuted.Render(when))
}

func renderEvent(evt domain.Event) string {
	key := evt.Key
	if key == "" {
		key = "-"
	}
	return fmt.Sprintf("%s  %-22s %s", evt.OccurredAt.Format(time.RFC3339), evt.EventType, key)
}
