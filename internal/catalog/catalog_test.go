package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	c := Default()
	assert.Equal(t, 18, c.Len())

	first := c.All()[0]
	assert.Equal(t, "first-steps", first.ID)
	assert.Equal(t, domain.TriggerAuto, first.Trigger)
	assert.Equal(t, 10, first.XP)
}

func TestDefault_UniqueIDsAndPositiveXP(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Default().All() {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.Greater(t, d.XP, 0, d.ID)

		min, max, ok := d.Rarity.XPRange()
		require.True(t, ok, d.ID)
		assert.GreaterOrEqual(t, d.XP, min, d.ID)
		assert.LessOrEqual(t, d.XP, max, d.ID)
	}
}

func TestDefault_TypedRules(t *testing.T) {
	c := Default()

	tests := []struct {
		id   string
		rule domain.Rule
	}{
		{"tech-savvy", domain.SectionVisited{Section: "skills"}},
		{"achievement-collector", domain.HoverCount{Count: 6}},
		{"secret-sequence", domain.LogoClicks{Count: 10}},
		{"committed-visitor", domain.TimeOnSite{After: 2 * time.Minute}},
		{"night-owl", domain.HourRange{From: 0, To: 6}},
		{"birthday-surprise", domain.CalendarDay{Month: time.January, Day: 5}},
		{"profile-completionist", domain.UnlockCount{Count: 10}},
		{"star-gazer", domain.LinkClicked{Target: "github-link"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, ok := c.ByID(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}

	konami, ok := c.ByID("konami-code-master")
	require.True(t, ok)
	seq, ok := konami.Rule.(domain.KeySequence)
	require.True(t, ok)
	assert.Len(t, seq.Keys, 10)
	assert.Equal(t, "ArrowUp", seq.Keys[0])
	assert.Equal(t, "KeyA", seq.Keys[9])
}

func TestDefault_Conditions(t *testing.T) {
	c := Default()

	d, _ := c.ByID("curious-mind")
	assert.Equal(t, "all-sections", d.Condition)
	d, _ = c.ByID("committed-visitor")
	assert.Equal(t, "120000", d.Condition)
	d, _ = c.ByID("profile-completionist")
	assert.Equal(t, "achievement-count-10", d.Condition)
}

func TestByRarity(t *testing.T) {
	legendary := Default().ByRarity(domain.RarityLegendary)
	ids := make([]string, 0, len(legendary))
	for _, d := range legendary {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"konami-code-master", "birthday-surprise", "profile-completionist"}, ids)
}

func TestTotalPossibleXP(t *testing.T) {
	// 10+25+15+30+20+20+35+40+30+15+15+100+75+50+150+45+15+200
	assert.Equal(t, 890, Default().TotalPossibleXP())
}

func TestByID_Unknown(t *testing.T) {
	_, ok := Default().ByID("does-not-exist")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Title = "mutated"

	d, _ := c.ByID("first-steps")
	assert.Equal(t, "First Steps", d.Title)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			"duplicate id",
			`achievements:
  - {id: a, trigger: auto, rarity: common, xp: 10, rule: {type: auto}}
  - {id: a, trigger: auto, rarity: common, xp: 10, rule: {type: auto}}`,
			"duplicate achievement id",
		},
		{
			"zero xp",
			`achievements:
  - {id: a, trigger: auto, rarity: common, xp: 0, rule: {type: auto}}`,
			"xp must be positive",
		},
		{
			"xp outside rarity range",
			`achievements:
  - {id: a, trigger: auto, rarity: common, xp: 90, rule: {type: auto}}`,
			"common xp must be within 10-25",
		},
		{
			"unknown rule",
			`achievements:
  - {id: a, trigger: auto, rarity: common, xp: 10, rule: {type: teleport}}`,
			"unknown rule type",
		},
		{
			"unknown trigger",
			`achievements:
  - {id: a, trigger: hover, rarity: common, xp: 10, rule: {type: auto}}`,
			"unknown trigger",
		},
		{
			"bad duration",
			`achievements:
  - {id: a, trigger: time, rarity: common, xp: 10, rule: {type: time-on-site, after: soon}}`,
			"time-on-site after",
		},
		{
			"bad hour range",
			`achievements:
  - {id: a, trigger: time, rarity: common, xp: 10, rule: {type: hour-range, from: 6, to: 2}}`,
			"hour-range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `achievements:
  - {id: hello, title: Hello, trigger: auto, rarity: rare, xp: 30, rule: {type: auto}}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	d, ok := c.ByID("hello")
	require.True(t, ok)
	assert.Equal(t, domain.RarityRare, d.Rarity)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), c.Len())
}
