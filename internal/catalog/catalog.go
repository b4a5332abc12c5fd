// Package catalog holds the static, ordered list of visitor achievements.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/steamfolio/portfolio/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is an immutable, ordered set of achievement definitions.
type Catalog struct {
	defs  []domain.Definition
	index map[string]int
}

type fileSpec struct {
	Achievements []entrySpec `yaml:"achievements"`
}

type entrySpec struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Icon        string   `yaml:"icon"`
	Trigger     string   `yaml:"trigger"`
	Rarity      string   `yaml:"rarity"`
	XP          int      `yaml:"xp"`
	Rule        ruleSpec `yaml:"rule"`
}

type ruleSpec struct {
	Type     string   `yaml:"type"`
	Section  string   `yaml:"section"`
	Sections []string `yaml:"sections"`
	Count    int      `yaml:"count"`
	Keys     []string `yaml:"keys"`
	Target   string   `yaml:"target"`
	After    string   `yaml:"after"`
	From     int      `yaml:"from"`
	To       int      `yaml:"to"`
	Month    int      `yaml:"month"`
	Day      int      `yaml:"day"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc fileSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	defs := make([]domain.Definition, 0, len(doc.Achievements))
	for _, e := range doc.Achievements {
		rule, err := e.Rule.toRule()
		if err != nil {
			return nil, fmt.Errorf("achievement %q: %w", e.ID, err)
		}
		defs = append(defs, domain.Definition{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Icon:        e.Icon,
			Trigger:     domain.TriggerKind(e.Trigger),
			Condition:   rule.Condition(),
			Rule:        rule,
			Rarity:      domain.Rarity(e.Rarity),
			XP:          e.XP,
		})
	}
	return New(defs)
}

// New validates defs and builds a catalog. Order is preserved.
func New(defs []domain.Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]domain.Definition, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	copy(c.defs, defs)

	for i, d := range c.defs {
		if d.ID == "" {
			return nil, fmt.Errorf("achievement #%d has no id", i)
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id %q", d.ID)
		}
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("achievement %q: %w", d.ID, err)
		}
		if c.defs[i].Condition == "" {
			c.defs[i].Condition = d.Rule.Condition()
		}
		c.index[d.ID] = i
	}
	return c, nil
}

func validate(d domain.Definition) error {
	if d.XP <= 0 {
		return fmt.Errorf("xp must be positive, got %d", d.XP)
	}
	min, max, ok := d.Rarity.XPRange()
	if !ok {
		return fmt.Errorf("unknown rarity %q", d.Rarity)
	}
	if d.XP < min || d.XP > max {
		return fmt.Errorf("%s xp must be within %d-%d, got %d", d.Rarity, min, max, d.XP)
	}
	switch d.Trigger {
	case domain.TriggerAuto, domain.TriggerScroll, domain.TriggerClick, domain.TriggerTime, domain.TriggerEasterEgg:
	default:
		return fmt.Errorf("unknown trigger %q", d.Trigger)
	}
	if d.Rule == nil {
		return fmt.Errorf("missing rule")
	}
	return nil
}

func (r ruleSpec) toRule() (domain.Rule, error) {
	switch r.Type {
	case "auto":
		return domain.Auto{}, nil
	case "section":
		if r.Section == "" {
			return nil, fmt.Errorf("section rule needs a section")
		}
		return domain.SectionVisited{Section: r.Section}, nil
	case "all-sections":
		if len(r.Sections) == 0 {
			return nil, fmt.Errorf("all-sections rule needs sections")
		}
		return domain.AllSectionsVisited{Sections: lo.Uniq(r.Sections)}, nil
	case "all-projects":
		return domain.AllProjectsViewed{}, nil
	case "hover-count":
		if r.Count <= 0 {
			return nil, fmt.Errorf("hover-count rule needs a positive count")
		}
		return domain.HoverCount{Count: r.Count}, nil
	case "logo-clicks":
		if r.Count <= 0 {
			return nil, fmt.Errorf("logo-clicks rule needs a positive count")
		}
		return domain.LogoClicks{Count: r.Count}, nil
	case "key-sequence":
		if len(r.Keys) == 0 {
			return nil, fmt.Errorf("key-sequence rule needs keys")
		}
		return domain.KeySequence{Keys: r.Keys}, nil
	case "link":
		if r.Target == "" {
			return nil, fmt.Errorf("link rule needs a target")
		}
		return domain.LinkClicked{Target: r.Target}, nil
	case "time-on-site":
		d, err := time.ParseDuration(r.After)
		if err != nil {
			return nil, fmt.Errorf("time-on-site after: %w", err)
		}
		return domain.TimeOnSite{After: d}, nil
	case "hour-range":
		if r.From < 0 || r.To > 24 || r.From >= r.To {
			return nil, fmt.Errorf("hour-range [%d,%d) is invalid", r.From, r.To)
		}
		return domain.HourRange{From: r.From, To: r.To}, nil
	case "calendar-day":
		if r.Month < 1 || r.Month > 12 || r.Day < 1 || r.Day > 31 {
			return nil, fmt.Errorf("calendar-day %d/%d is invalid", r.Month, r.Day)
		}
		return domain.CalendarDay{Month: time.Month(r.Month), Day: r.Day}, nil
	case "unlock-count":
		if r.Count <= 0 {
			return nil, fmt.Errorf("unlock-count rule needs a positive count")
		}
		return domain.UnlockCount{Count: r.Count}, nil
	case "":
		return nil, fmt.Errorf("missing rule type")
	}
	return nil, fmt.Errorf("unknown rule type %q", r.Type)
}

// All returns a copy of every definition in catalog order.
func (c *Catalog) All() []domain.Definition {
	out := make([]domain.Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// ByID returns the definition with the given id.
func (c *Catalog) ByID(id string) (domain.Definition, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Definition{}, false
	}
	return c.defs[i], true
}

// ByRarity returns the definitions of one rarity, in catalog order.
func (c *Catalog) ByRarity(r domain.Rarity) []domain.Definition {
	return lo.Filter(c.defs, func(d domain.Definition, _ int) bool { return d.Rarity == r })
}

// TotalPossibleXP sums the XP of every definition.
func (c *Catalog) TotalPossibleXP() int {
	return lo.SumBy(c.defs, func(d domain.Definition) int { return d.XP })
}
