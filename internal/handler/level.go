package handler

import (
	"context"
	"net/http"

	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/levelstyle"
	"github.com/steamfolio/portfolio/internal/progression"
)

// SourceProvider supplies the profile-derived XP inputs.
type SourceProvider interface {
	Sources(ctx context.Context) progression.XPSources
}

// LevelHandler combines profile activity and unlocked achievements into a level.
type LevelHandler struct {
	engine  *achievement.Engine
	sources SourceProvider
}

// NewLevelHandler creates a LevelHandler.
func NewLevelHandler(engine *achievement.Engine, sources SourceProvider) *LevelHandler {
	return &LevelHandler{engine: engine, sources: sources}
}

type levelResponse struct {
	Sources progression.XPSources   `json:"sources"`
	Level   progression.LevelResult `json:"level"`
	Style   levelstyle.Style        `json:"style"`
}

// Get handles GET /level.
func (h *LevelHandler) Get(w http.ResponseWriter, r *http.Request) {
	src := h.sources.Sources(r.Context())
	src.AchievementsXP = int64(h.engine.Stats(r.Context()).TotalXP)

	level := progression.CalculateLevelFromXP(progression.CalculateXPFromSources(src))
	RespondJSON(w, http.StatusOK, levelResponse{
		Sources: src,
		Level:   level,
		Style:   levelstyle.ForLevel(level.Level),
	})
}
