package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/domain"
)

// AchievementHandler exposes the achievement queries and commands.
type AchievementHandler struct {
	engine  *achievement.Engine
	onReset []func()
}

// NewAchievementHandler creates an AchievementHandler. onReset hooks run after
// a successful reset.
func NewAchievementHandler(engine *achievement.Engine, onReset ...func()) *AchievementHandler {
	return &AchievementHandler{engine: engine, onReset: onReset}
}

// List handles GET /achievements.
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": h.engine.Load(r.Context()),
	})
}

// Stats handles GET /achievements/stats.
func (h *AchievementHandler) Stats(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.engine.Stats(r.Context()))
}

// Init handles POST /achievements/init. The page calls it once per session;
// the hour, calendar and time-on-site rules are checked at that moment.
func (h *AchievementHandler) Init(w http.ResponseWriter, r *http.Request) {
	respondUnlocked(w, h.engine.Initialize(r.Context()))
}

// Unlock handles POST /achievements/{id}/unlock. An already unlocked
// achievement answers 204.
func (h *AchievementHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.Unlock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, err)
		return
	}
	if a == nil {
		RespondJSON(w, http.StatusNoContent, nil)
		return
	}
	RespondJSON(w, http.StatusOK, a)
}

// Reset handles POST /achievements/reset.
func (h *AchievementHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Reset(r.Context()); err != nil {
		RespondError(w, domain.ErrInternal("reset achievements", err))
		return
	}
	for _, fn := range h.onReset {
		fn()
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
