package handler

import (
	"net/http"
	"strings"

	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/domain"
)

// TrackHandler records visitor interactions.
type TrackHandler struct {
	engine *achievement.Engine
}

// NewTrackHandler creates a TrackHandler.
func NewTrackHandler(engine *achievement.Engine) *TrackHandler {
	return &TrackHandler{engine: engine}
}

type trackRequest struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Target string `json:"target"`
}

// trackResponse lists what the interaction unlocked, possibly nothing.
type trackResponse struct {
	Unlocked []domain.Achievement `json:"unlocked"`
}

func respondUnlocked(w http.ResponseWriter, unlocked []domain.Achievement) {
	if unlocked == nil {
		unlocked = []domain.Achievement{}
	}
	RespondJSON(w, http.StatusOK, trackResponse{Unlocked: unlocked})
}

// decodeField decodes the body and returns the named field, which must be non-empty.
func decodeField(w http.ResponseWriter, r *http.Request, name string, pick func(trackRequest) string) (string, error) {
	var req trackRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return "", err
	}
	v := strings.TrimSpace(pick(req))
	if v == "" {
		return "", domain.ErrValidation(name + " is required")
	}
	return v, nil
}

// Section handles POST /track/section.
func (h *TrackHandler) Section(w http.ResponseWriter, r *http.Request) {
	id, err := decodeField(w, r, "id", func(req trackRequest) string { return req.ID })
	if err != nil {
		RespondError(w, err)
		return
	}
	respondUnlocked(w, h.engine.TrackSectionVisit(r.Context(), id))
}

// Project handles POST /track/project.
func (h *TrackHandler) Project(w http.ResponseWriter, r *http.Request) {
	id, err := decodeField(w, r, "id", func(req trackRequest) string { return req.ID })
	if err != nil {
		RespondError(w, err)
		return
	}
	respondUnlocked(w, h.engine.TrackProjectView(r.Context(), id))
}

// Hover handles POST /track/hover.
func (h *TrackHandler) Hover(w http.ResponseWriter, r *http.Request) {
	id, err := decodeField(w, r, "id", func(req trackRequest) string { return req.ID })
	if err != nil {
		RespondError(w, err)
		return
	}
	respondUnlocked(w, h.engine.TrackAchievementHover(r.Context(), id))
}

// Logo handles POST /track/logo.
func (h *TrackHandler) Logo(w http.ResponseWriter, r *http.Request) {
	respondUnlocked(w, h.engine.TrackLogoClick(r.Context()))
}

// Key handles POST /track/key.
func (h *TrackHandler) Key(w http.ResponseWriter, r *http.Request) {
	key, err := decodeField(w, r, "key", func(req trackRequest) string { return req.Key })
	if err != nil {
		RespondError(w, err)
		return
	}
	respondUnlocked(w, h.engine.TrackKey(r.Context(), key))
}

// Click handles POST /track/click.
func (h *TrackHandler) Click(w http.ResponseWriter, r *http.Request) {
	target, err := decodeField(w, r, "target", func(req trackRequest) string { return req.Target })
	if err != nil {
		RespondError(w, err)
		return
	}
	respondUnlocked(w, h.engine.TrackClick(r.Context(), target))
}
