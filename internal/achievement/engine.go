// Package achievement implements the visitor achievement engine: unlocks,
// interaction tracking, meta achievements, statistics and unlock events.
package achievement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/steamfolio/portfolio/internal/catalog"
	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/steamfolio/portfolio/internal/storage"
)

// Storage keys for the two persisted records.
const (
	UnlocksKey  = "portfolio_achievements"
	TrackingKey = "portfolio_tracking"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock. The hour and calendar rules use the
// location of the returned time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFeaturedProjects sets how many distinct projects must be viewed to
// satisfy an all-projects rule. Zero leaves those rules unreachable.
func WithFeaturedProjects(n int) Option {
	return func(e *Engine) { e.projectCount = n }
}

// WithTimer replaces time.After for the time-on-site countdown.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(e *Engine) { e.after = after }
}

// Engine owns the unlock and tracking records of one visitor. All
// read-merge-write cycles run under a single mutex; unlock events are
// published after the mutex is released, in unlock order, before the
// calling operation returns.
type Engine struct {
	catalog *catalog.Catalog
	store   storage.Provider
	bus     *Bus
	logger  *slog.Logger

	now          func() time.Time
	after        func(time.Duration) <-chan time.Time
	projectCount int

	sequence   []string
	logoTarget int

	mu sync.Mutex

	timerMu    sync.Mutex
	stopTimers context.CancelFunc
}

// NewEngine creates an engine over the given catalog and store. A nil bus
// gets a fresh one.
func NewEngine(cat *catalog.Catalog, store storage.Provider, bus *Bus, logger *slog.Logger, opts ...Option) *Engine {
	if bus == nil {
		bus = NewBus()
	}
	e := &Engine{
		catalog: cat,
		store:   store,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
	}
	for _, opt := range opts {
		opt(e)
	}

	// One key sequence and one logo counter are tracked per visitor; the
	// first matching rule in catalog order defines them.
	for _, d := range cat.All() {
		switch r := d.Rule.(type) {
		case domain.KeySequence:
			if e.sequence == nil {
				e.sequence = r.Keys
			}
		case domain.LogoClicks:
			if e.logoTarget == 0 {
				e.logoTarget = r.Count
			}
		}
	}
	return e
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *Bus { return e.bus }

// OnUnlock subscribes fn to unlock events and returns the unsubscribe func.
func (e *Engine) OnUnlock(fn Listener) func() {
	return e.bus.Subscribe(fn)
}

// Load returns every catalog achievement merged with its unlock status.
// Unreadable state yields an all-locked list.
func (e *Engine) Load(ctx context.Context) []domain.Achievement {
	e.mu.Lock()
	records := e.readRecords(ctx)
	e.mu.Unlock()
	return e.merge(records)
}

// Stats returns the derived statistics, recomputed on every call.
func (e *Engine) Stats(ctx context.Context) domain.AchievementStats {
	all := e.Load(ctx)
	unlocked := lo.Filter(all, func(a domain.Achievement, _ int) bool { return a.Unlocked })

	stats := domain.AchievementStats{
		UnlockedCount: len(unlocked),
		TotalCount:    len(all),
		TotalXP:       lo.SumBy(unlocked, func(a domain.Achievement) int { return a.XP }),
		Achievements:  all,
	}
	if stats.TotalCount > 0 {
		stats.Percentage = int(math.Round(float64(stats.UnlockedCount) / float64(stats.TotalCount) * 100))
	}
	return stats
}

// Unlock unlocks the achievement with the given id. It returns (nil, nil)
// when the achievement is already unlocked and a NOT_FOUND error when the
// id is not in the catalog. Meta achievements reached as a consequence are
// unlocked and published too.
func (e *Engine) Unlock(ctx context.Context, id string) (*domain.Achievement, error) {
	def, ok := e.catalog.ByID(id)
	if !ok {
		return nil, domain.ErrNotFound("achievement", id)
	}

	var result *domain.Achievement
	e.withSession(ctx, func(s *session) {
		result = s.unlock(def)
	})
	return result, nil
}

// TrackSectionVisit records a visit to a page section.
func (e *Engine) TrackSectionVisit(ctx context.Context, section string) []domain.Achievement {
	return e.withSession(ctx, func(s *session) {
		if lo.Contains(s.tracking.SectionsVisited, section) {
			return
		}
		s.tracking.SectionsVisited = append(s.tracking.SectionsVisited, section)
		s.saveTracking()
		s.fire(signal{kind: signalSection, value: section, at: e.now()})
	})
}

// TrackProjectView records that a project was opened.
func (e *Engine) TrackProjectView(ctx context.Context, project string) []domain.Achievement {
	return e.withSession(ctx, func(s *session) {
		if lo.Contains(s.tracking.ProjectsViewed, project) {
			return
		}
		s.tracking.ProjectsViewed = append(s.tracking.ProjectsViewed, project)
		s.saveTracking()
		s.fire(signal{kind: signalProject, value: project, at: e.now()})
	})
}

// TrackAchievementHover records that an achievement card was hovered.
func (e *Engine) TrackAchievementHover(ctx context.Context, achievementID string) []domain.Achievement {
	return e.withSession(ctx, func(s *session) {
		if lo.Contains(s.tracking.AchievementsHovered, achievementID) {
			return
		}
		s.tracking.AchievementsHovered = append(s.tracking.AchievementsHovered, achievementID)
		s.saveTracking()
		s.fire(signal{kind: signalHover, value: achievementID, at: e.now()})
	})
}

// TrackLogoClick counts a logo click. The counter restarts once it reaches
// the configured target, whether or not the achievement was already unlocked.
func (e *Engine) TrackLogoClick(ctx context.Context) []domain.Achievement {
	return e.withSession(ctx, func(s *session) {
		s.tracking.LogoClicks++
		s.fire(signal{kind: signalLogo, at: e.now()})
		if e.logoTarget > 0 && s.tracking.LogoClicks >= e.logoTarget {
			s.tracking.LogoClicks = 0
		}
		s.saveTracking()
	})
}

// TrackKey advances the secret key sequence. Any wrong key restarts the
// sequence from the beginning, including a key that would start a new one.
func (e *Engine) TrackKey(ctx context.Context, key string) []domain.Achievement {
	if len(e.sequence) == 0 {
		return nil
	}
	return e.withSession(ctx, func(s *session) {
		p := s.tracking.KonamiProgress
		if p >= 0 && p < len(e.sequence) && key == e.sequence[p] {
			p++
		} else {
			p = 0
		}
		s.tracking.KonamiProgress = p
		if p == len(e.sequence) {
			s.fire(signal{kind: signalKey, value: key, at: e.now()})
			s.tracking.KonamiProgress = 0
		}
		s.saveTracking()
	})
}

// TrackClick records a click on a named link or control.
func (e *Engine) TrackClick(ctx context.Context, target string) []domain.Achievement {
	if target == "" {
		return nil
	}
	return e.withSession(ctx, func(s *session) {
		s.fire(signal{kind: signalClick, value: target, at: e.now()})
	})
}

type pendingTimer struct {
	id   string
	wait time.Duration
}

// Initialize runs the once-per-session checks: auto unlocks, hour and
// calendar rules, and time-on-site rules. Time-on-site rules not yet due are
// scheduled on a countdown owned by the engine; calling Initialize again
// cancels the previous countdown.
func (e *Engine) Initialize(ctx context.Context) []domain.Achievement {
	var timers []pendingTimer
	unlocked := e.withSession(ctx, func(s *session) {
		now := e.now()
		if !s.trackingStored {
			s.saveTracking()
		}
		s.fire(signal{kind: signalInit, at: now})
		s.fire(signal{kind: signalElapsed, at: now})

		elapsed := now.Sub(s.tracking.VisitStart())
		for _, d := range e.catalog.All() {
			r, ok := d.Rule.(domain.TimeOnSite)
			if !ok || s.isUnlocked(d.ID) {
				continue
			}
			timers = append(timers, pendingTimer{id: d.ID, wait: r.After - elapsed})
		}
	})
	e.schedule(ctx, timers)
	return unlocked
}

func (e *Engine) schedule(ctx context.Context, timers []pendingTimer) {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if e.stopTimers != nil {
		e.stopTimers()
		e.stopTimers = nil
	}
	if len(timers) == 0 {
		return
	}

	tctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.stopTimers = cancel
	for _, t := range timers {
		e.logger.Debug("time-on-site countdown scheduled", "achievement_id", t.id, "wait", t.wait)
		go func(t pendingTimer) {
			select {
			case <-tctx.Done():
				return
			case <-e.after(t.wait):
			}
			if tctx.Err() != nil {
				return
			}
			if _, err := e.Unlock(tctx, t.id); err != nil {
				e.logger.Error("time-on-site unlock failed", "achievement_id", t.id, "error", err)
			}
		}(t)
	}
}

// Close cancels any pending time-on-site countdown.
func (e *Engine) Close() {
	e.schedule(context.Background(), nil)
}

// Reset removes both persisted records and cancels any pending time-on-site
// countdown. The next Initialize starts a new visit.
func (e *Engine) Reset(ctx context.Context) error {
	e.schedule(context.Background(), nil)
	if err := e.removeRecords(ctx); err != nil {
		return err
	}
	e.logger.Info("achievements reset")
	return nil
}

func (e *Engine) removeRecords(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Remove(ctx, UnlocksKey); err != nil {
		return fmt.Errorf("remove unlocks: %w", err)
	}
	if err := e.store.Remove(ctx, TrackingKey); err != nil {
		return fmt.Errorf("remove tracking: %w", err)
	}
	return nil
}

// withSession runs fn against freshly read state under the engine mutex,
// then publishes whatever fn unlocked.
func (e *Engine) withSession(ctx context.Context, fn func(s *session)) []domain.Achievement {
	e.mu.Lock()
	s := &session{
		engine:  e,
		ctx:     ctx,
		records: e.readRecords(ctx),
	}
	s.tracking, s.trackingStored = e.readTracking(ctx)
	fn(s)
	e.mu.Unlock()

	for _, a := range s.unlocked {
		e.bus.Publish(a)
	}
	return s.unlocked
}

func (e *Engine) merge(records map[string]domain.UnlockRecord) []domain.Achievement {
	defs := e.catalog.All()
	out := make([]domain.Achievement, len(defs))
	for i, d := range defs {
		out[i] = domain.Achievement{Definition: d}
		if rec, ok := records[d.ID]; ok && rec.Unlocked {
			out[i].Unlocked = true
			out[i].UnlockedAt = lo.ToPtr(time.UnixMilli(rec.UnlockedAt))
		}
	}
	return out
}

func (e *Engine) readRecords(ctx context.Context) map[string]domain.UnlockRecord {
	records := make(map[string]domain.UnlockRecord)
	data, err := e.store.Get(ctx, UnlocksKey)
	if errors.Is(err, storage.ErrNotFound) {
		return records
	}
	if err != nil {
		e.logger.Warn("reading unlocks failed, treating all as locked", "error", err)
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		e.logger.Warn("unlock record is corrupt, treating all as locked", "error", err)
		return make(map[string]domain.UnlockRecord)
	}
	for id, rec := range records {
		if !rec.Unlocked {
			delete(records, id)
		}
	}
	return records
}

func (e *Engine) readTracking(ctx context.Context) (domain.TrackingState, bool) {
	fresh := domain.NewTrackingState(e.now())
	data, err := e.store.Get(ctx, TrackingKey)
	if errors.Is(err, storage.ErrNotFound) {
		return fresh, false
	}
	if err != nil {
		e.logger.Warn("reading tracking state failed, starting fresh", "error", err)
		return fresh, false
	}

	var st domain.TrackingState
	if err := json.Unmarshal(data, &st); err != nil {
		e.logger.Warn("tracking state is corrupt, starting fresh", "error", err)
		return fresh, false
	}
	if st.VisitStartTime == 0 {
		st.VisitStartTime = fresh.VisitStartTime
	}
	if st.SectionsVisited == nil {
		st.SectionsVisited = []string{}
	}
	if st.ProjectsViewed == nil {
		st.ProjectsViewed = []string{}
	}
	if st.AchievementsHovered == nil {
		st.AchievementsHovered = []string{}
	}
	return st, true
}

// session is the state of one locked engine operation.
type session struct {
	engine         *Engine
	ctx            context.Context
	records        map[string]domain.UnlockRecord
	tracking       domain.TrackingState
	trackingStored bool
	unlocked       []domain.Achievement
}

func (s *session) isUnlocked(id string) bool {
	_, ok := s.records[id]
	return ok
}

func (s *session) state() evalState {
	return evalState{
		tracking:      s.tracking,
		unlockedCount: len(s.records),
		projectCount:  s.engine.projectCount,
	}
}

// fire unlocks every locked achievement whose rule matches sig, in catalog order.
func (s *session) fire(sig signal) {
	for _, d := range s.engine.catalog.All() {
		if s.isUnlocked(d.ID) {
			continue
		}
		if matches(d.Rule, sig, s.state()) {
			s.unlock(d)
		}
	}
}

// unlock records def as unlocked, persists it and evaluates meta rules.
// Persistence failures are logged; the unlock is still announced.
func (s *session) unlock(def domain.Definition) *domain.Achievement {
	if s.isUnlocked(def.ID) {
		return nil
	}
	e := s.engine
	at := time.UnixMilli(e.now().UnixMilli())
	s.records[def.ID] = domain.UnlockRecord{Unlocked: true, UnlockedAt: at.UnixMilli()}
	s.saveRecords()

	a := domain.Achievement{Definition: def, Unlocked: true, UnlockedAt: &at}
	s.unlocked = append(s.unlocked, a)
	e.logger.Info("achievement unlocked", "achievement_id", def.ID, "xp", def.XP, "rarity", def.Rarity)

	s.fire(signal{kind: signalUnlock, value: def.ID, at: at})
	return &a
}

func (s *session) saveRecords() {
	data, err := json.Marshal(s.records)
	if err == nil {
		err = s.engine.store.Set(s.ctx, UnlocksKey, data)
	}
	if err != nil {
		s.engine.logger.Error("saving unlocks failed", "error", err)
	}
}

func (s *session) saveTracking() {
	data, err := json.Marshal(s.tracking)
	if err == nil {
		err = s.engine.store.Set(s.ctx, TrackingKey, data)
	}
	if err != nil {
		s.engine.logger.Error("saving tracking state failed", "error", err)
		return
	}
	s.trackingStored = true
}
