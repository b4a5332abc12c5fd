package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/catalog"
	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/steamfolio/portfolio/internal/guard"
	"github.com/steamfolio/portfolio/internal/progression"
	"github.com/steamfolio/portfolio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- RespondJSON Tests ---

func TestRespondJSON(t *testing.T) {
	t.Run("200 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("204 with nil body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

// --- RespondError Tests ---

func TestRespondError(t *testing.T) {
	t.Run("AppError maps to correct status", func(t *testing.T) {
		tests := []struct {
			err        *domain.AppError
			wantStatus int
			wantCode   string
		}{
			{domain.ErrNotFound("achievement", "nope"), 404, "NOT_FOUND"},
			{domain.ErrValidation("bad input"), 400, "VALIDATION_ERROR"},
			{domain.ErrRateLimited("slow down"), 429, "RATE_LIMITED"},
			{domain.ErrInternal("oops", nil), 500, "INTERNAL_ERROR"},
		}

		for _, tt := range tests {
			t.Run(tt.wantCode, func(t *testing.T) {
				w := httptest.NewRecorder()
				RespondError(w, tt.err)
				assert.Equal(t, tt.wantStatus, w.Code)

				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body["code"])
			})
		}
	})

	t.Run("wrapped AppError keeps its status", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, fmt.Errorf("lookup: %w", domain.ErrNotFound("achievement", "x")))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("generic error returns 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "INTERNAL_ERROR", body["code"])
		assert.Equal(t, "internal server error", body["message"])
	})
}

// --- DecodeJSON Tests ---

func TestDecodeJSON(t *testing.T) {
	t.Run("valid JSON body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"id":"skills","key":"KeyA"}`))
		var dst trackRequest
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &dst))
		assert.Equal(t, "skills", dst.ID)
		assert.Equal(t, "KeyA", dst.Key)
	})

	t.Run("invalid JSON is a validation error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{invalid`))
		var dst trackRequest
		err := DecodeJSON(httptest.NewRecorder(), r, &dst)

		var appErr *domain.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 400, appErr.Status)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		big := `{"id":"` + strings.Repeat("x", maxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(big))
		var dst trackRequest
		require.Error(t, DecodeJSON(httptest.NewRecorder(), r, &dst))
	})
}

// --- RequestID Middleware Tests ---

func TestRequestID(t *testing.T) {
	t.Run("generates ID when none provided", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided X-Request-ID", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "my-custom-id", GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "my-custom-id")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "my-custom-id", w.Header().Get("X-Request-ID"))
	})
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

// --- JSONContentType Middleware Tests ---

func TestJSONContentType(t *testing.T) {
	handler := JSONContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

// --- CORS Middleware Tests ---

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://anywhere.example")
		w := httptest.NewRecorder()
		CORS([]string{"*"})(ok).ServeHTTP(w, r)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://me.dev")
		w := httptest.NewRecorder()
		CORS([]string{"https://me.dev"})(ok).ServeHTTP(w, r)

		assert.Equal(t, "https://me.dev", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		CORS([]string{"https://me.dev"})(ok).ServeHTTP(w, r)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("OPTIONS returns 204", func(t *testing.T) {
		w := httptest.NewRecorder()
		CORS([]string{"*"})(ok).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

// --- Recovery Middleware Tests ---

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		handler := Recovery(noopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("something went wrong")
		}))

		w := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	})

	t.Run("passes through without panic", func(t *testing.T) {
		handler := Recovery(noopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// --- RateLimit Middleware Tests ---

func TestRateLimit(t *testing.T) {
	handler := RateLimit(guard.NewRateLimiter(2, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remote string) int {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000"), "limits are per address")
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "10.0.0.1", clientAddr(r))

	r.RemoteAddr = "10.0.0.1"
	assert.Equal(t, "10.0.0.1", clientAddr(r))
}

// --- responseWriter Tests ---

func TestResponseWriter_CapturesStatus(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: 200}

	rw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, 404, rw.status)
	assert.Equal(t, 404, w.Code)
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: 200}
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

// --- Health Tests ---

func TestHealthHandler(t *testing.T) {
	t.Run("healthy without a check", func(t *testing.T) {
		w := httptest.NewRecorder()
		HealthHandler("memory", nil)(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "memory", body["storage"])
	})

	t.Run("failing check is 503", func(t *testing.T) {
		w := httptest.NewRecorder()
		check := func(context.Context) error { return errors.New("connection refused") }
		HealthHandler("postgres", check)(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "connection refused", body["error"])
	})
}

// --- Track Tests ---

func newTestEngine(t *testing.T) *achievement.Engine {
	t.Helper()
	afternoon := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	e := achievement.NewEngine(catalog.Default(), storage.NewMemoryProvider(), nil, noopLogger(),
		achievement.WithClock(func() time.Time { return afternoon }))
	t.Cleanup(e.Close)
	return e
}

func postJSON(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
}

func TestTrackHandler_Section(t *testing.T) {
	h := NewTrackHandler(newTestEngine(t))

	w := httptest.NewRecorder()
	h.Section(w, postJSON(`{"id":"skills"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp trackResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Unlocked, 1)
	assert.Equal(t, "tech-savvy", resp.Unlocked[0].ID)

	// Second visit unlocks nothing but still answers an empty list.
	w = httptest.NewRecorder()
	h.Section(w, postJSON(`{"id":"skills"}`))
	assert.JSONEq(t, `{"unlocked":[]}`, w.Body.String())
}

func TestTrackHandler_MissingField(t *testing.T) {
	h := NewTrackHandler(newTestEngine(t))

	tests := []struct {
		name string
		call func(http.ResponseWriter, *http.Request)
		body string
	}{
		{"section without id", h.Section, `{}`},
		{"project blank id", h.Project, `{"id":"  "}`},
		{"hover without id", h.Hover, `{"key":"x"}`},
		{"key without key", h.Key, `{"id":"x"}`},
		{"click without target", h.Click, `{}`},
		{"malformed body", h.Section, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.call(w, postJSON(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		})
	}
}

func TestTrackHandler_LogoNeedsNoBody(t *testing.T) {
	h := NewTrackHandler(newTestEngine(t))

	var last *httptest.ResponseRecorder
	for i := 0; i < 10; i++ {
		last = httptest.NewRecorder()
		h.Logo(last, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, last.Code)
	}

	var resp trackResponse
	require.NoError(t, json.NewDecoder(last.Body).Decode(&resp))
	require.Len(t, resp.Unlocked, 1)
	assert.Equal(t, "secret-sequence", resp.Unlocked[0].ID)
}

// --- Achievement Tests ---

func TestAchievementHandler_ListAndStats(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Unlock(context.Background(), "first-steps")
	require.NoError(t, err)
	h := NewAchievementHandler(e)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/achievements", nil))
	var list struct {
		Achievements []domain.Achievement `json:"achievements"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list.Achievements, 18)
	assert.True(t, list.Achievements[0].Unlocked)

	w = httptest.NewRecorder()
	h.Stats(w, httptest.NewRequest(http.MethodGet, "/achievements/stats", nil))
	var stats domain.AchievementStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.UnlockedCount)
	assert.Equal(t, 18, stats.TotalCount)
	assert.Equal(t, 10, stats.TotalXP)
}

func TestAchievementHandler_ResetRunsHooks(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Unlock(context.Background(), "first-steps")
	require.NoError(t, err)

	called := 0
	h := NewAchievementHandler(e, func() { called++ })

	w := httptest.NewRecorder()
	h.Reset(w, httptest.NewRequest(http.MethodPost, "/achievements/reset", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, called)
	assert.Equal(t, 0, e.Stats(context.Background()).UnlockedCount)
}

// --- Level Tests ---

type staticSources progression.XPSources

func (s staticSources) Sources(context.Context) progression.XPSources {
	return progression.XPSources(s)
}

func TestLevelHandler_AddsAchievementXP(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Unlock(context.Background(), "birthday-surprise")
	require.NoError(t, err)

	h := NewLevelHandler(e, staticSources{Repos: 20, Followers: 50, Stars: 100, Years: 3})
	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/level", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp levelResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(150), resp.Sources.AchievementsXP)
	assert.Equal(t, int64(7150), resp.Level.TotalXP)
	assert.Equal(t, int64(33), resp.Level.Level)
	assert.Equal(t, int64(350), resp.Level.CurrentLevelXP)
	assert.Equal(t, int64(400), resp.Level.NextLevelXP)
	assert.Equal(t, "Expert", resp.Style.Name)
}

// helper

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
