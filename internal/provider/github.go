package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"
	"github.com/steamfolio/portfolio/internal/guard"
	"github.com/steamfolio/portfolio/internal/progression"
)

const (
	defaultGitHubAPI = "https://api.github.com"
	cacheEntries     = 64
	circuitKey       = "github"
)

// GitHubConfig configures the GitHub client.
type GitHubConfig struct {
	BaseURL         string
	Username        string
	Token           string
	CacheTTL        time.Duration
	CareerStartYear int
}

// GitHubProfile is the subset of the user resource the portfolio uses.
type GitHubProfile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	PublicRepos int64     `json:"public_repos"`
	Followers   int64     `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// GitHubRepo is the subset of the repository resource the portfolio uses.
type GitHubRepo struct {
	Name            string    `json:"name"`
	Fork            bool      `json:"fork"`
	StargazersCount int64     `json:"stargazers_count"`
	ForksCount      int64     `json:"forks_count"`
	Language        string    `json:"language"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GitHubClient reads public profile data from the GitHub REST API. Responses
// are cached per URL for the configured TTL, and repeated upstream failures
// open a circuit breaker so an unavailable API is not hammered.
type GitHubClient struct {
	cfg     GitHubConfig
	client  *http.Client
	cache   *expirable.LRU[string, []byte]
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
	now     func() time.Time
}

// NewGitHubClient creates a GitHub client.
func NewGitHubClient(cfg GitHubConfig, logger *slog.Logger) *GitHubClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGitHubAPI
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &GitHubClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   expirable.NewLRU[string, []byte](cacheEntries, nil, cfg.CacheTTL),
		breaker: guard.NewCircuitBreaker(3, time.Minute),
		logger:  logger,
		now:     time.Now,
	}
}

// Profile fetches the configured user's profile.
func (c *GitHubClient) Profile(ctx context.Context) (*GitHubProfile, error) {
	var p GitHubProfile
	if err := c.get(ctx, "/users/"+url.PathEscape(c.cfg.Username), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Repos fetches the configured user's public repositories, most recently
// updated first.
func (c *GitHubClient) Repos(ctx context.Context) ([]GitHubRepo, error) {
	var repos []GitHubRepo
	path := "/users/" + url.PathEscape(c.cfg.Username) + "/repos?page=1&per_page=100&sort=updated"
	if err := c.get(ctx, path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// Sources derives the XP inputs from GitHub. Unavailable data counts as zero;
// AchievementsXP is left for the caller.
func (c *GitHubClient) Sources(ctx context.Context) progression.XPSources {
	src := progression.XPSources{Years: c.careerYears(nil)}
	if c.cfg.Username == "" {
		return src
	}

	profile, err := c.Profile(ctx)
	if err != nil {
		c.logger.Warn("github profile unavailable", "error", err, "username", c.cfg.Username)
	}
	repos, err := c.Repos(ctx)
	if err != nil {
		c.logger.Warn("github repos unavailable", "error", err, "username", c.cfg.Username)
	}

	src.Repos = int64(len(repos))
	if profile != nil {
		src.Followers = profile.Followers
		if profile.PublicRepos > 0 {
			src.Repos = profile.PublicRepos
		}
		src.Years = c.careerYears(profile)
	}
	src.Stars = lo.SumBy(lo.Reject(repos, func(r GitHubRepo, _ int) bool { return r.Fork }),
		func(r GitHubRepo) int64 { return r.StargazersCount })
	return src
}

// careerYears prefers the configured career start year and falls back to
// whole years since the account was created.
func (c *GitHubClient) careerYears(profile *GitHubProfile) int64 {
	now := c.now()
	if c.cfg.CareerStartYear > 0 {
		return int64(max(0, now.Year()-c.cfg.CareerStartYear))
	}
	if profile == nil || profile.CreatedAt.IsZero() {
		return 0
	}
	years := now.Year() - profile.CreatedAt.Year()
	if now.YearDay() < profile.CreatedAt.YearDay() {
		years--
	}
	return int64(max(0, years))
}

func (c *GitHubClient) get(ctx context.Context, path string, out interface{}) error {
	if body, ok := c.cache.Get(path); ok {
		return json.Unmarshal(body, out)
	}
	if result := c.breaker.Check(ctx, circuitKey); !result.Allowed {
		return fmt.Errorf("github unavailable: %s", result.Reason)
	}

	body, err := c.fetch(ctx, path)
	if err != nil {
		c.breaker.RecordFailure(circuitKey)
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.breaker.RecordFailure(circuitKey)
		return fmt.Errorf("decode response: %w", err)
	}
	c.breaker.RecordSuccess(circuitKey)
	c.cache.Add(path, body)
	return nil
}

func (c *GitHubClient) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
