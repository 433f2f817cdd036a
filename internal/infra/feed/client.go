package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pitchside/predictor/internal/metrics"
)

// Config holds upstream data feed settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// UnmarshalYAML accepts the timeout as a string like "10s".
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Timeout string `yaml:"timeout"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	c.BaseURL = raw.BaseURL
	c.APIKey = raw.APIKey
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// RateLimitError is returned on a 429 so callers can back off.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Competition is an upstream league.
type Competition struct {
	ExternalID int64  `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	Season     int    `json:"season"`
}

// Squad is an upstream team.
type Squad struct {
	ExternalID int64  `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Stadium    string `json:"venue"`
	Founded    int    `json:"founded"`
}

// Fixture is an upstream match.
type Fixture struct {
	ExternalID int64     `json:"id"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	KickoffAt  time.Time `json:"utc_date"`
	Matchweek  int       `json:"matchday"`
	Status     string    `json:"status"` // SCHEDULED, IN_PLAY, FINISHED, POSTPONED
	HomeGoals  *int      `json:"home_goals"`
	AwayGoals  *int      `json:"away_goals"`
	Venue      string    `json:"venue"`
	Referee    string    `json:"referee"`
}

// FixtureOdds carries 1X2 prices for an upcoming fixture, keyed by team
// names since the feed's fixture IDs are not stored locally.
type FixtureOdds struct {
	HomeTeam string  `json:"home_team"`
	AwayTeam string  `json:"away_team"`
	HomeWin  float64 `json:"home_win"`
	Draw     float64 `json:"draw"`
	AwayWin  float64 `json:"away_win"`
}

// PlayerInjury is an upstream injury report entry.
type PlayerInjury struct {
	Team           string     `json:"team"`
	PlayerName     string     `json:"player"`
	Position       string     `json:"position"`
	Severity       string     `json:"severity"`
	InjuryDate     time.Time  `json:"injury_date"`
	ExpectedReturn *time.Time `json:"expected_return"`
}

// Provider is the upstream data source. Implemented by Client and faked
// in worker tests.
type Provider interface {
	Competitions(ctx context.Context) ([]Competition, error)
	Teams(ctx context.Context, competitionID int64) ([]Squad, error)
	Fixtures(ctx context.Context, competitionID int64, from, to time.Time) ([]Fixture, error)
	Odds(ctx context.Context, competitionID int64) ([]FixtureOdds, error)
	Injuries(ctx context.Context, competitionID int64) ([]PlayerInjury, error)
}

// Client talks to a football-data style REST feed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a feed client.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, dest any) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FeedRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("feed call: %w", err)
	}
	defer resp.Body.Close()

	metrics.FeedRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Competitions lists available competitions.
func (c *Client) Competitions(ctx context.Context) ([]Competition, error) {
	var out struct {
		Competitions []Competition `json:"competitions"`
	}
	if err := c.get(ctx, "/competitions", nil, &out); err != nil {
		return nil, err
	}
	return out.Competitions, nil
}

// Teams lists the teams registered in a competition.
func (c *Client) Teams(ctx context.Context, competitionID int64) ([]Squad, error) {
	var out struct {
		Teams []Squad `json:"teams"`
	}
	endpoint := fmt.Sprintf("/competitions/%d/teams", competitionID)
	if err := c.get(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Teams, nil
}

// Fixtures lists a competition's fixtures in a date window.
func (c *Client) Fixtures(ctx context.Context, competitionID int64, from, to time.Time) ([]Fixture, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("dateFrom", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		q.Set("dateTo", to.Format("2006-01-02"))
	}
	var out struct {
		Matches []Fixture `json:"matches"`
	}
	endpoint := fmt.Sprintf("/competitions/%d/matches", competitionID)
	if err := c.get(ctx, endpoint, q, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// Odds lists current 1X2 odds for a competition's upcoming fixtures.
func (c *Client) Odds(ctx context.Context, competitionID int64) ([]FixtureOdds, error) {
	var out struct {
		Odds []FixtureOdds `json:"odds"`
	}
	endpoint := fmt.Sprintf("/competitions/%d/odds", competitionID)
	if err := c.get(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Odds, nil
}

// Injuries lists current injury reports for a competition.
func (c *Client) Injuries(ctx context.Context, competitionID int64) ([]PlayerInjury, error) {
	var out struct {
		Injuries []PlayerInjury `json:"injuries"`
	}
	endpoint := fmt.Sprintf("/competitions/%d/injuries", competitionID)
	if err := c.get(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Injuries, nil
}
