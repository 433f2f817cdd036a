package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage/memory"
	"github.com/pitchside/predictor/internal/metrics"
	"github.com/pitchside/predictor/internal/ml"
)

func newTestServer(t *testing.T) (*Server, Deps) {
	t.Helper()

	store := memory.NewMemoryStorage()
	deps := Deps{
		Leagues:     memory.NewLeagueRepo(store),
		Teams:       memory.NewTeamRepo(store),
		Matches:     memory.NewMatchRepo(store),
		Injuries:    memory.NewInjuryRepo(store),
		Predictions: memory.NewPredictionRepo(store),
		Users:       memory.NewUserRepo(store),
		Picks:       memory.NewPickRepo(store),
	}

	mlCfg := config.MLConfig{
		FormWindow:      5,
		H2HWindow:       20,
		InjuryWindow:    30 * 24 * time.Hour,
		TrainingEpochs:  150,
		LearningRate:    0.15,
		MinSamples:      24,
		TestSplit:       0.2,
		EnsembleWeights: []float64{0.4, 0.35, 0.25},
		CacheTTL:        10 * time.Minute,
		MaxGoals:        10,
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	fe := ml.NewFeatureEngineer(deps.Matches, deps.Teams, deps.Injuries, mlCfg.FormWindow, mlCfg.H2HWindow, mlCfg.InjuryWindow)
	deps.Trainer = ml.NewTrainer(deps.Matches, deps.Teams, fe, mlCfg, logger)

	srv := NewServer(
		config.ServerConfig{Port: 0},
		config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour},
		mlCfg,
		deps,
		logger,
	)
	return srv, deps
}

func doRequest(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// seedLeague creates a league with four teams and, when rounds > 0, a full
// finished history where lower-numbered teams beat higher-numbered ones at
// home and draw away.
func seedLeague(t *testing.T, deps Deps, rounds int) (*domain.League, []*domain.Team) {
	t.Helper()
	ctx := context.Background()

	league := &domain.League{Name: "Test League", Country: "England", Season: 2025}
	if err := deps.Leagues.Create(ctx, league); err != nil {
		t.Fatalf("create league: %v", err)
	}

	names := []string{"Alpha FC", "Beta United", "Gamma City", "Delta Town"}
	teams := make([]*domain.Team, len(names))
	for i, name := range names {
		teams[i] = &domain.Team{
			LeagueID: league.ID,
			Name:     name,
			Country:  "England",
			Rating:   domain.DefaultRating + float64(len(names)-i)*40,
		}
		if err := deps.Teams.Create(ctx, teams[i]); err != nil {
			t.Fatalf("create team %s: %v", name, err)
		}
	}

	kickoff := time.Now().Add(-180 * 24 * time.Hour)
	for r := 0; r < rounds; r++ {
		for i := range teams {
			for j := range teams {
				if i == j {
					continue
				}
				var hg, ag int
				if i < j {
					hg, ag = 2, 0
				} else {
					hg, ag = 1, 1
				}
				m := &domain.Match{
					LeagueID:   league.ID,
					HomeTeamID: teams[i].ID,
					AwayTeamID: teams[j].ID,
					KickoffAt:  kickoff,
					Status:     domain.MatchFinished,
					HomeGoals:  &hg,
					AwayGoals:  &ag,
				}
				if err := deps.Matches.Create(ctx, m); err != nil {
					t.Fatalf("create match: %v", err)
				}
				kickoff = kickoff.Add(24 * time.Hour)
			}
		}
	}
	return league, teams
}

func registerAndLogin(t *testing.T, srv *Server, username string) string {
	t.Helper()

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: got %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Username: username,
		Password: "correct-horse",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[tokenResponse](t, rec).AccessToken
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/health/detailed", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("detailed: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]any](t, rec)
	checks, _ := body["checks"].(map[string]any)
	if checks["database"] != "in-memory" {
		t.Errorf("database check = %v, want in-memory", checks["database"])
	}
	if checks["model"] != "untrained" {
		t.Errorf("model check = %v, want untrained", checks["model"])
	}
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	token := registerAndLogin(t, srv, "alice")

	// duplicate username
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "correct-horse",
	}, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: got %d, want 409", rec.Code)
	}

	// short password
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/auth/register", registerRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "short",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password: got %d, want 400", rec.Code)
	}

	// wrong password
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", loginRequest{
		Username: "alice",
		Password: "wrong",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: got %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/auth/me", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	user := decodeBody[domain.User](t, rec)
	if user.Username != "alice" {
		t.Errorf("username = %q, want alice", user.Username)
	}
	if user.LastLogin == nil {
		t.Error("last login not recorded")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/auth/me", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token: got %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/auth/me", nil, "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me with garbage token: got %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/profile", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: got %d, want 200", rec.Code)
	}
	profile := decodeBody[domain.UserProfile](t, rec)
	if profile.TotalPredictions != 0 {
		t.Errorf("fresh profile has %d predictions", profile.TotalPredictions)
	}
}

func TestLeagueEndpoints(t *testing.T) {
	srv, deps := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/leagues", leagueRequest{
		Name: "Premier League", Country: "England", Season: 2025,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	league := decodeBody[domain.League](t, rec)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/leagues", leagueRequest{
		Name: "Premier League", Country: "England", Season: 2025,
	}, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create: got %d, want 409", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/leagues/%d", league.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get: got %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/leagues/9999", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get missing: got %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, fmt.Sprintf("/api/v1/leagues/%d", league.ID), leagueRequest{
		Description: "Top flight",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d, want 200", rec.Code)
	}
	if got := decodeBody[domain.League](t, rec); got.Description != "Top flight" {
		t.Errorf("description = %q after update", got.Description)
	}

	// standings over seeded history
	seeded, teams := seedLeague(t, deps, 1)
	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/leagues/%d/standings", seeded.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("standings: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	table := decodeBody[[]domain.StandingsRow](t, rec)
	if len(table) != len(teams) {
		t.Fatalf("standings rows = %d, want %d", len(table), len(teams))
	}
	if table[0].TeamName != "Alpha FC" {
		t.Errorf("leader = %q, want Alpha FC", table[0].TeamName)
	}

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/leagues/%d/teams", seeded.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("teams: got %d, want 200", rec.Code)
	}
	if got := decodeBody[[]domain.Team](t, rec); len(got) != len(teams) {
		t.Errorf("teams = %d, want %d", len(got), len(teams))
	}
}

func TestCreateMatchValidation(t *testing.T) {
	srv, deps := newTestServer(t)
	league, teams := seedLeague(t, deps, 0)
	kickoff := time.Now().Add(48 * time.Hour)

	cases := []struct {
		name string
		req  matchRequest
		want int
	}{
		{"valid", matchRequest{LeagueID: league.ID, HomeTeamID: teams[0].ID, AwayTeamID: teams[1].ID, KickoffAt: kickoff}, http.StatusCreated},
		{"same team", matchRequest{LeagueID: league.ID, HomeTeamID: teams[0].ID, AwayTeamID: teams[0].ID, KickoffAt: kickoff}, http.StatusBadRequest},
		{"unknown league", matchRequest{LeagueID: 9999, HomeTeamID: teams[0].ID, AwayTeamID: teams[1].ID, KickoffAt: kickoff}, http.StatusBadRequest},
		{"unknown team", matchRequest{LeagueID: league.ID, HomeTeamID: 9999, AwayTeamID: teams[1].ID, KickoffAt: kickoff}, http.StatusBadRequest},
		{"missing kickoff", matchRequest{LeagueID: league.ID, HomeTeamID: teams[0].ID, AwayTeamID: teams[1].ID}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/v1/matches", tc.req, "")
			if rec.Code != tc.want {
				t.Errorf("got %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestMatchListAndResult(t *testing.T) {
	srv, deps := newTestServer(t)
	league, teams := seedLeague(t, deps, 1)

	rec := doRequest(t, srv, http.MethodGet,
		fmt.Sprintf("/api/v1/matches?league_id=%d&limit=5", league.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d, want 200", rec.Code)
	}
	list := decodeBody[matchListResponse](t, rec)
	if len(list.Matches) != 5 {
		t.Errorf("page size = %d, want 5", len(list.Matches))
	}
	if list.Total != 12 {
		t.Errorf("total = %d, want 12", list.Total)
	}

	// schedule and then record a result
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/matches", matchRequest{
		LeagueID:   league.ID,
		HomeTeamID: teams[0].ID,
		AwayTeamID: teams[1].ID,
		KickoffAt:  time.Now().Add(24 * time.Hour),
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body.String())
	}
	match := decodeBody[domain.Match](t, rec)

	rec = doRequest(t, srv, http.MethodPut,
		fmt.Sprintf("/api/v1/matches/%d/result", match.ID), resultRequest{HomeGoals: 3, AwayGoals: 1}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("result: got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[domain.Match](t, rec)
	if updated.Status != domain.MatchFinished {
		t.Errorf("status = %q, want finished", updated.Status)
	}
	if updated.HomeGoals == nil || *updated.HomeGoals != 3 {
		t.Error("home goals not recorded")
	}

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/matches/%d", match.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d", rec.Code)
	}
	detail := decodeBody[matchDetailResponse](t, rec)
	if detail.HomeTeam == nil || detail.HomeTeam.Name != teams[0].Name {
		t.Error("detail missing home team")
	}

	rec = doRequest(t, srv, http.MethodDelete, fmt.Sprintf("/api/v1/matches/%d", match.ID), nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: got %d, want 204", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/matches/%d", match.ID), nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", rec.Code)
	}
}

func TestPredictionLifecycle(t *testing.T) {
	srv, deps := newTestServer(t)
	league, teams := seedLeague(t, deps, 3)

	upcoming := &domain.Match{
		LeagueID:   league.ID,
		HomeTeamID: teams[0].ID,
		AwayTeamID: teams[3].ID,
		KickoffAt:  time.Now().Add(72 * time.Hour),
		Status:     domain.MatchScheduled,
	}
	if err := deps.Matches.Create(context.Background(), upcoming); err != nil {
		t.Fatalf("create upcoming match: %v", err)
	}

	predictPath := fmt.Sprintf("/api/v1/matches/%d/predict", upcoming.ID)

	// untrained ensemble refuses to predict
	rec := doRequest(t, srv, http.MethodPost, predictPath, nil, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("predict before train: got %d, want 409: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/ml/status", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if status := decodeBody[ml.Status](t, rec); status.Trained {
		t.Error("trained before training")
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/ml/train", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("train: got %d: %s", rec.Code, rec.Body.String())
	}
	eval := decodeBody[ml.EvalMetrics](t, rec)
	if eval.Samples != 36 {
		t.Errorf("samples = %d, want 36", eval.Samples)
	}

	before := testutil.ToFloat64(metrics.PredictionsGenerated.WithLabelValues(ml.ModelVersion))
	rec = doRequest(t, srv, http.MethodPost, predictPath, nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("predict: got %d: %s", rec.Code, rec.Body.String())
	}
	after := testutil.ToFloat64(metrics.PredictionsGenerated.WithLabelValues(ml.ModelVersion))
	if after-before != 1 {
		t.Errorf("predictions counter moved by %f, want 1", after-before)
	}
	p := decodeBody[domain.Prediction](t, rec)
	if p.ModelVersion != ml.ModelVersion {
		t.Errorf("model version = %q", p.ModelVersion)
	}
	sum := p.ProbHome + p.ProbDraw + p.ProbAway
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("probabilities sum to %f", sum)
	}

	rec = doRequest(t, srv, http.MethodGet,
		fmt.Sprintf("/api/v1/matches/%d/prediction", upcoming.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get prediction: got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/ml/features/top?limit=5", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("top features: got %d: %s", rec.Code, rec.Body.String())
	}
	top := decodeBody[[]ml.FeatureImportance](t, rec)
	if len(top) != 5 {
		t.Fatalf("top features = %d, want 5", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].Importance > top[i-1].Importance {
			t.Errorf("importances not sorted at %d", i)
		}
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/predictions/accuracy", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("accuracy: got %d", rec.Code)
	}
	acc := decodeBody[accuracyResponse](t, rec)
	if acc.Scored != 0 {
		t.Errorf("scored = %d before any settlement", acc.Scored)
	}
}

func TestPickEndpoints(t *testing.T) {
	srv, deps := newTestServer(t)
	league, teams := seedLeague(t, deps, 0)
	token := registerAndLogin(t, srv, "carol")

	upcoming := &domain.Match{
		LeagueID:   league.ID,
		HomeTeamID: teams[0].ID,
		AwayTeamID: teams[1].ID,
		KickoffAt:  time.Now().Add(24 * time.Hour),
		Status:     domain.MatchScheduled,
	}
	if err := deps.Matches.Create(context.Background(), upcoming); err != nil {
		t.Fatalf("create match: %v", err)
	}
	stake, odds := 10.0, 1.8
	finished := &domain.Match{
		LeagueID:   league.ID,
		HomeTeamID: teams[0].ID,
		AwayTeamID: teams[1].ID,
		KickoffAt:  time.Now().Add(-24 * time.Hour),
		Status:     domain.MatchFinished,
	}
	hg, ag := 1, 0
	finished.HomeGoals, finished.AwayGoals = &hg, &ag
	if err := deps.Matches.Create(context.Background(), finished); err != nil {
		t.Fatalf("create finished match: %v", err)
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/picks", pickRequest{
		MatchID:    upcoming.ID,
		Prediction: domain.OutcomeHomeWin,
		Confidence: 70,
		Stake:      &stake,
		Odds:       &odds,
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("pick without token: got %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/picks", pickRequest{
		MatchID:    upcoming.ID,
		Prediction: domain.OutcomeHomeWin,
		Confidence: 70,
		Stake:      &stake,
		Odds:       &odds,
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("pick: got %d: %s", rec.Code, rec.Body.String())
	}
	pick := decodeBody[domain.Pick](t, rec)
	if pick.ID == "" {
		t.Error("pick has no id")
	}
	if pick.Potential == nil || *pick.Potential != 18 {
		t.Errorf("potential = %v, want 18", pick.Potential)
	}
	if pick.Status != domain.PickPending {
		t.Errorf("status = %q, want pending", pick.Status)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/picks", pickRequest{
		MatchID:    finished.ID,
		Prediction: domain.OutcomeHomeWin,
		Confidence: 70,
	}, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pick on finished match: got %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/picks", pickRequest{
		MatchID:    upcoming.ID,
		Prediction: "both_teams_score",
		Confidence: 70,
	}, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid outcome: got %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/picks", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list picks: got %d", rec.Code)
	}
	if picks := decodeBody[[]domain.Pick](t, rec); len(picks) != 1 {
		t.Errorf("picks = %d, want 1", len(picks))
	}
}
