package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// MemoryStorage backs every repository with plain maps. Used by tests and
// as a storage-less boot mode when no database is configured.
type MemoryStorage struct {
	leagues     map[int64]*domain.League
	teams       map[int64]*domain.Team
	matches     map[int64]*domain.Match
	injuries    map[int64]*domain.Injury
	predictions map[int64]*domain.Prediction
	users       map[int64]*domain.User
	profiles    map[int64]*domain.UserProfile
	picks       map[string]*domain.Pick
	nextID      int64
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		leagues:     make(map[int64]*domain.League),
		teams:       make(map[int64]*domain.Team),
		matches:     make(map[int64]*domain.Match),
		injuries:    make(map[int64]*domain.Injury),
		predictions: make(map[int64]*domain.Prediction),
		users:       make(map[int64]*domain.User),
		profiles:    make(map[int64]*domain.UserProfile),
		picks:       make(map[string]*domain.Pick),
	}
}

// id must be called with the write lock held.
func (s *MemoryStorage) id() int64 {
	s.nextID++
	return s.nextID
}

// deleteMatchLocked removes a match and its dependents, matching the SQL
// schema's cascade. The write lock must be held.
func (s *MemoryStorage) deleteMatchLocked(id int64) {
	delete(s.matches, id)
	for pid, p := range s.predictions {
		if p.MatchID == id {
			delete(s.predictions, pid)
		}
	}
	for pid, p := range s.picks {
		if p.MatchID == id {
			delete(s.picks, pid)
		}
	}
}

// -----------------------------------------------------------------------------
// League Repository
// -----------------------------------------------------------------------------

type LeagueRepo struct {
	store *MemoryStorage
}

func NewLeagueRepo(store *MemoryStorage) *LeagueRepo {
	return &LeagueRepo{store: store}
}

func (r *LeagueRepo) Create(ctx context.Context, league *domain.League) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.leagues {
		if strings.EqualFold(l.Name, league.Name) {
			return storage.ErrDuplicate
		}
	}
	league.ID = r.store.id()
	league.CreatedAt = time.Now()
	league.UpdatedAt = league.CreatedAt
	cp := *league
	r.store.leagues[league.ID] = &cp
	return nil
}

func (r *LeagueRepo) GetByID(ctx context.Context, id int64) (*domain.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.leagues[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *LeagueRepo) GetByName(ctx context.Context, name string) (*domain.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, l := range r.store.leagues {
		if strings.EqualFold(l.Name, name) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *LeagueRepo) List(ctx context.Context) ([]*domain.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	leagues := make([]*domain.League, 0, len(r.store.leagues))
	for _, l := range r.store.leagues {
		cp := *l
		leagues = append(leagues, &cp)
	}
	sort.Slice(leagues, func(i, j int) bool { return leagues[i].ID < leagues[j].ID })
	return leagues, nil
}

func (r *LeagueRepo) Update(ctx context.Context, league *domain.League) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.leagues[league.ID]; !ok {
		return storage.ErrNotFound
	}
	league.UpdatedAt = time.Now()
	cp := *league
	r.store.leagues[league.ID] = &cp
	return nil
}

func (r *LeagueRepo) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.leagues[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.store.leagues, id)
	for tid, t := range r.store.teams {
		if t.LeagueID == id {
			delete(r.store.teams, tid)
			for iid, inj := range r.store.injuries {
				if inj.TeamID == tid {
					delete(r.store.injuries, iid)
				}
			}
		}
	}
	for mid, m := range r.store.matches {
		if m.LeagueID == id {
			r.store.deleteMatchLocked(mid)
		}
	}
	return nil
}

func (r *LeagueRepo) Standings(ctx context.Context, leagueID int64) ([]*domain.StandingsRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if _, ok := r.store.leagues[leagueID]; !ok {
		return nil, storage.ErrNotFound
	}
	rows := make(map[int64]*domain.StandingsRow)
	for _, t := range r.store.teams {
		if t.LeagueID == leagueID {
			rows[t.ID] = &domain.StandingsRow{TeamID: t.ID, TeamName: t.Name}
		}
	}
	for _, m := range r.store.matches {
		if m.LeagueID != leagueID || !m.Finished() {
			continue
		}
		home, away := rows[m.HomeTeamID], rows[m.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		hg, ag := *m.HomeGoals, *m.AwayGoals
		home.Played++
		away.Played++
		home.GoalsFor += hg
		home.GoalsAgainst += ag
		away.GoalsFor += ag
		away.GoalsAgainst += hg
		switch {
		case hg > ag:
			home.Wins++
			away.Losses++
		case hg < ag:
			away.Wins++
			home.Losses++
		default:
			home.Draws++
			away.Draws++
		}
	}
	table := make([]*domain.StandingsRow, 0, len(rows))
	for _, row := range rows {
		row.GoalDiff = row.GoalsFor - row.GoalsAgainst
		row.Points = row.Wins*3 + row.Draws
		table = append(table, row)
	}
	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamName < b.TeamName
	})
	return table, nil
}

// -----------------------------------------------------------------------------
// Team Repository
// -----------------------------------------------------------------------------

type TeamRepo struct {
	store *MemoryStorage
}

func NewTeamRepo(store *MemoryStorage) *TeamRepo {
	return &TeamRepo{store: store}
}

func (r *TeamRepo) Create(ctx context.Context, team *domain.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.teams {
		if t.LeagueID == team.LeagueID && strings.EqualFold(t.Name, team.Name) {
			return storage.ErrDuplicate
		}
	}
	if team.Rating == 0 {
		team.Rating = domain.DefaultRating
	}
	team.ID = r.store.id()
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	cp := *team
	r.store.teams[team.ID] = &cp
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.teams[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TeamRepo) GetByName(ctx context.Context, leagueID int64, name string) (*domain.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.teams {
		if t.LeagueID == leagueID && strings.EqualFold(t.Name, name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *TeamRepo) ListByLeague(ctx context.Context, leagueID int64) ([]*domain.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var teams []*domain.Team
	for _, t := range r.store.teams {
		if t.LeagueID == leagueID {
			cp := *t
			teams = append(teams, &cp)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (r *TeamRepo) Update(ctx context.Context, team *domain.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.teams[team.ID]; !ok {
		return storage.ErrNotFound
	}
	team.UpdatedAt = time.Now()
	cp := *team
	r.store.teams[team.ID] = &cp
	return nil
}

func (r *TeamRepo) UpdateRating(ctx context.Context, teamID int64, rating float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.teams[teamID]
	if !ok {
		return storage.ErrNotFound
	}
	t.Rating = rating
	t.UpdatedAt = time.Now()
	return nil
}

// -----------------------------------------------------------------------------
// Match Repository
// -----------------------------------------------------------------------------

type MatchRepo struct {
	store *MemoryStorage
}

func NewMatchRepo(store *MemoryStorage) *MatchRepo {
	return &MatchRepo{store: store}
}

func (r *MatchRepo) Create(ctx context.Context, match *domain.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if match.Status == "" {
		match.Status = domain.MatchScheduled
	}
	match.ID = r.store.id()
	match.CreatedAt = time.Now()
	match.UpdatedAt = match.CreatedAt
	cp := *match
	r.store.matches[match.ID] = &cp
	return nil
}

func (r *MatchRepo) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	m, ok := r.store.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MatchRepo) List(ctx context.Context, filter domain.MatchFilter) ([]*domain.Match, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var all []*domain.Match
	for _, m := range r.store.matches {
		if filter.LeagueID != 0 && m.LeagueID != filter.LeagueID {
			continue
		}
		if filter.TeamID != 0 && !m.Involves(filter.TeamID) {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		cp := *m
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].KickoffAt.After(all[j].KickoffAt) })
	total := len(all)
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (r *MatchRepo) ListByTeam(ctx context.Context, teamID int64, before time.Time, limit int) ([]*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var matches []*domain.Match
	for _, m := range r.store.matches {
		if m.Involves(teamID) && m.Finished() && m.KickoffAt.Before(before) {
			cp := *m
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].KickoffAt.After(matches[j].KickoffAt) })
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MatchRepo) ListHeadToHead(ctx context.Context, teamA, teamB int64, before time.Time, limit int) ([]*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var matches []*domain.Match
	for _, m := range r.store.matches {
		if m.Involves(teamA) && m.Involves(teamB) && m.Finished() && m.KickoffAt.Before(before) {
			cp := *m
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].KickoffAt.After(matches[j].KickoffAt) })
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MatchRepo) ListFinished(ctx context.Context, leagueID int64, limit int) ([]*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var matches []*domain.Match
	for _, m := range r.store.matches {
		if !m.Finished() {
			continue
		}
		if leagueID != 0 && m.LeagueID != leagueID {
			continue
		}
		cp := *m
		matches = append(matches, &cp)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].KickoffAt.Before(matches[j].KickoffAt) })
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MatchRepo) ListUnsettled(ctx context.Context) ([]*domain.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	seen := make(map[int64]bool)
	for _, p := range r.store.predictions {
		if p.WasCorrect == nil {
			seen[p.MatchID] = true
		}
	}
	for _, pk := range r.store.picks {
		if pk.Status == domain.PickPending {
			seen[pk.MatchID] = true
		}
	}
	var matches []*domain.Match
	for id := range seen {
		m, ok := r.store.matches[id]
		if ok && m.Finished() {
			cp := *m
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].KickoffAt.Before(matches[j].KickoffAt) })
	return matches, nil
}

func (r *MatchRepo) Update(ctx context.Context, match *domain.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.matches[match.ID]; !ok {
		return storage.ErrNotFound
	}
	match.UpdatedAt = time.Now()
	cp := *match
	r.store.matches[match.ID] = &cp
	return nil
}

func (r *MatchRepo) UpdateOdds(ctx context.Context, matchID int64, home, draw, away float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.matches[matchID]
	if !ok {
		return storage.ErrNotFound
	}
	m.OddsHomeWin = &home
	m.OddsDraw = &draw
	m.OddsAwayWin = &away
	m.UpdatedAt = time.Now()
	return nil
}

func (r *MatchRepo) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.matches[id]; !ok {
		return storage.ErrNotFound
	}
	r.store.deleteMatchLocked(id)
	return nil
}

// -----------------------------------------------------------------------------
// Injury Repository
// -----------------------------------------------------------------------------

type InjuryRepo struct {
	store *MemoryStorage
}

func NewInjuryRepo(store *MemoryStorage) *InjuryRepo {
	return &InjuryRepo{store: store}
}

func (r *InjuryRepo) Create(ctx context.Context, injury *domain.Injury) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if injury.Severity == "" {
		injury.Severity = domain.SeverityMinor
	}
	if injury.Status == "" {
		injury.Status = domain.InjuryActive
	}
	injury.ID = r.store.id()
	injury.CreatedAt = time.Now()
	injury.UpdatedAt = injury.CreatedAt
	cp := *injury
	r.store.injuries[injury.ID] = &cp
	return nil
}

func (r *InjuryRepo) GetByID(ctx context.Context, id int64) (*domain.Injury, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	inj, ok := r.store.injuries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *inj
	return &cp, nil
}

func (r *InjuryRepo) ListByTeam(ctx context.Context, teamID int64) ([]*domain.Injury, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var injuries []*domain.Injury
	for _, inj := range r.store.injuries {
		if inj.TeamID == teamID {
			cp := *inj
			injuries = append(injuries, &cp)
		}
	}
	sort.Slice(injuries, func(i, j int) bool {
		return injuries[i].InjuryDate.After(injuries[j].InjuryDate)
	})
	return injuries, nil
}

func (r *InjuryRepo) CountActive(ctx context.Context, teamID int64, since, at time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, inj := range r.store.injuries {
		if inj.TeamID != teamID || inj.InjuryDate.Before(since) {
			continue
		}
		if inj.RuledOut(at) {
			count++
		}
	}
	return count, nil
}

func (r *InjuryRepo) Update(ctx context.Context, injury *domain.Injury) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.injuries[injury.ID]; !ok {
		return storage.ErrNotFound
	}
	injury.UpdatedAt = time.Now()
	cp := *injury
	r.store.injuries[injury.ID] = &cp
	return nil
}

func (r *InjuryRepo) DeleteRecoveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, inj := range r.store.injuries {
		if inj.Status == domain.InjuryRecovered && inj.UpdatedAt.Before(cutoff) {
			delete(r.store.injuries, id)
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Prediction Repository
// -----------------------------------------------------------------------------

type PredictionRepo struct {
	store *MemoryStorage
}

func NewPredictionRepo(store *MemoryStorage) *PredictionRepo {
	return &PredictionRepo{store: store}
}

func (r *PredictionRepo) Create(ctx context.Context, p *domain.Prediction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p.Outcome == "" {
		p.Outcome = p.Pick()
	}
	p.ID = r.store.id()
	p.CreatedAt = time.Now()
	cp := *p
	r.store.predictions[p.ID] = &cp
	return nil
}

func (r *PredictionRepo) GetLatestByMatch(ctx context.Context, matchID int64) (*domain.Prediction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var latest *domain.Prediction
	for _, p := range r.store.predictions {
		if p.MatchID != matchID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *PredictionRepo) ListUnscored(ctx context.Context) ([]*domain.Prediction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var preds []*domain.Prediction
	for _, p := range r.store.predictions {
		if p.WasCorrect != nil {
			continue
		}
		m, ok := r.store.matches[p.MatchID]
		if ok && m.Finished() {
			cp := *p
			preds = append(preds, &cp)
		}
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i].ID < preds[j].ID })
	return preds, nil
}

func (r *PredictionRepo) Score(ctx context.Context, id int64, correct bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.predictions[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.WasCorrect = &correct
	return nil
}

func (r *PredictionRepo) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, p := range r.store.predictions {
		if p.MatchID == matchID {
			count++
		}
	}
	return count, nil
}

func (r *PredictionRepo) Accuracy(ctx context.Context, modelVersion string) (int, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var scored, correct int
	for _, p := range r.store.predictions {
		if p.ModelVersion != modelVersion || p.WasCorrect == nil {
			continue
		}
		scored++
		if *p.WasCorrect {
			correct++
		}
	}
	return scored, correct, nil
}

// -----------------------------------------------------------------------------
// User Repository
// -----------------------------------------------------------------------------

type UserRepo struct {
	store *MemoryStorage
}

func NewUserRepo(store *MemoryStorage) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return storage.ErrDuplicate
		}
	}
	user.ID = r.store.id()
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	for _, u := range r.store.users {
		if u.ID == user.ID {
			continue
		}
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return storage.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *UserRepo) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.profiles[userID]
	if !ok {
		return &domain.UserProfile{UserID: userID}, nil
	}
	cp := *p
	return &cp, nil
}

func (r *UserRepo) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	profile.UpdatedAt = time.Now()
	cp := *profile
	r.store.profiles[profile.UserID] = &cp
	return nil
}

// -----------------------------------------------------------------------------
// Pick Repository
// -----------------------------------------------------------------------------

type PickRepo struct {
	store *MemoryStorage
}

func NewPickRepo(store *MemoryStorage) *PickRepo {
	return &PickRepo{store: store}
}

func (r *PickRepo) Create(ctx context.Context, pick *domain.Pick) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if pick.ID == "" {
		pick.ID = uuid.NewString()
	}
	if _, ok := r.store.picks[pick.ID]; ok {
		return storage.ErrDuplicate
	}
	if pick.Status == "" {
		pick.Status = domain.PickPending
	}
	pick.CreatedAt = time.Now()
	pick.UpdatedAt = pick.CreatedAt
	cp := *pick
	r.store.picks[pick.ID] = &cp
	return nil
}

func (r *PickRepo) GetByID(ctx context.Context, id string) (*domain.Pick, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.picks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PickRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.Pick, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var picks []*domain.Pick
	for _, p := range r.store.picks {
		if p.UserID == userID {
			cp := *p
			picks = append(picks, &cp)
		}
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].CreatedAt.After(picks[j].CreatedAt) })
	if offset >= len(picks) {
		return nil, nil
	}
	picks = picks[offset:]
	if limit > 0 && limit < len(picks) {
		picks = picks[:limit]
	}
	return picks, nil
}

func (r *PickRepo) ListPendingByMatch(ctx context.Context, matchID int64) ([]*domain.Pick, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var picks []*domain.Pick
	for _, p := range r.store.picks {
		if p.MatchID == matchID && p.Status == domain.PickPending {
			cp := *p
			picks = append(picks, &cp)
		}
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].ID < picks[j].ID })
	return picks, nil
}

func (r *PickRepo) Update(ctx context.Context, pick *domain.Pick) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.picks[pick.ID]; !ok {
		return storage.ErrNotFound
	}
	pick.UpdatedAt = time.Now()
	cp := *pick
	r.store.picks[pick.ID] = &cp
	return nil
}
