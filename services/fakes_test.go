package services

import (
	"context"
	"sync"
	"time"

	"github.com/brewbracket/tournament-system/models"
	"github.com/brewbracket/tournament-system/repositories"
)

// In-memory repository fakes. They mirror the conditional-update semantics
// of the Postgres implementations (CAS on status, single pending
// submission per match, insert-if-absent markers) so the services'
// arbitration logic is tested for real.

type fakeMatchRepo struct {
	mu      sync.Mutex
	seq     int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	match.ID = r.seq
	match.CreatedAt = time.Now()
	stored := *match
	r.matches[match.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, complete *bool) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, match := range r.matches {
		if match.TournamentID != tournamentID {
			continue
		}
		if round != nil && match.Round != *round {
			continue
		}
		if complete != nil && match.IsComplete != *complete {
			continue
		}
		copied := *match
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMatchRepo) SetResult(ctx context.Context, id int, winnerTeamID, scoreA, scoreB int, endTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.WinnerTeamID = &winnerTeamID
	match.ScoreA = &scoreA
	match.ScoreB = &scoreB
	match.IsComplete = true
	match.EndTime = &endTime
	return nil
}

func (r *fakeMatchRepo) Void(ctx context.Context, id int, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.IsComplete = true
	match.Note = &note
	return nil
}

func (r *fakeMatchRepo) SetAdminOverride(ctx context.Context, id int, winnerTeamID, scoreA, scoreB int, annotation string, endTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.WinnerTeamID = &winnerTeamID
	match.ScoreA = &scoreA
	match.ScoreB = &scoreB
	match.IsComplete = true
	match.AdminOverride = &annotation
	match.EndTime = &endTime
	return nil
}

func (r *fakeMatchRepo) AppendMediaKey(ctx context.Context, id int, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.MediaKeys = append(match.MediaKeys, key)
	return nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*models.ScoreSubmission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[string]*models.ScoreSubmission)}
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, sub *models.ScoreSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.submissions {
		if existing.MatchID == sub.MatchID && existing.Status == models.SubmissionPending {
			return repositories.ErrSubmissionPendingExists
		}
	}
	sub.Status = models.SubmissionPending
	sub.CreatedAt = time.Now()
	stored := *sub
	r.submissions[sub.ID] = &stored
	return nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, id string) (*models.ScoreSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil, repositories.ErrSubmissionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.ScoreSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ScoreSubmission, 0)
	for _, sub := range r.submissions {
		if sub.MatchID == matchID {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ListDueAutoConfirm(ctx context.Context, now time.Time, limit int) ([]*models.ScoreSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ScoreSubmission, 0)
	for _, sub := range r.submissions {
		if sub.Status == models.SubmissionPending && !sub.AutoConfirmAt.After(now) {
			copied := *sub
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) MarkConfirmed(ctx context.Context, id string, from models.SubmissionStatus, confirmedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return repositories.ErrSubmissionNotFound
	}
	if sub.Status != from {
		return repositories.ErrSubmissionNotInStatus
	}
	sub.Status = models.SubmissionConfirmed
	sub.ConfirmedAt = &confirmedAt
	return nil
}

func (r *fakeSubmissionRepo) MarkDisputed(ctx context.Context, id string, disputedBy int, disputedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return repositories.ErrSubmissionNotFound
	}
	if sub.Status != models.SubmissionPending {
		return repositories.ErrSubmissionNotInStatus
	}
	sub.Status = models.SubmissionDisputed
	sub.DisputedBy = &disputedBy
	sub.DisputedAt = &disputedAt
	return nil
}

func (r *fakeSubmissionRepo) UpdateProposedResult(ctx context.Context, id string, winnerTeamID, scoreA, scoreB int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return repositories.ErrSubmissionNotFound
	}
	sub.WinnerTeamID = winnerTeamID
	sub.ScoreA = scoreA
	sub.ScoreB = scoreB
	return nil
}

type fakeDisputeRepo struct {
	mu       sync.Mutex
	disputes map[string]*models.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{disputes: make(map[string]*models.Dispute)}
}

func (r *fakeDisputeRepo) Create(ctx context.Context, dispute *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dispute.Status = models.DisputeOpen
	dispute.CreatedAt = time.Now()
	stored := *dispute
	r.disputes[dispute.ID] = &stored
	return nil
}

func (r *fakeDisputeRepo) GetByID(ctx context.Context, id string) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dispute, ok := r.disputes[id]
	if !ok {
		return nil, repositories.ErrDisputeNotFound
	}
	copied := *dispute
	return &copied, nil
}

func (r *fakeDisputeRepo) ListByTournament(ctx context.Context, tournamentID int, status *models.DisputeStatus) ([]*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Dispute, 0)
	for _, dispute := range r.disputes {
		if dispute.TournamentID != tournamentID {
			continue
		}
		if status != nil && dispute.Status != *status {
			continue
		}
		copied := *dispute
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeDisputeRepo) MarkResolved(ctx context.Context, id string, resolution models.DisputeResolution, resolvedBy int, resolvedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dispute, ok := r.disputes[id]
	if !ok {
		return repositories.ErrDisputeNotFound
	}
	if dispute.Status != models.DisputeOpen {
		return repositories.ErrDisputeAlreadyResolved
	}
	dispute.Status = models.DisputeResolved
	dispute.Resolution = &resolution
	dispute.ResolvedBy = &resolvedBy
	dispute.ResolvedAt = &resolvedAt
	return nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	seq         int
	tournaments map[int]*models.Tournament
	teams       map[int][]int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[int]*models.Tournament),
		teams:       make(map[int][]int),
	}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	tournament.ID = r.seq
	tournament.CreatedAt = time.Now()
	stored := *tournament
	r.tournaments[tournament.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, tournament := range r.tournaments {
		copied := *tournament
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListByParent(ctx context.Context, parentID int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, tournament := range r.tournaments {
		if tournament.ParentID != nil && *tournament.ParentID == parentID {
			copied := *tournament
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateBracketState(ctx context.Context, id int, state string, currentRound int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.BracketState = &state
	tournament.CurrentRound = currentRound
	return nil
}

func (r *fakeTournamentRepo) RegisterTeam(ctx context.Context, tournamentID, teamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[tournamentID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	for _, existing := range r.teams[tournamentID] {
		if existing == teamID {
			return nil
		}
	}
	r.teams[tournamentID] = append(r.teams[tournamentID], teamID)
	return nil
}

func (r *fakeTournamentRepo) ListTeamIDs(ctx context.Context, tournamentID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.teams[tournamentID]...), nil
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	seq     int
	teams   map[int]*models.Team
	members map[int][]int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		teams:   make(map[int]*models.Team),
		members: make(map[int][]int),
	}
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	team.ID = r.seq
	team.CreatedAt = time.Now()
	stored := *team
	r.teams[team.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListMemberIDs(ctx context.Context, teamID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.members[teamID]...), nil
}

func (r *fakeTeamRepo) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members[teamID] {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members[teamID] {
		if member == userID {
			return nil
		}
	}
	r.members[teamID] = append(r.members[teamID], userID)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.seq++
	user.ID = r.seq
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	seq    int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int]*models.Event)}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	event.ID = r.seq
	event.CreatedAt = time.Now()
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) List(ctx context.Context) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Event, 0)
	for _, event := range r.events {
		copied := *event
		out = append(out, &copied)
	}
	return out, nil
}

type fakeStatsRepo struct {
	mu       sync.Mutex
	profiles map[int]*models.PlayerProfile
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{profiles: make(map[int]*models.PlayerProfile)}
}

func (r *fakeStatsRepo) GetProfile(ctx context.Context, userID int) (*models.PlayerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeStatsRepo) ApplyMatchResult(ctx context.Context, userID int, won bool, cupsFor, cupsAgainst int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		profile = &models.PlayerProfile{UserID: userID}
		r.profiles[userID] = profile
	}
	profile.GamesPlayed++
	if won {
		profile.Wins++
	} else {
		profile.Losses++
	}
	profile.CupsFor += cupsFor
	profile.CupsAgainst += cupsAgainst
	profile.UpdatedAt = time.Now()
	return nil
}

type megaScoreKey struct {
	megaID int
	teamID int
}

type fakeMegaScoreRepo struct {
	mu     sync.Mutex
	scores map[megaScoreKey]*models.MegaTournamentScore
}

func newFakeMegaScoreRepo() *fakeMegaScoreRepo {
	return &fakeMegaScoreRepo{scores: make(map[megaScoreKey]*models.MegaTournamentScore)}
}

func (r *fakeMegaScoreRepo) ApplyResult(ctx context.Context, megaTournamentID, teamID, points int, won bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := megaScoreKey{megaID: megaTournamentID, teamID: teamID}
	score, ok := r.scores[key]
	if !ok {
		score = &models.MegaTournamentScore{MegaTournamentID: megaTournamentID, TeamID: teamID}
		r.scores[key] = score
	}
	score.Points += points
	if won {
		score.Wins++
	}
	score.UpdatedAt = time.Now()
	return nil
}

func (r *fakeMegaScoreRepo) ListStandings(ctx context.Context, megaTournamentID int) ([]*models.MegaTournamentScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.MegaTournamentScore, 0)
	for key, score := range r.scores {
		if key.megaID == megaTournamentID {
			copied := *score
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	seq     int
	entries []*models.PointLedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{}
}

func (r *fakeLedgerRepo) Append(ctx context.Context, entry *models.PointLedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = r.seq
	entry.CreatedAt = time.Now()
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *fakeLedgerRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.PointLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.PointLedgerEntry, 0)
	for _, entry := range r.entries {
		if entry.TournamentID == tournamentID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeAdminLogRepo struct {
	mu      sync.Mutex
	seq     int
	entries []*models.AdminActionLog
}

func newFakeAdminLogRepo() *fakeAdminLogRepo {
	return &fakeAdminLogRepo{}
}

func (r *fakeAdminLogRepo) Append(ctx context.Context, entry *models.AdminActionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = r.seq
	entry.CreatedAt = time.Now()
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *fakeAdminLogRepo) List(ctx context.Context, limit, offset int) ([]*models.AdminActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.AdminActionLog, 0)
	for _, entry := range r.entries {
		copied := *entry
		out = append(out, &copied)
	}
	return out, nil
}

type appliedKey struct {
	matchID int
	kind    models.AggregateKind
}

type fakeAppliedRepo struct {
	mu      sync.Mutex
	markers map[appliedKey]bool
}

func newFakeAppliedRepo() *fakeAppliedRepo {
	return &fakeAppliedRepo{markers: make(map[appliedKey]bool)}
}

func (r *fakeAppliedRepo) TryMark(ctx context.Context, matchID int, kind models.AggregateKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := appliedKey{matchID: matchID, kind: kind}
	if r.markers[key] {
		return false, nil
	}
	r.markers[key] = true
	return true, nil
}
