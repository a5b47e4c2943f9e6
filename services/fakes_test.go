package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/kotc-scoreboard/models"
	"github.com/Dosada05/kotc-scoreboard/repositories"
	"github.com/Dosada05/kotc-scoreboard/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakeNotifier struct {
	mu     sync.Mutex
	topics []Topic
}

func (f *fakeNotifier) Publish(topics ...Topic) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topics...)
}

func (f *fakeNotifier) published(topic Topic) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.topics {
		if t == topic {
			return true
		}
	}
	return false
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players []*models.Player
	nextID  int
}

func newFakePlayerRepo(names ...string) *fakePlayerRepo {
	r := &fakePlayerRepo{}
	for i, name := range names {
		r.players = append(r.players, &models.Player{ID: fmt.Sprintf("p%d", i+1), Name: name})
	}
	r.nextID = len(names)
	return r
}

func (r *fakePlayerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Name == player.Name {
			return repositories.ErrPlayerNameConflict
		}
	}
	r.nextID++
	player.ID = fmt.Sprintf("p%d", r.nextID)
	player.CreatedAt = time.Now()
	stored := *player
	r.players = append(r.players, &stored)
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id string) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) ListWithTotals(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Player, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePlayerRepo) UpdateAvatar(ctx context.Context, id string, avatarKey, avatarURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == id {
			p.AvatarKey = avatarKey
			p.AvatarURL = avatarURL
			return nil
		}
	}
	return repositories.ErrPlayerNotFound
}

type fakeCupRepo struct {
	mu          sync.Mutex
	cups        []*models.Cup
	assignments map[string][]*models.CupPlayer
	cupWins     map[string]int
}

func newFakeCupRepo() *fakeCupRepo {
	return &fakeCupRepo{
		assignments: make(map[string][]*models.CupPlayer),
		cupWins:     make(map[string]int),
	}
}

func (r *fakeCupRepo) find(id string) *models.Cup {
	for _, c := range r.cups {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *fakeCupRepo) Create(ctx context.Context, exec repositories.SQLExecutor, cup *models.Cup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cup.ID = fmt.Sprintf("cup-%d", len(r.cups)+1)
	if cup.FinalsMode == "" {
		cup.FinalsMode = models.FinalsModeNone
	}
	stored := *cup
	r.cups = append(r.cups, &stored)
	return nil
}

func (r *fakeCupRepo) GetLatest(ctx context.Context, exec repositories.SQLExecutor) (*models.Cup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cups) == 0 {
		return nil, repositories.ErrCupNotFound
	}
	cp := *r.cups[len(r.cups)-1]
	return &cp, nil
}

func (r *fakeCupRepo) Count(ctx context.Context, exec repositories.SQLExecutor) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cups), nil
}

func (r *fakeCupRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.CupStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return repositories.ErrCupNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeCupRepo) SetFinalsMode(ctx context.Context, exec repositories.SQLExecutor, id string, mode models.FinalsMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil {
		return repositories.ErrCupNotFound
	}
	if c.FinalsMode != models.FinalsModeNone {
		return repositories.ErrCupFinalsModeLocked
	}
	c.FinalsMode = mode
	c.Status = models.CupStatusFinals
	return nil
}

func (r *fakeCupRepo) Finish(ctx context.Context, exec repositories.SQLExecutor, id string, winnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.find(id)
	if c == nil || c.Status == models.CupStatusFinished {
		return repositories.ErrCupAlreadyFinished
	}
	c.Status = models.CupStatusFinished
	c.WinnerID = &winnerID
	return nil
}

func (r *fakeCupRepo) IncrementCupWins(ctx context.Context, exec repositories.SQLExecutor, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cupWins[playerID]++
	return nil
}

func (r *fakeCupRepo) ListPlayers(ctx context.Context, exec repositories.SQLExecutor, cupID string) ([]*models.CupPlayer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.CupPlayer, 0)
	for _, a := range r.assignments[cupID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCupRepo) ReplacePlayers(ctx context.Context, exec repositories.SQLExecutor, cupID string, assignments []*models.CupPlayer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(assignments) == 0 {
		return repositories.ErrCupAssignmentMissing
	}
	r.assignments[cupID] = assignments
	return nil
}

func (r *fakeCupRepo) latest() *models.Cup {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cups) == 0 {
		return nil
	}
	return r.cups[len(r.cups)-1]
}

func (r *fakeCupRepo) group(cupID string, group models.GroupName) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, a := range r.assignments[cupID] {
		if a.Group == group {
			ids = append(ids, a.PlayerID)
		}
	}
	return ids
}

type fakeMatchRepo struct {
	mu        sync.Mutex
	matches   []*models.Match
	nextID    int
	points    *models.MatchPoints
	reportErr error
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	match.ID = fmt.Sprintf("m%d", r.nextID)
	match.CreatedAt = time.Now()
	stored := *match
	r.matches = append(r.matches, &stored)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByCup(ctx context.Context, exec repositories.SQLExecutor, cupID string) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.CupID != nil && *m.CupID == cupID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) CountByCup(ctx context.Context, exec repositories.SQLExecutor, cupID string) (int, error) {
	matches, _ := r.ListByCup(ctx, exec, cupID)
	return len(matches), nil
}

func (r *fakeMatchRepo) Undo(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			r.matches = append(r.matches[:i], r.matches[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ReportLeague(ctx context.Context, winnerID, loserID string) (*models.MatchPoints, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reportErr != nil {
		return nil, r.reportErr
	}
	r.nextID++
	r.matches = append(r.matches, &models.Match{
		ID:       fmt.Sprintf("m%d", r.nextID),
		WinnerID: winnerID,
		LoserID:  loserID,
		Type:     models.MatchTypeLeague,
	})
	if r.points != nil {
		return r.points, nil
	}
	return &models.MatchPoints{PointsAwarded: 10, Base: 10, Multiplier: 1}, nil
}

func (r *fakeMatchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

type fakeLeagueRepo struct {
	stats    map[string][]*models.DailyStat
	king     *string
	closing  *models.DayClosing
	history  []*models.DailyStat
	winners  []*models.DayWinnerRank
	totals   []*models.TotalWinRank
	gotLimit int
	gotDate  string
}

func (r *fakeLeagueRepo) ListDailyStats(ctx context.Context, date string) ([]*models.DailyStat, error) {
	r.gotDate = date
	return r.stats[date], nil
}

func (r *fakeLeagueRepo) CurrentKing(ctx context.Context) (*string, error) {
	return r.king, nil
}

func (r *fakeLeagueRepo) CloseDay(ctx context.Context) (*models.DayClosing, error) {
	return r.closing, nil
}

func (r *fakeLeagueRepo) ListDayWinners(ctx context.Context) ([]*models.DayWinnerRank, error) {
	return r.winners, nil
}

func (r *fakeLeagueRepo) ListTotalWins(ctx context.Context, limit int) ([]*models.TotalWinRank, error) {
	r.gotLimit = limit
	if limit < len(r.totals) {
		return r.totals[:limit], nil
	}
	return r.totals, nil
}

func (r *fakeLeagueRepo) ListPlayerHistory(ctx context.Context, playerID string, limit int) ([]*models.DailyStat, error) {
	r.gotLimit = limit
	return r.history, nil
}

type fakeUploader struct {
	uploaded map[string][]byte
	deleted  []string
}

var _ storage.FileUploader = (*fakeUploader)(nil)

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	if u.uploaded == nil {
		u.uploaded = make(map[string][]byte)
	}
	u.uploaded[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
