package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Dosada05/kotc-scoreboard/models"
	"github.com/Dosada05/kotc-scoreboard/repositories"
)

const (
	dateLayout          = "2006-01-02"
	playerHistoryDays   = 10
	defaultTotalWinsTop = 10
	maxTotalWinsTop     = 100
)

type LeagueService interface {
	ReportMatch(ctx context.Context, input ReportLeagueMatchInput) (*models.MatchPoints, error)
	UndoMatch(ctx context.Context, matchID string) error
	Leaderboard(ctx context.Context, day string) (*models.Leaderboard, error)
	CurrentKing(ctx context.Context) (*models.Player, error)
	CloseDay(ctx context.Context) (*models.DayClosing, error)
	DayWinners(ctx context.Context) ([]*models.DayWinnerRank, error)
	TotalWins(ctx context.Context, limit int) ([]*models.TotalWinRank, error)
	PlayerHistory(ctx context.Context, playerID string) (*models.PlayerHistory, error)
}

type ReportLeagueMatchInput struct {
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
}

type leagueService struct {
	leagueRepo repositories.LeagueRepository
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	notifier   Notifier
	now        func() time.Time
	logger     *slog.Logger
}

func NewLeagueService(
	leagueRepo repositories.LeagueRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	notifier Notifier,
	logger *slog.Logger,
) LeagueService {
	return &leagueService{
		leagueRepo: leagueRepo,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger.With(slog.String("service", "league")),
	}
}

func (s *leagueService) ReportMatch(ctx context.Context, input ReportLeagueMatchInput) (*models.MatchPoints, error) {
	if input.WinnerID == "" || input.LoserID == "" {
		return nil, fmt.Errorf("%w: winner_id and loser_id are required", ErrValidationFailed)
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrSamePlayer
	}

	points, err := s.matchRepo.ReportLeague(ctx, input.WinnerID, input.LoserID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchPlayerInvalid) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to report ladder match: %w", err)
	}

	s.logger.Info("ladder match reported",
		slog.String("winner_id", input.WinnerID),
		slog.String("loser_id", input.LoserID),
		slog.Int("points", points.PointsAwarded),
	)
	s.notifier.Publish(TopicLeague)
	return points, nil
}

func (s *leagueService) UndoMatch(ctx context.Context, matchID string) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load match: %w", err)
	}
	if match.Type != models.MatchTypeLeague {
		return ErrNotFound
	}

	if err := s.matchRepo.Undo(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to undo ladder match: %w", err)
	}

	s.logger.Info("ladder match undone", slog.String("match_id", matchID))
	s.notifier.Publish(TopicLeague)
	return nil
}

// Leaderboard returns the day's table, today (UTC) when day is empty.
func (s *leagueService) Leaderboard(ctx context.Context, day string) (*models.Leaderboard, error) {
	if day == "" {
		day = s.now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, day); err != nil {
		return nil, ErrInvalidDate
	}

	stats, err := s.leagueRepo.ListDailyStats(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	king, err := s.leagueRepo.CurrentKing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current king: %w", err)
	}

	board := &models.Leaderboard{Date: day, Stats: stats, KingID: king}
	for i, stat := range stats {
		stat.Rank = i + 1
		if stat.MaxStreak > 0 && (board.TopStreak == nil || stat.MaxStreak > board.TopStreak.MaxStreak) {
			board.TopStreak = stat
		}
	}
	return board, nil
}

func (s *leagueService) CurrentKing(ctx context.Context) (*models.Player, error) {
	id, err := s.leagueRepo.CurrentKing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current king: %w", err)
	}
	if id == nil {
		return nil, nil
	}
	player, err := s.playerRepo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load king %s: %w", *id, err)
	}
	return player, nil
}

func (s *leagueService) CloseDay(ctx context.Context) (*models.DayClosing, error) {
	closing, err := s.leagueRepo.CloseDay(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to close day: %w", err)
	}
	if !closing.Success {
		return closing, fmt.Errorf("%w: %s", ErrDayCloseRejected, closing.Message)
	}

	attrs := []any{}
	if closing.DayWinner != nil {
		attrs = append(attrs, slog.String("day_winner", closing.DayWinner.Name))
	}
	if closing.BonusWinner != nil {
		attrs = append(attrs, slog.String("bonus_winner", closing.BonusWinner.Name))
	}
	s.logger.Info("day closed", attrs...)
	s.notifier.Publish(TopicLeague)
	return closing, nil
}

func (s *leagueService) DayWinners(ctx context.Context) ([]*models.DayWinnerRank, error) {
	ranks, err := s.leagueRepo.ListDayWinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load day winners: %w", err)
	}
	return ranks, nil
}

func (s *leagueService) TotalWins(ctx context.Context, limit int) ([]*models.TotalWinRank, error) {
	if limit <= 0 {
		limit = defaultTotalWinsTop
	}
	if limit > maxTotalWinsTop {
		limit = maxTotalWinsTop
	}
	ranks, err := s.leagueRepo.ListTotalWins(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load total wins: %w", err)
	}
	return ranks, nil
}

func (s *leagueService) PlayerHistory(ctx context.Context, playerID string) (*models.PlayerHistory, error) {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	days, err := s.leagueRepo.ListPlayerHistory(ctx, playerID, playerHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load player history: %w", err)
	}

	history := &models.PlayerHistory{PlayerID: playerID, Days: days}
	for _, d := range days {
		history.TotalWins += d.Wins
		history.TotalLosses += d.Losses
	}
	history.WinRate = winRate(history.TotalWins, history.TotalLosses)
	return history, nil
}

// winRate is the rounded percentage of games won, 0 with no games.
func winRate(wins, losses int) int {
	played := wins + losses
	if played == 0 {
		return 0
	}
	return int(math.Round(float64(wins) / float64(played) * 100))
}
