package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/kotc-scoreboard/models"
)

// LeagueRepository reads the King of the Court views. All scoring lives in
// the database; this layer only reads results and triggers day closing.
type LeagueRepository interface {
	ListDailyStats(ctx context.Context, date string) ([]*models.DailyStat, error)
	CurrentKing(ctx context.Context) (*string, error)
	CloseDay(ctx context.Context) (*models.DayClosing, error)
	ListDayWinners(ctx context.Context) ([]*models.DayWinnerRank, error)
	ListTotalWins(ctx context.Context, limit int) ([]*models.TotalWinRank, error)
	ListPlayerHistory(ctx context.Context, playerID string, limit int) ([]*models.DailyStat, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) ListDailyStats(ctx context.Context, date string) ([]*models.DailyStat, error) {
	query := `
		SELECT d.date::text, d.player_id, d.points, d.wins, d.losses, d.current_streak, d.max_streak,
		       p.name, p.avatar_url
		FROM daily_stats d
		JOIN players p ON p.id = d.player_id
		WHERE d.date = $1
		ORDER BY d.points DESC`

	rows, err := r.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily stats for %s: %w", date, err)
	}
	defer rows.Close()

	stats := make([]*models.DailyStat, 0)
	for rows.Next() {
		s := &models.DailyStat{Player: &models.Player{}}
		if err := rows.Scan(
			&s.Date, &s.PlayerID, &s.Points, &s.Wins, &s.Losses, &s.CurrentStreak, &s.MaxStreak,
			&s.Player.Name, &s.Player.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		s.Player.ID = s.PlayerID
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *postgresLeagueRepository) CurrentKing(ctx context.Context) (*string, error) {
	var playerID string
	err := r.db.QueryRowContext(ctx, `SELECT player_id FROM current_king LIMIT 1`).Scan(&playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read current king: %w", err)
	}
	return &playerID, nil
}

func (r *postgresLeagueRepository) CloseDay(ctx context.Context) (*models.DayClosing, error) {
	var raw []byte
	if err := r.db.QueryRowContext(ctx, `SELECT close_day_bonus()`).Scan(&raw); err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pqRaiseException {
			return &models.DayClosing{Success: false, Message: pqErr.Message}, nil
		}
		return nil, fmt.Errorf("close_day_bonus failed: %w", err)
	}

	var closing models.DayClosing
	if err := json.Unmarshal(raw, &closing); err != nil {
		return nil, fmt.Errorf("failed to decode close_day_bonus result: %w", err)
	}
	return &closing, nil
}

func (r *postgresLeagueRepository) ListDayWinners(ctx context.Context) ([]*models.DayWinnerRank, error) {
	query := `
		SELECT s.player_id, p.name, s.day_wins
		FROM league_standings s
		JOIN players p ON p.id = s.player_id
		ORDER BY s.day_wins DESC, p.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list day winners: %w", err)
	}
	defer rows.Close()

	ranks := make([]*models.DayWinnerRank, 0)
	for rows.Next() {
		rank := &models.DayWinnerRank{}
		if err := rows.Scan(&rank.PlayerID, &rank.Name, &rank.DayWins); err != nil {
			return nil, fmt.Errorf("failed to scan day winner: %w", err)
		}
		ranks = append(ranks, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ranks, nil
}

func (r *postgresLeagueRepository) ListTotalWins(ctx context.Context, limit int) ([]*models.TotalWinRank, error) {
	query := `
		SELECT player_id, name, total_wins
		FROM player_total_wins
		ORDER BY total_wins DESC, name
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list total wins: %w", err)
	}
	defer rows.Close()

	ranks := make([]*models.TotalWinRank, 0)
	for rows.Next() {
		rank := &models.TotalWinRank{}
		if err := rows.Scan(&rank.PlayerID, &rank.Name, &rank.TotalWins); err != nil {
			return nil, fmt.Errorf("failed to scan total wins: %w", err)
		}
		ranks = append(ranks, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ranks, nil
}

func (r *postgresLeagueRepository) ListPlayerHistory(ctx context.Context, playerID string, limit int) ([]*models.DailyStat, error) {
	query := `
		SELECT date::text, player_id, points, wins, losses, current_streak, max_streak
		FROM daily_stats
		WHERE player_id = $1
		ORDER BY date DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history of player %s: %w", playerID, err)
	}
	defer rows.Close()

	days := make([]*models.DailyStat, 0)
	for rows.Next() {
		s := &models.DailyStat{}
		if err := rows.Scan(&s.Date, &s.PlayerID, &s.Points, &s.Wins, &s.Losses, &s.CurrentStreak, &s.MaxStreak); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		days = append(days, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}
