package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/kotc-scoreboard/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match player conflict or invalid")
	ErrMatchRejected      = errors.New("match rejected by the database")
)

type MatchRepository interface {
	// Create records a cup match. Ladder matches go through ReportLeague so
	// the database can score them.
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByCup(ctx context.Context, exec SQLExecutor, cupID string) ([]*models.Match, error)
	CountByCup(ctx context.Context, exec SQLExecutor, cupID string) (int, error)
	// Undo deletes a match through undo_last_match, which also reverts any
	// ladder points it earned.
	Undo(ctx context.Context, id string) error
	ReportLeague(ctx context.Context, winnerID, loserID string) (*models.MatchPoints, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (winner_id, loser_id, match_type, cup_id, cup_phase, points_awarded)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		match.WinnerID,
		match.LoserID,
		match.Type,
		match.CupID,
		match.Phase,
		match.PointsAwarded,
	).Scan(&match.ID, &match.CreatedAt)
	return r.handleMatchError(err)
}

const matchSelect = `
		SELECT m.id, m.winner_id, m.loser_id, m.match_type, m.cup_id, m.cup_phase,
		       m.points_awarded, m.created_at, COALESCE(w.name, ''), COALESCE(l.name, '')
		FROM matches m
		LEFT JOIN players w ON w.id = m.winner_id
		LEFT JOIN players l ON l.id = m.loser_id`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.WinnerID, &m.LoserID, &m.Type, &m.CupID, &m.Phase,
		&m.PointsAwarded, &m.CreatedAt, &m.WinnerName, &m.LoserName,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByCup(ctx context.Context, exec SQLExecutor, cupID string) ([]*models.Match, error) {
	rows, err := executor(r.db, exec).QueryContext(ctx, matchSelect+`
		WHERE m.cup_id = $1
		ORDER BY m.created_at, m.id`, cupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of cup %s: %w", cupID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByCup(ctx context.Context, exec SQLExecutor, cupID string) (int, error) {
	var n int
	err := executor(r.db, exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE cup_id = $1`, cupID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches of cup %s: %w", cupID, err)
	}
	return n, nil
}

func (r *postgresMatchRepository) Undo(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT undo_last_match($1)`, id); err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) ReportLeague(ctx context.Context, winnerID, loserID string) (*models.MatchPoints, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT report_match($1, $2)`, winnerID, loserID).Scan(&raw)
	if err != nil {
		return nil, r.handleMatchError(err)
	}

	var points models.MatchPoints
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to decode report_match result: %w", err)
	}
	return &points, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return ErrMatchPlayerInvalid
		case pqRaiseException:
			return fmt.Errorf("%w: %s", ErrMatchRejected, pqErr.Message)
		}
	}
	return err
}
