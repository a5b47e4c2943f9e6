package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/kotc-scoreboard/models"
	"github.com/lib/pq"
)

var (
	ErrCupNotFound          = errors.New("cup not found")
	ErrCupFinalsModeLocked  = errors.New("cup finals mode already chosen")
	ErrCupWinnerInvalid     = errors.New("cup winner conflict or invalid")
	ErrCupPlayerInvalid     = errors.New("cup player conflict or invalid")
	ErrCupAlreadyFinished   = errors.New("cup already finished")
	ErrCupAssignmentMissing = errors.New("no group assignments to insert")
)

type CupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, cup *models.Cup) error
	// GetLatest returns the most recently created edition.
	GetLatest(ctx context.Context, exec SQLExecutor) (*models.Cup, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.CupStatus) error
	// SetFinalsMode moves the cup into the finals. It only succeeds while no
	// mode has been chosen.
	SetFinalsMode(ctx context.Context, exec SQLExecutor, id string, mode models.FinalsMode) error
	Finish(ctx context.Context, exec SQLExecutor, id string, winnerID string) error
	IncrementCupWins(ctx context.Context, exec SQLExecutor, playerID string) error

	ListPlayers(ctx context.Context, exec SQLExecutor, cupID string) ([]*models.CupPlayer, error)
	// ReplacePlayers swaps the whole draw for the cup.
	ReplacePlayers(ctx context.Context, exec SQLExecutor, cupID string, assignments []*models.CupPlayer) error
}

type postgresCupRepository struct {
	db *sql.DB
}

func NewPostgresCupRepository(db *sql.DB) CupRepository {
	return &postgresCupRepository{db: db}
}

func (r *postgresCupRepository) Create(ctx context.Context, exec SQLExecutor, cup *models.Cup) error {
	if cup.FinalsMode == "" {
		cup.FinalsMode = models.FinalsModeNone
	}
	query := `
		INSERT INTO cups (name, status, finals_mode)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query, cup.Name, cup.Status, cup.FinalsMode).
		Scan(&cup.ID, &cup.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cup %q: %w", cup.Name, err)
	}
	return nil
}

func (r *postgresCupRepository) GetLatest(ctx context.Context, exec SQLExecutor) (*models.Cup, error) {
	query := `
		SELECT id, name, status, finals_mode, winner_id, created_at
		FROM cups
		ORDER BY created_at DESC
		LIMIT 1`

	cup := &models.Cup{}
	err := executor(r.db, exec).QueryRowContext(ctx, query).Scan(
		&cup.ID, &cup.Name, &cup.Status, &cup.FinalsMode, &cup.WinnerID, &cup.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCupNotFound
		}
		return nil, fmt.Errorf("failed to get latest cup: %w", err)
	}
	return cup, nil
}

func (r *postgresCupRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	var n int
	if err := executor(r.db, exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM cups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cups: %w", err)
	}
	return n, nil
}

func (r *postgresCupRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.CupStatus) error {
	result, err := executor(r.db, exec).ExecContext(ctx, `UPDATE cups SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of cup %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrCupNotFound)
}

func (r *postgresCupRepository) SetFinalsMode(ctx context.Context, exec SQLExecutor, id string, mode models.FinalsMode) error {
	query := `
		UPDATE cups SET finals_mode = $1, status = $2
		WHERE id = $3 AND finals_mode = $4`
	result, err := executor(r.db, exec).ExecContext(ctx, query, mode, models.CupStatusFinals, id, models.FinalsModeNone)
	if err != nil {
		return fmt.Errorf("failed to set finals mode of cup %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrCupFinalsModeLocked)
}

func (r *postgresCupRepository) Finish(ctx context.Context, exec SQLExecutor, id string, winnerID string) error {
	query := `
		UPDATE cups SET status = $1, winner_id = $2
		WHERE id = $3 AND status <> $1`
	result, err := executor(r.db, exec).ExecContext(ctx, query, models.CupStatusFinished, winnerID, id)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrCupWinnerInvalid
		}
		return fmt.Errorf("failed to finish cup %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrCupAlreadyFinished)
}

func (r *postgresCupRepository) IncrementCupWins(ctx context.Context, exec SQLExecutor, playerID string) error {
	if _, err := executor(r.db, exec).ExecContext(ctx, `SELECT increment_cup_wins($1)`, playerID); err != nil {
		return fmt.Errorf("increment_cup_wins(%s) failed: %w", playerID, err)
	}
	return nil
}

func (r *postgresCupRepository) ListPlayers(ctx context.Context, exec SQLExecutor, cupID string) ([]*models.CupPlayer, error) {
	query := `
		SELECT cup_id, player_id, group_name
		FROM cup_players
		WHERE cup_id = $1
		ORDER BY group_name, player_id`

	rows, err := executor(r.db, exec).QueryContext(ctx, query, cupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players of cup %s: %w", cupID, err)
	}
	defer rows.Close()

	assignments := make([]*models.CupPlayer, 0)
	for rows.Next() {
		cp := &models.CupPlayer{}
		if err := rows.Scan(&cp.CupID, &cp.PlayerID, &cp.Group); err != nil {
			return nil, fmt.Errorf("failed to scan cup player: %w", err)
		}
		assignments = append(assignments, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *postgresCupRepository) ReplacePlayers(ctx context.Context, exec SQLExecutor, cupID string, assignments []*models.CupPlayer) error {
	if len(assignments) == 0 {
		return ErrCupAssignmentMissing
	}
	ex := executor(r.db, exec)

	if _, err := ex.ExecContext(ctx, `DELETE FROM cup_players WHERE cup_id = $1`, cupID); err != nil {
		return fmt.Errorf("failed to clear draw of cup %s: %w", cupID, err)
	}

	playerIDs := make([]string, len(assignments))
	groups := make([]string, len(assignments))
	for i, a := range assignments {
		playerIDs[i] = a.PlayerID
		groups[i] = string(a.Group)
	}

	query := `
		INSERT INTO cup_players (cup_id, player_id, group_name)
		SELECT $1, p, g FROM unnest($2::uuid[], $3::text[]) AS d(p, g)`
	if _, err := ex.ExecContext(ctx, query, cupID, pq.Array(playerIDs), pq.Array(groups)); err != nil {
		if pqErr, ok := pqError(err); ok && (pqErr.Code == pqForeignKeyViolation || pqErr.Code == pqUniqueViolation) {
			return ErrCupPlayerInvalid
		}
		return fmt.Errorf("failed to insert draw of cup %s: %w", cupID, err)
	}
	return nil
}
