package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/kotc-scoreboard/models"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name already exists")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id string) (*models.Player, error)
	// ListWithTotals returns every player with lifetime match and cup wins.
	ListWithTotals(ctx context.Context, exec SQLExecutor) ([]*models.Player, error)
	UpdateAvatar(ctx context.Context, id string, avatarKey, avatarURL *string) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (name)
		VALUES ($1)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query, player.Name).Scan(&player.ID, &player.CreatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pqUniqueViolation {
			return ErrPlayerNameConflict
		}
		return fmt.Errorf("failed to insert player %q: %w", player.Name, err)
	}
	return nil
}

const playerColumns = `
		p.id, p.name, p.avatar_key, p.avatar_url, p.created_at,
		COALESCE(t.total_wins, 0), COALESCE(p.cup_wins, 0)`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(&p.ID, &p.Name, &p.AvatarKey, &p.AvatarURL, &p.CreatedAt, &p.TotalWins, &p.CupWins)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `SELECT` + playerColumns + `
		FROM players p
		LEFT JOIN player_total_wins t ON t.player_id = p.id
		WHERE p.id = $1`

	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) ListWithTotals(ctx context.Context, exec SQLExecutor) ([]*models.Player, error) {
	query := `SELECT` + playerColumns + `
		FROM players p
		LEFT JOIN player_total_wins t ON t.player_id = p.id
		ORDER BY p.name`

	rows, err := executor(r.db, exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) UpdateAvatar(ctx context.Context, id string, avatarKey, avatarURL *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE players SET avatar_key = $1, avatar_url = $2 WHERE id = $3`,
		avatarKey, avatarURL, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar for player %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
