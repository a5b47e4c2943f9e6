package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/kotc-scoreboard/models"
	"github.com/Dosada05/kotc-scoreboard/repositories"
	"github.com/Dosada05/kotc-scoreboard/storage"
	"github.com/Dosada05/kotc-scoreboard/utils"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const maxPlayerNameLength = 40

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

type PlayerService interface {
	List(ctx context.Context) ([]*models.Player, error)
	Create(ctx context.Context, name string) (*models.Player, error)
	UploadAvatar(ctx context.Context, playerID, filename, contentType string, file io.Reader) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	notifier   Notifier
	logger     *slog.Logger
}

// NewPlayerService builds the service. uploader may be nil, in which case
// avatar uploads are refused.
func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader, notifier Notifier, logger *slog.Logger) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
		notifier:   notifier,
		logger:     logger.With(slog.String("service", "player")),
	}
}

// List returns the roster sorted by name in Spanish collation order.
func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	players, err := s.playerRepo.ListWithTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	// Collators keep internal buffers and are not safe for concurrent use.
	collator := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(players, func(i, j int) bool {
		return collator.CompareString(players[i].Name, players[j].Name) < 0
	})
	return players, nil
}

func (s *playerService) Create(ctx context.Context, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}
	if utf8.RuneCountInString(name) > maxPlayerNameLength {
		return nil, ErrPlayerNameTooLong
	}

	player := &models.Player{Name: name}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			return nil, ErrPlayerNameConflict
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.logger.Info("player created", slog.String("player_id", player.ID))
	s.notifier.Publish(TopicCup, TopicLeague)
	return player, nil
}

func (s *playerService) UploadAvatar(ctx context.Context, playerID, filename, contentType string, file io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrAvatarsDisabled
	}
	if !allowedAvatarTypes[contentType] {
		return nil, ErrAvatarInvalid
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	oldKey := utils.DerefString(player.AvatarKey)

	key := utils.AvatarKey(player.ID, player.Name, filename)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.playerRepo.UpdateAvatar(ctx, player.ID, &result.Key, &result.Location); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	player.AvatarKey = &result.Key
	player.AvatarURL = &result.Location

	if oldKey != "" && oldKey != result.Key {
		if err := s.uploader.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("failed to delete previous avatar", slog.String("key", oldKey), slog.Any("error", err))
		}
	}

	s.notifier.Publish(TopicCup, TopicLeague)
	return player, nil
}
