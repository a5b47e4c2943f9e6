package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/kotc-scoreboard/realtime"
	"github.com/go-co-op/gocron/v2"
)

// Topic names a part of the scoreboard whose snapshot must be rebuilt.
type Topic string

const (
	TopicCup    Topic = "cup"
	TopicLeague Topic = "league"
)

// Notifier is told about every accepted write.
type Notifier interface {
	Publish(topics ...Topic)
}

// Broadcaster is implemented by *realtime.Hub.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// TopicsForTable maps a changed table (the NOTIFY payload) to the snapshots it
// affects. Unknown or empty names refresh everything.
func TopicsForTable(table string) []Topic {
	switch table {
	case "cups", "cup_players":
		return []Topic{TopicCup}
	case "daily_stats", "league_standings":
		return []Topic{TopicLeague}
	default:
		return []Topic{TopicCup, TopicLeague}
	}
}

// RealtimeService rebuilds snapshots after changes and pushes them to the
// hub rooms. Bursts of notifications are coalesced into one rebuild per topic.
type RealtimeService struct {
	hub           Broadcaster
	cupService    CupService
	leagueService LeagueService
	logger        *slog.Logger

	mu      sync.Mutex
	pending map[Topic]bool
	wake    chan struct{}
}

func NewRealtimeService(hub Broadcaster, logger *slog.Logger) *RealtimeService {
	return &RealtimeService{
		hub:     hub,
		logger:  logger.With(slog.String("component", "realtime")),
		pending: make(map[Topic]bool),
		wake:    make(chan struct{}, 1),
	}
}

// Attach sets the services used to rebuild snapshots. The services publish
// to this notifier, so they are wired after construction.
func (s *RealtimeService) Attach(cupService CupService, leagueService LeagueService) {
	s.cupService = cupService
	s.leagueService = leagueService
}

func (s *RealtimeService) Publish(topics ...Topic) {
	s.mu.Lock()
	for _, t := range topics {
		s.pending[t] = true
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// HandleTableChange is the callback for realtime.Listener.
func (s *RealtimeService) HandleTableChange(table string) {
	s.logger.Debug("table changed", slog.String("table", table))
	s.Publish(TopicsForTable(table)...)
}

// Run processes published topics until ctx is done.
func (s *RealtimeService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			for _, topic := range s.drain() {
				if err := s.Refresh(ctx, topic); err != nil {
					s.logger.Error("failed to refresh snapshot", slog.String("topic", string(topic)), slog.Any("error", err))
				}
			}
		}
	}
}

func (s *RealtimeService) drain() []Topic {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics := make([]Topic, 0, len(s.pending))
	for _, t := range []Topic{TopicCup, TopicLeague} {
		if s.pending[t] {
			topics = append(topics, t)
		}
	}
	s.pending = make(map[Topic]bool)
	return topics
}

// Refresh rebuilds one snapshot and broadcasts it to its room.
func (s *RealtimeService) Refresh(ctx context.Context, topic Topic) error {
	switch topic {
	case TopicCup:
		if s.cupService == nil {
			return nil
		}
		board, err := s.cupService.GetBoard(ctx)
		if err != nil {
			return fmt.Errorf("failed to build cup board: %w", err)
		}
		s.hub.BroadcastToRoom(realtime.RoomCup, realtime.WebSocketMessage{
			Type:    realtime.MessageCupUpdated,
			Payload: board,
			RoomID:  realtime.RoomCup,
		})
	case TopicLeague:
		if s.leagueService == nil {
			return nil
		}
		board, err := s.leagueService.Leaderboard(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to build leaderboard: %w", err)
		}
		s.hub.BroadcastToRoom(realtime.RoomLeague, realtime.WebSocketMessage{
			Type:    realtime.MessageLeaderboardUpdated,
			Payload: board,
			RoomID:  realtime.RoomLeague,
		})
	default:
		return fmt.Errorf("unknown topic %q", topic)
	}
	return nil
}

// ScheduleResync republishes every snapshot on a fixed interval, covering
// notifications lost while the listener was reconnecting.
func (s *RealtimeService) ScheduleResync(scheduler gocron.Scheduler, interval time.Duration) error {
	_, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.Publish(TopicCup, TopicLeague)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule resync job: %w", err)
	}
	return nil
}
