package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Listener relays Postgres NOTIFY events. Triggers on players, cups,
// cup_players, matches and daily_stats send the changed table name as the
// payload, so writes made by other clients are picked up as well.
type Listener struct {
	listener *pq.Listener
	channel  string
	logger   *slog.Logger
}

func NewListener(dsn, channel string, logger *slog.Logger) (*Listener, error) {
	logger = logger.With(slog.String("component", "pg_listener"), slog.String("channel", channel))

	reportProblem := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			logger.Warn("listener connection problem", slog.Any("error", err))
		case pq.ListenerEventReconnected:
			logger.Info("listener reconnected")
		}
	}

	l := pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect, reportProblem)
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", channel, err)
	}

	return &Listener{listener: l, channel: channel, logger: logger}, nil
}

// Run blocks until ctx is done, calling handle with the changed table name.
// After a reconnect notifications may have been missed, so handle is called
// with an empty table name to request a full refresh.
func (l *Listener) Run(ctx context.Context, handle func(table string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.listener.Notify:
			if n == nil {
				handle("")
				continue
			}
			handle(strings.TrimSpace(n.Extra))
		case <-time.After(listenerPingInterval):
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.logger.Warn("listener ping failed", slog.Any("error", err))
				}
			}()
		}
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}
