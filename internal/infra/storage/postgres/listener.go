package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fundgrove/relevance/internal/core/domain"
)

// changeChannel is the NOTIFY channel the programs table trigger fires on.
const changeChannel = "program_changes"

// Listener turns Postgres LISTEN/NOTIFY on the programs table into domain
// change events. It holds a dedicated connection outside the pool, since a
// listening connection cannot serve queries.
type Listener struct {
	url string
}

// NewListener creates a change-feed listener for the given database URL.
func NewListener(url string) *Listener {
	return &Listener{url: url}
}

// Listen connects and dispatches notifications until the context is
// cancelled. Lost connections are retried with a fixed backoff.
func (l *Listener) Listen(ctx context.Context, handler func(domain.ChangeEvent)) error {
	for {
		if err := l.listenOnce(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("change feed connection lost, reconnecting", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, handler func(domain.ChangeEvent)) error {
	conn, err := pgx.Connect(ctx, l.url)
	if err != nil {
		return fmt.Errorf("failed to connect listener: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", changeChannel, err)
	}
	slog.Info("Listening for program changes", "channel", changeChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for notification: %w", err)
		}

		var ev domain.ChangeEvent
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			slog.Warn("dropping malformed change notification", "error", err)
			continue
		}
		handler(ev)
	}
}
