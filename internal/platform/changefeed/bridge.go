package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Bridge publishes locally and fans events out to other instances through
// Postgres NOTIFY. Listen republishes notifications that originated
// elsewhere.
type Bridge struct {
	Hub     *Hub
	DB      *pgxpool.Pool
	Channel string
	origin  string
}

func NewBridge(hub *Hub, db *pgxpool.Pool, channel string) *Bridge {
	return &Bridge{Hub: hub, DB: db, Channel: channel, origin: uuid.NewString()}
}

func (b *Bridge) Origin() string {
	return b.origin
}

func (b *Bridge) Publish(evt Event) {
	evt.Origin = b.origin
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.Hub.Publish(evt)

	if b.DB == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("changefeed encode failed", "collection", evt.Collection, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := b.DB.Exec(ctx, "SELECT pg_notify($1, $2)", b.Channel, string(payload)); err != nil {
		slog.Warn("changefeed notify failed", "collection", evt.Collection, "err", err)
	}
}

// Listen blocks until ctx is done, reconnecting after connection failures.
func (b *Bridge) Listen(ctx context.Context) {
	for {
		err := b.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("changefeed listener stopped, retrying", "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (b *Bridge) listenOnce(ctx context.Context) error {
	if b.DB == nil {
		return errors.New("changefeed bridge has no database")
	}
	conn, err := b.DB.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{b.Channel}.Sanitize()); err != nil {
		return err
	}
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		evt, ok := b.decode(notification.Payload)
		if !ok {
			continue
		}
		b.Hub.Publish(evt)
	}
}

// decode rejects malformed payloads and events this instance published.
func (b *Bridge) decode(payload string) (Event, bool) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		slog.Warn("changefeed decode failed", "err", err)
		return Event{}, false
	}
	if evt.Origin == b.origin || evt.Collection == "" {
		return Event{}, false
	}
	return evt, true
}
