package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/models"
)

// Channel carries name events between instances.
const Channel = "names:events"

const maxBackoff = 30 * time.Second

// RedisFanout delivers name events to the local hub directly and shares them
// with other instances over Channel. Events tagged with this instance's id are
// not relayed a second time.
type RedisFanout struct {
	client *redis.Client
	hub    *Hub
	log    *slog.Logger
	id     string
}

func NewRedisFanout(client *redis.Client, hub *Hub, log *slog.Logger) *RedisFanout {
	return &RedisFanout{
		client: client,
		hub:    hub,
		log:    logger.Module(log, "fanout"),
		id:     uuid.NewString(),
	}
}

// PublishName broadcasts entry to this instance's clients, then publishes it
// for the others. Local clients get the event even while the subscriber is
// reconnecting or Redis is down.
func (f *RedisFanout) PublishName(ctx context.Context, entry models.NameEntry) error {
	evt := NameCreated(entry)
	f.hub.Broadcast(evt)

	evt.Origin = f.id
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, Channel, data).Err()
}

// Run subscribes to Channel until ctx is cancelled, resubscribing with
// exponential backoff when the subscription breaks.
func (f *RedisFanout) Run(ctx context.Context) {
	backoff := time.Second
	for {
		subscribed, err := f.subscribe(ctx)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			backoff = time.Second
		}
		f.log.Warn("redis subscriber error", "error", err, "retry_in", backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// subscribe reports whether the subscription was confirmed before it failed.
func (f *RedisFanout) subscribe(ctx context.Context) (bool, error) {
	pubsub := f.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	// Receive blocks until the subscription is confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return false, err
	}
	f.log.Info("✅ live-feed subscriber started", "channel", Channel)

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return true, err
		}
		if err := f.handleMessage(msg.Payload); err != nil {
			f.log.Warn("failed to decode name event", "error", err)
		}
	}
}

func (f *RedisFanout) handleMessage(payload string) error {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return err
	}
	if evt.Origin == f.id {
		return nil
	}
	evt.Origin = ""
	f.hub.Broadcast(evt)
	return nil
}
