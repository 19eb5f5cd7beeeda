package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StatusEvent is emitted after an issue's status actually changed.
type StatusEvent struct {
	ID      string    `json:"id"`
	IssueID string    `json:"issueId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

// Notifier delivers status-change events best-effort. Implementations must
// never propagate failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, issueID string, status string)
}

// RedisNotifier publishes events to a Redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = "issue-status-events"
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, issueID string, status string) {
	event := StatusEvent{
		ID:      uuid.NewString(),
		IssueID: issueID,
		Status:  status,
		At:      time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode status event")
		return
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"issue":  issueID,
			"status": status,
		}).Error("Failed to publish status event")
	}
}

// LogNotifier is the fallback when no pub/sub transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, issueID string, status string) {
	logrus.WithFields(logrus.Fields{
		"issue":  issueID,
		"status": status,
	}).Info("Issue status changed")
}
