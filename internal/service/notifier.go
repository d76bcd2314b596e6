package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// Notifier delivers workflow events to interested consumers. Delivery is
// best-effort: the mutation has already committed when Publish runs, so
// failures are logged rather than propagated.
type Notifier interface {
	Publish(ctx context.Context, event models.WorkflowEvent)
}

// RedisNotifier publishes events on per-type redis channels.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisNotifier constructs a notifier publishing on "<prefix>.<EventType>".
func NewRedisNotifier(client *redis.Client, prefix string, logger *zap.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = "workflow"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, prefix: prefix, logger: logger}
}

// Publish serializes the event and publishes it on the type channel.
func (n *RedisNotifier) Publish(ctx context.Context, event models.WorkflowEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("marshal workflow event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	channel := fmt.Sprintf("%s.%s", n.prefix, event.Type)
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		n.logger.Warn("publish workflow event",
			zap.String("channel", channel),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

// NopNotifier discards events.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(context.Context, models.WorkflowEvent) {}
