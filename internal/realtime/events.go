package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vidscribe/backend/pkg/queue"
)

// EventsChannel is the Redis pub/sub channel carrying stage events from the
// worker process to the API process.
const EventsChannel = "pipeline:events"

// StageEvent is one pipeline progress update.
type StageEvent struct {
	Stage     string    `json:"stage"`
	VideoID   string    `json:"video_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends stage events into Redis pub/sub. Used by the worker,
// which has no websocket clients of its own.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger}
}

// PublishStageEvent broadcasts a stage update. Failures are logged only;
// event delivery never fails a pipeline stage.
func (p *Publisher) PublishStageEvent(ctx context.Context, stage queue.Stage, videoID, status string) {
	event := StageEvent{
		Stage:     string(stage),
		VideoID:   videoID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal stage event failed", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, EventsChannel, raw).Err(); err != nil {
		p.logger.Warn("publish stage event failed", zap.Error(err))
	}
}

// Bridge subscribes to the events channel and forwards messages to the hub
// until ctx is cancelled.
func Bridge(ctx context.Context, client *redis.Client, hub *Hub, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sub := client.Subscribe(ctx, EventsChannel)
	defer sub.Close()

	logger.Info("event bridge subscribed", zap.String("channel", EventsChannel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			hub.Broadcast([]byte(msg.Payload))
		}
	}
}
