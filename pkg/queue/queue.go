package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// keyPrefix namespaces all pipeline queue keys in Redis.
	keyPrefix = "pipeline:"
	// ScheduledKey is the sorted set of jobs waiting out their retry delay.
	ScheduledKey = keyPrefix + "scheduled"
	// DLQKey is the dead-letter queue for jobs that exhausted their retries.
	DLQKey = keyPrefix + "dlq"

	// DefaultMaxAttempts is the number of attempts before a job moves to the DLQ.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed delay between attempts.
	DefaultRetryDelay = 5 * time.Minute

	// dequeueBlock bounds BLPOP so workers can observe context cancellation.
	dequeueBlock = 2 * time.Second
)

// Stage identifies one phase of the video pipeline.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageDraft     Stage = "draft"
	StageNotify    Stage = "notify"
)

// Stages lists all pipeline stages in chain order.
var Stages = []Stage{StageExtract, StageSummarize, StageDraft, StageNotify}

// Key returns the Redis list key for the stage.
func (s Stage) Key() string {
	return keyPrefix + string(s)
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageExtract, StageSummarize, StageDraft, StageNotify:
		return true
	}
	return false
}

// Job is the work-item envelope carried through Redis. The payload is just the
// video ID; stages load everything else from the record store.
type Job struct {
	ID        string    `json:"id"`
	Stage     Stage     `json:"stage"`
	VideoID   string    `json:"video_id"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`
	// Reason is set when the job lands in the DLQ.
	Reason string `json:"reason,omitempty"`
}

// Queue enqueues and dequeues stage jobs via Redis. Delivery is at-least-once:
// duplicate jobs for the same video ID are an accepted operating condition and
// are absorbed by the stages' idempotent re-entry checks.
type Queue struct {
	client      *redis.Client
	logger      *zap.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// NewQueue creates a Redis-backed stage queue with the default retry policy.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		client:      client,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
}

// WithRetryPolicy overrides max attempts and the fixed retry delay.
func (q *Queue) WithRetryPolicy(maxAttempts int, delay time.Duration) *Queue {
	if maxAttempts > 0 {
		q.maxAttempts = maxAttempts
	}
	if delay > 0 {
		q.retryDelay = delay
	}
	return q
}

// Enqueue pushes a fresh job for the stage. Safe to call more than once for
// the same video ID.
func (q *Queue) Enqueue(ctx context.Context, stage Stage, videoID string) error {
	if !stage.Valid() {
		return fmt.Errorf("unknown stage: %s", stage)
	}
	job := Job{
		ID:        uuid.New().String(),
		Stage:     stage,
		VideoID:   videoID,
		Attempt:   0,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, stage.Key(), raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", stage, err)
	}
	q.logger.Debug("enqueued stage job",
		zap.String("job_id", job.ID),
		zap.String("stage", string(stage)),
		zap.String("video_id", videoID),
	)
	return nil
}

// Dequeue blocks briefly for a job on the stage's list. Returns (nil, nil)
// when no job arrived within the window.
func (q *Queue) Dequeue(ctx context.Context, stage Stage) (*Job, error) {
	result, err := q.client.BLPop(ctx, dequeueBlock, stage.Key()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry schedules the job for another attempt after the fixed delay. When the
// attempt budget is exhausted the job moves to the DLQ instead; dead reports
// which happened.
func (q *Queue) Retry(ctx context.Context, job *Job) (dead bool, err error) {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job: %w", err)
	}
	if job.Attempt >= q.maxAttempts {
		if err := q.client.RPush(ctx, DLQKey, raw).Err(); err != nil {
			return false, fmt.Errorf("dlq push: %w", err)
		}
		q.logger.Warn("job moved to DLQ",
			zap.String("job_id", job.ID),
			zap.String("stage", string(job.Stage)),
			zap.String("video_id", job.VideoID),
			zap.Int("attempt", job.Attempt),
		)
		return true, nil
	}
	readyAt := time.Now().Add(q.retryDelay)
	if err := q.client.ZAdd(ctx, ScheduledKey, redis.Z{
		Score:  float64(readyAt.Unix()),
		Member: raw,
	}).Err(); err != nil {
		return false, fmt.Errorf("schedule retry: %w", err)
	}
	q.logger.Info("job scheduled for retry",
		zap.String("job_id", job.ID),
		zap.String("stage", string(job.Stage)),
		zap.Int("attempt", job.Attempt),
		zap.Time("ready_at", readyAt),
	)
	return false, nil
}

// DeadLetter moves the job straight to the DLQ without retrying, recording
// why. Used for failures that retrying cannot fix.
func (q *Queue) DeadLetter(ctx context.Context, job *Job, reason string) error {
	job.Reason = reason
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, DLQKey, raw).Err(); err != nil {
		return fmt.Errorf("dlq push: %w", err)
	}
	q.logger.Warn("job dead-lettered",
		zap.String("job_id", job.ID),
		zap.String("stage", string(job.Stage)),
		zap.String("video_id", job.VideoID),
		zap.String("reason", reason),
	)
	return nil
}

// PromoteDue moves scheduled jobs whose delay has elapsed back onto their
// stage list. Called periodically by the worker.
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	members, err := q.client.ZRangeByScore(ctx, ScheduledKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("range scheduled: %w", err)
	}
	promoted := 0
	for _, raw := range members {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil || !job.Stage.Valid() {
			_ = q.client.ZRem(ctx, ScheduledKey, raw).Err()
			continue
		}
		// Remove first so a concurrent promoter cannot double-deliver; a
		// removed-but-unpushed job on crash is redelivered by the stage's
		// idempotent re-entry on manual re-trigger.
		removed, err := q.client.ZRem(ctx, ScheduledKey, raw).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, job.Stage.Key(), raw).Err(); err != nil {
			return promoted, fmt.Errorf("promote job %s: %w", job.ID, err)
		}
		promoted++
	}
	return promoted, nil
}

// DeadLetters returns up to limit jobs from the DLQ without removing them.
func (q *Queue) DeadLetters(ctx context.Context, limit int64) ([]Job, error) {
	raws, err := q.client.LRange(ctx, DLQKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange dlq: %w", err)
	}
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
