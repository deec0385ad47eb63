package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidscribe/backend/internal/models"
	"github.com/vidscribe/backend/pkg/queue"
)

func newWorkerQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return queue.NewQueue(client, nil)
}

func TestProcessPermanentFailureGoesToDLQ(t *testing.T) {
	q := newWorkerQueue(t)
	e := newEnv() // no video record: extract fails permanently
	w := NewWorker(q, e.tasks, nil)

	job := &queue.Job{ID: "j1", Stage: queue.StageExtract, VideoID: "abc123"}
	w.process(context.Background(), job)

	letters, err := q.DeadLetters(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, "abc123", letters[0].VideoID)
	assert.NotEmpty(t, letters[0].Reason)
}

func TestProcessTransientFailureSchedulesRetry(t *testing.T) {
	q := newWorkerQueue(t)
	e := newEnv()
	e.addVideo("abc123", "Building Pipelines")
	e.source.err = assert.AnError
	w := NewWorker(q, e.tasks, nil)

	job := &queue.Job{ID: "j1", Stage: queue.StageExtract, VideoID: "abc123"}
	w.process(context.Background(), job)

	letters, err := q.DeadLetters(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, letters)

	// The retry becomes visible once its delay elapses.
	n, err := q.PromoteDue(context.Background(), time.Now().Add(queue.DefaultRetryDelay+time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessSuccessEmitsNoRetry(t *testing.T) {
	q := newWorkerQueue(t)
	e := newEnv()
	e.addVideo("abc123", "Building Pipelines")
	e.posts.rows["abc123"] = &models.Post{VideoID: "abc123", Title: "Draft", Status: models.StatusDraft}
	w := NewWorker(q, e.tasks, nil)

	w.process(context.Background(), &queue.Job{ID: "j1", Stage: queue.StageNotify, VideoID: "abc123"})

	letters, err := q.DeadLetters(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, letters)
	assert.Len(t, e.notifier.sent, 1)
}
