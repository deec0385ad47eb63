package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vidscribe/backend/pkg/queue"
)

const promoteInterval = 15 * time.Second

// Worker consumes stage queues and runs the stage handlers. One goroutine
// per stage plus a promoter that moves delayed retries back onto their
// stage list.
type Worker struct {
	queue  *queue.Queue
	tasks  *Tasks
	logger *zap.Logger

	wg sync.WaitGroup
}

func NewWorker(q *queue.Queue, tasks *Tasks, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, tasks: tasks, logger: logger}
}

// Start launches the stage consumers and the retry promoter. It returns
// immediately; Wait blocks until ctx is cancelled and all loops drain.
func (w *Worker) Start(ctx context.Context) {
	for _, stage := range queue.Stages {
		w.wg.Add(1)
		go func(stage queue.Stage) {
			defer w.wg.Done()
			w.consume(ctx, stage)
		}(stage)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.promote(ctx)
	}()

	w.logger.Info("pipeline worker started", zap.Int("stages", len(queue.Stages)))
}

// Wait blocks until all consumer loops have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) consume(ctx context.Context, stage queue.Stage) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, stage)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed",
				zap.String("stage", string(stage)), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	log := w.logger.With(
		zap.String("job_id", job.ID),
		zap.String("stage", string(job.Stage)),
		zap.String("video_id", job.VideoID),
		zap.Int("attempt", job.Attempt),
	)
	log.Info("processing job")

	err := w.tasks.Run(ctx, job)
	if err == nil {
		log.Info("job completed")
		return
	}

	if IsPermanent(err) {
		log.Error("job failed permanently", zap.Error(err))
		if derr := w.queue.DeadLetter(ctx, job, err.Error()); derr != nil {
			log.Error("failed to dead-letter job", zap.Error(derr))
		}
		return
	}

	log.Warn("job failed, scheduling retry", zap.Error(err))
	dead, rerr := w.queue.Retry(ctx, job)
	if rerr != nil {
		log.Error("failed to schedule retry", zap.Error(rerr))
		return
	}
	if dead {
		log.Error("job exhausted retries", zap.Error(err))
	}
}

func (w *Worker) promote(ctx context.Context) {
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := w.queue.PromoteDue(ctx, now)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("promoting scheduled jobs failed", zap.Error(err))
				continue
			}
			if n > 0 {
				w.logger.Info("promoted scheduled jobs", zap.Int("count", n))
			}
		}
	}
}
