package workers

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
)

// Handler processes one dequeued job. Errors are logged, never fatal:
// a failed job marks its entity, it does not kill the loop.
type Handler func(ctx context.Context, job queue.Job) error

// Consumer runs a blocking dequeue loop over a single queue.
type Consumer struct {
	log       *logger.Logger
	jobs      queue.Queue
	queueName string
	handler   Handler
	popWait   time.Duration
}

func NewConsumer(log *logger.Logger, jobs queue.Queue, queueName string, handler Handler) *Consumer {
	return &Consumer{
		log:       log.With("service", "QueueConsumer", "queue", queueName),
		jobs:      jobs,
		queueName: queueName,
		handler:   handler,
		popWait:   5 * time.Second,
	}
}

// Run blocks until ctx is cancelled. Handler panics are recovered so a
// poisoned job cannot take the worker down.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped")
			return ctx.Err()
		default:
		}

		job, err := c.jobs.Dequeue(ctx, c.queueName, c.popWait)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		c.handle(ctx, *job)
	}
}

func (c *Consumer) handle(ctx context.Context, job queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("handler panicked",
				"job_type", job.JobType,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	if err := c.handler(ctx, job); err != nil {
		c.log.Error("job failed", "job_type", job.JobType, "error", err, "took", time.Since(start))
		return
	}
	c.log.Debug("job done", "job_type", job.JobType, "took", time.Since(start))
}
