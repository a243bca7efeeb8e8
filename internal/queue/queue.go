package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

// Queue is an at-least-once work queue. Dequeue blocks up to timeout
// and returns (nil, nil) when nothing arrived; handlers must stay
// idempotent because a crash between dequeue and completion redelivers
// nothing. Recovery is the reconciliation sweep, not the queue.
type Queue interface {
	Enqueue(ctx context.Context, queueName string, job Job) error
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error)
	Length(ctx context.Context, queueName string) (int64, error)
	Clear(ctx context.Context, queueName string) error
}

// redisCommands is the slice of the go-redis API the queue touches,
// split out so tests can substitute a fake.
type redisCommands interface {
	LPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *goredis.StringSliceCmd
	LLen(ctx context.Context, key string) *goredis.IntCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

type redisQueue struct {
	log       *logger.Logger
	rdb       redisCommands
	keyPrefix string
}

func NewRedisQueue(log *logger.Logger) (Queue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisQueue(log, rdb), nil
}

func newRedisQueue(log *logger.Logger, rdb redisCommands) Queue {
	return &redisQueue{
		log:       log.With("service", "RedisQueue"),
		rdb:       rdb,
		keyPrefix: "rfpflow:queue:",
	}
}

func (q *redisQueue) key(queueName string) string {
	return q.keyPrefix + queueName
}

func (q *redisQueue) Enqueue(ctx context.Context, queueName string, job Job) error {
	if strings.TrimSpace(queueName) == "" {
		return fmt.Errorf("queue name is empty")
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key(queueName), raw).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", queueName, err)
	}
	q.log.Debug("job enqueued", "queue", queueName, "job_type", job.JobType)
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key(queueName)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue %s: %w", queueName, err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue %s: unexpected reply length %d", queueName, len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job from %s: %w", queueName, err)
	}
	return &job, nil
}

func (q *redisQueue) Length(ctx context.Context, queueName string) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key(queueName)).Result()
	if err != nil {
		return 0, fmt.Errorf("length %s: %w", queueName, err)
	}
	return n, nil
}

func (q *redisQueue) Clear(ctx context.Context, queueName string) error {
	if err := q.rdb.Del(ctx, q.key(queueName)).Err(); err != nil {
		return fmt.Errorf("clear %s: %w", queueName, err)
	}
	return nil
}
