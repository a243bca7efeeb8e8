package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
)

// scriptedQueue hands out a fixed job sequence, then cancels the
// consumer's context so Run returns.
type scriptedQueue struct {
	mu     sync.Mutex
	jobs   []queue.Job
	cancel context.CancelFunc
}

func (q *scriptedQueue) Enqueue(context.Context, string, queue.Job) error { return nil }

func (q *scriptedQueue) Dequeue(context.Context, string, time.Duration) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		q.cancel()
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

func (q *scriptedQueue) Length(context.Context, string) (int64, error) { return 0, nil }
func (q *scriptedQueue) Clear(context.Context, string) error           { return nil }

func TestConsumerSurvivesPanicAndKeepsGoing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := uuid.New()
	second := uuid.New()
	q := &scriptedQueue{
		jobs: []queue.Job{
			{JobType: queue.JobTypeProcessDocument, DocumentID: &first},
			{JobType: queue.JobTypeProcessDocument, DocumentID: &second},
		},
		cancel: cancel,
	}

	var handled []uuid.UUID
	consumer := NewConsumer(logger.NewNop(), q, queue.QueueDocumentProcessing, func(_ context.Context, job queue.Job) error {
		handled = append(handled, *job.DocumentID)
		if *job.DocumentID == first {
			panic("poisoned job")
		}
		return nil
	})

	if err := consumer.Run(ctx); err != context.Canceled {
		t.Fatalf("Run: want context.Canceled got %v", err)
	}
	if len(handled) != 2 {
		t.Fatalf("handled: want=2 got=%d", len(handled))
	}
	if handled[1] != second {
		t.Fatalf("second job not reached after panic")
	}
}

func TestConsumerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := &scriptedQueue{cancel: cancel}

	consumer := NewConsumer(logger.NewNop(), q, queue.QueueQuestionProcessing, func(context.Context, queue.Job) error {
		t.Fatalf("handler must not run for an empty queue")
		return nil
	})
	if err := consumer.Run(ctx); err != context.Canceled {
		t.Fatalf("Run: want context.Canceled got %v", err)
	}
}

func TestDispatcherRejectsMalformedJobs(t *testing.T) {
	d := &Dispatcher{}
	ctx := context.Background()
	if err := d.HandleDocumentJob(ctx, queue.Job{JobType: queue.JobTypeProcessDocument}); err == nil {
		t.Fatalf("expected error for missing document_id")
	}
	if err := d.HandleQuestionJob(ctx, queue.Job{JobType: queue.JobTypeAnswerQuestion}); err == nil {
		t.Fatalf("expected error for missing question_id")
	}
	if err := d.HandleExportJob(ctx, queue.Job{JobType: queue.JobTypeExportDeal}); err == nil {
		t.Fatalf("expected error for missing export_job_id")
	}
	if err := d.HandleQAPairJob(ctx, queue.Job{JobType: queue.JobTypeProcessQAPair}); err == nil {
		t.Fatalf("expected error for missing qa_pair_id")
	}
}
