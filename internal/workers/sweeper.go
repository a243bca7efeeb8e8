package workers

import (
	"context"
	"time"

	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

const staleMessage = "processing timed out"

// Sweeper is the reconciliation pass: anything stuck in processing
// longer than the timeout is flipped to error/failed so it becomes
// actionable again. It backstops lost queue deliveries and crashed
// workers.
type Sweeper struct {
	log       *logger.Logger
	docs      repos.DocumentRepo
	questions repos.QuestionRepo
	pairs     repos.ProjectQAPairRepo
	exports   repos.ExportJobRepo
	notifier  *realtime.Notifier
	timeout   time.Duration
	interval  time.Duration
}

func NewSweeper(
	log *logger.Logger,
	docs repos.DocumentRepo,
	questions repos.QuestionRepo,
	pairs repos.ProjectQAPairRepo,
	exports repos.ExportJobRepo,
	notifier *realtime.Notifier,
) *Sweeper {
	return &Sweeper{
		log:       log.With("service", "ReconciliationSweeper"),
		docs:      docs,
		questions: questions,
		pairs:     pairs,
		exports:   exports,
		notifier:  notifier,
		timeout:   envutil.Duration("PROCESSING_TIMEOUT", 15*time.Minute),
		interval:  envutil.Duration("SWEEP_INTERVAL", time.Minute),
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.log.Warn("stale entities reconciled", "count", n)
			}
		}
	}
}

// Sweep runs one pass and returns how many entities it flipped.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-s.timeout)
	flipped := 0

	docs, err := s.docs.ListStaleProcessing(ctx, nil, cutoff)
	if err != nil {
		s.log.Error("stale document scan failed", "error", err)
	}
	for _, doc := range docs {
		ok, err := s.docs.MarkError(ctx, nil, doc.TenantID, doc.ID, doc.ProcessingVersion, staleMessage)
		if err != nil {
			s.log.Error("stale document flip failed", "document_id", doc.ID, "error", err)
			continue
		}
		if ok {
			flipped++
			s.notifier.DocumentStatus(ctx, doc.TenantID, doc.ID, string(types.DocumentStatusError))
		}
	}

	questions, err := s.questions.ListStaleProcessing(ctx, nil, cutoff)
	if err != nil {
		s.log.Error("stale question scan failed", "error", err)
	}
	for _, q := range questions {
		ok, err := s.questions.MarkError(ctx, nil, q.TenantID, q.ID, staleMessage)
		if err != nil {
			s.log.Error("stale question flip failed", "question_id", q.ID, "error", err)
			continue
		}
		if ok {
			flipped++
			s.notifier.QuestionStatus(ctx, q.TenantID, q.ID, string(types.QuestionStatusError))
		}
	}

	pairs, err := s.pairs.ListStaleProcessing(ctx, nil, cutoff)
	if err != nil {
		s.log.Error("stale qa pair scan failed", "error", err)
	}
	for _, pair := range pairs {
		ok, err := s.pairs.MarkError(ctx, nil, pair.TenantID, pair.ID, staleMessage)
		if err != nil {
			s.log.Error("stale qa pair flip failed", "qa_pair_id", pair.ID, "error", err)
			continue
		}
		if ok {
			flipped++
			s.notifier.QAPairStatus(ctx, pair.TenantID, pair.ID, string(types.QuestionStatusError))
		}
	}

	exports, err := s.exports.ListStaleProcessing(ctx, nil, cutoff)
	if err != nil {
		s.log.Error("stale export scan failed", "error", err)
	}
	for _, job := range exports {
		ok, err := s.exports.MarkFailed(ctx, nil, job.TenantID, job.ID, staleMessage)
		if err != nil {
			s.log.Error("stale export flip failed", "export_job_id", job.ID, "error", err)
			continue
		}
		if ok {
			flipped++
			s.notifier.ExportStatus(ctx, job.TenantID, job.ID, string(types.ExportJobStatusFailed))
		}
	}

	return flipped
}
