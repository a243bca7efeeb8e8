package workers

import (
	"context"
	"fmt"

	"github.com/rfpflow/rfpflow-backend/internal/answering"
	"github.com/rfpflow/rfpflow-backend/internal/export"
	"github.com/rfpflow/rfpflow-backend/internal/ingestion"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
)

// Dispatcher binds each queue's jobs to the engine that serves them.
type Dispatcher struct {
	Documents *ingestion.DocumentProcessor
	QAPairs   *ingestion.QAPairProcessor
	Answers   *answering.Engine
	Exports   *export.Worker
}

func (d *Dispatcher) HandleDocumentJob(ctx context.Context, job queue.Job) error {
	if job.DocumentID == nil {
		return fmt.Errorf("document job without document_id")
	}
	return d.Documents.Process(ctx, job.TenantID, *job.DocumentID, job.ProcessingVersion)
}

func (d *Dispatcher) HandleQuestionJob(ctx context.Context, job queue.Job) error {
	if job.QuestionID == nil {
		return fmt.Errorf("question job without question_id")
	}
	return d.Answers.AnswerQuestion(ctx, job.TenantID, *job.QuestionID)
}

func (d *Dispatcher) HandleExportJob(ctx context.Context, job queue.Job) error {
	if job.ExportJobID == nil {
		return fmt.Errorf("export job without export_job_id")
	}
	return d.Exports.Run(ctx, job.TenantID, *job.ExportJobID)
}

func (d *Dispatcher) HandleQAPairJob(ctx context.Context, job queue.Job) error {
	if job.QAPairID == nil {
		return fmt.Errorf("qa pair job without qa_pair_id")
	}
	return d.QAPairs.Process(ctx, job.TenantID, *job.QAPairID)
}
