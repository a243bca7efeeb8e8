package queue

import (
	"time"

	"github.com/google/uuid"
)

// Queue names. Each worker loop consumes exactly one.
const (
	QueueDocumentProcessing = "document_processing"
	QueueQuestionProcessing = "question_processing"
	QueueExportJobs         = "export_jobs"
	QueueQAPairProcessing   = "qa_pair_processing"
)

type JobType string

const (
	JobTypeProcessDocument JobType = "process_document"
	JobTypeAnswerQuestion  JobType = "answer_question"
	JobTypeExportDeal      JobType = "export_deal"
	JobTypeProcessQAPair   JobType = "process_qa_pair"
)

// Job is the wire payload pushed onto a queue. Exactly one of the
// entity ID fields is set, matching the JobType. ProcessingVersion
// rides along for document jobs so a handler can detect that a newer
// reprocess superseded it.
type Job struct {
	JobType           JobType    `json:"job_type"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	DocumentID        *uuid.UUID `json:"document_id,omitempty"`
	QuestionID        *uuid.UUID `json:"question_id,omitempty"`
	DealID            *uuid.UUID `json:"deal_id,omitempty"`
	ExportJobID       *uuid.UUID `json:"export_job_id,omitempty"`
	QAPairID          *uuid.UUID `json:"qa_pair_id,omitempty"`
	ProcessingVersion int        `json:"processing_version,omitempty"`
	EnqueuedAt        time.Time  `json:"enqueued_at"`
}
