package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExportJobStatus string

const (
	ExportJobStatusPending    ExportJobStatus = "pending"
	ExportJobStatusProcessing ExportJobStatus = "processing"
	ExportJobStatusCompleted  ExportJobStatus = "completed"
	ExportJobStatusFailed     ExportJobStatus = "failed"
)

type ExportJob struct {
	gorm.Model
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	DealID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"deal_id"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Status     ExportJobStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	// AnsweredCount / QuestionsCount track fill progress and end up in
	// the completed job as the final tally.
	AnsweredCount   int        `gorm:"column:answered_count;not null;default:0" json:"answered_count"`
	QuestionsCount  int        `gorm:"column:questions_count;not null;default:0" json:"questions_count"`
	OutputReference string     `gorm:"column:output_reference" json:"output_reference,omitempty"`
	OutputFilename  string     `gorm:"column:output_filename" json:"output_filename,omitempty"`
	ErrorMessage    string     `gorm:"column:error_message" json:"error_message,omitempty"`
	StartedAt       *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ExportJob) TableName() string {
	return "export_job"
}
