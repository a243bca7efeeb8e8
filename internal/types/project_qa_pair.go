package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectQAPair is a curated knowledge-base entry embedded alongside
// document chunks. The combined "Question: …\n\nAnswer: …" text is what
// gets vectorized.
type ProjectQAPair struct {
	gorm.Model
	ID                  uuid.UUID                `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID            uuid.UUID                `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProjectID           uuid.UUID                `gorm:"type:uuid;not null;index" json:"project_id"`
	Question            string                   `gorm:"column:question;not null" json:"question"`
	Answer              string                   `gorm:"column:answer;not null" json:"answer"`
	ProcessingStatus    QuestionProcessingStatus `gorm:"column:processing_status;not null;default:'pending';index" json:"processing_status"`
	ProcessingError     string                   `gorm:"column:processing_error" json:"processing_error,omitempty"`
	ProcessingStartedAt *time.Time               `gorm:"column:processing_started_at" json:"processing_started_at,omitempty"`
	CreatedAt           time.Time                `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time                `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProjectQAPair) TableName() string {
	return "project_qa_pair"
}
