package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChangeSource string

const (
	ChangeSourceAIInitial  ChangeSource = "ai_initial"
	ChangeSourceUserCreate ChangeSource = "user_create"
	ChangeSourceUserEdit   ChangeSource = "user_edit"
)

// QuestionAnswerAudit is an append-only snapshot of a question's answer
// at the moment of a write. Rows are never updated or deleted; the most
// recent row for a question always matches the question's current
// answer_text.
type QuestionAnswerAudit struct {
	gorm.Model
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestionID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"question_id"`
	Question       *Question      `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	EditorIdentity string         `gorm:"column:editor_identity;not null" json:"editor_identity"`
	ChangeSource   ChangeSource   `gorm:"column:change_source;not null" json:"change_source"`
	AnswerText     string         `gorm:"column:answer_text" json:"answer_text"`
	RelevanceScore float64        `gorm:"column:relevance_score;not null;default:0" json:"relevance_score"`
	AnswerStatus   AnswerStatus   `gorm:"column:answer_status;not null" json:"answer_status"`
	// Diff holds the word-level change segments against the previous
	// snapshot, empty for the first record of a question.
	Diff      datatypes.JSON `gorm:"type:jsonb;column:diff" json:"diff,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuestionAnswerAudit) TableName() string {
	return "question_answer_audit"
}
