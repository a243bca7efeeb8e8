package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionProcessingStatus string

const (
	QuestionStatusPending    QuestionProcessingStatus = "pending"
	QuestionStatusProcessing QuestionProcessingStatus = "processing"
	QuestionStatusProcessed  QuestionProcessingStatus = "processed"
	QuestionStatusError      QuestionProcessingStatus = "error"
)

type AnswerStatus string

const (
	AnswerStatusNotAnswered       AnswerStatus = "notAnswered"
	AnswerStatusPartiallyAnswered AnswerStatus = "partiallyAnswered"
	AnswerStatusAnswered          AnswerStatus = "answered"
)

// Question is one extracted RFP question and its generated or edited
// answer. AnswerSources and AnswerSourceFilenames are JSON arrays kept
// index-aligned: entry i of both describes the same source document.
type Question struct {
	gorm.Model
	ID                    uuid.UUID                `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID              uuid.UUID                `gorm:"type:uuid;not null;index" json:"tenant_id"`
	DealID                uuid.UUID                `gorm:"type:uuid;not null;index" json:"deal_id"`
	DocumentID            uuid.UUID                `gorm:"type:uuid;not null;index" json:"document_id"`
	Document              *Document                `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	QuestionText          string                   `gorm:"column:question_text;not null" json:"question_text"`
	QuestionOrder         int                      `gorm:"column:question_order;not null" json:"question_order"`
	ExtractionConfidence  float64                  `gorm:"column:extraction_confidence;not null;default:0" json:"extraction_confidence"`
	ProcessingStatus      QuestionProcessingStatus `gorm:"column:processing_status;not null;default:'pending';index" json:"processing_status"`
	ProcessingError       string                   `gorm:"column:processing_error" json:"processing_error,omitempty"`
	ProcessingStartedAt   *time.Time               `gorm:"column:processing_started_at" json:"processing_started_at,omitempty"`
	AnswerText            string                   `gorm:"column:answer_text" json:"answer_text,omitempty"`
	Reasoning             string                   `gorm:"column:reasoning" json:"reasoning,omitempty"`
	AnswerStatus          AnswerStatus             `gorm:"column:answer_status;not null;default:'notAnswered'" json:"answer_status"`
	AnswerRelevanceScore  float64                  `gorm:"column:answer_relevance_score;not null;default:0" json:"answer_relevance_score"`
	AnswerSources         datatypes.JSON           `gorm:"type:jsonb;column:answer_sources" json:"answer_sources,omitempty"`
	AnswerSourceFilenames datatypes.JSON           `gorm:"type:jsonb;column:answer_source_filenames" json:"answer_source_filenames,omitempty"`
	// Spreadsheet anchors filled by cell-based extraction; empty for
	// questions extracted from prose documents.
	SheetName           string    `gorm:"column:sheet_name" json:"sheet_name,omitempty"`
	AnswerCellReference string    `gorm:"column:answer_cell_reference" json:"answer_cell_reference,omitempty"`
	CellConfidence      float64   `gorm:"column:cell_confidence;not null;default:0" json:"cell_confidence"`
	CreatedAt           time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Question) TableName() string {
	return "question"
}
