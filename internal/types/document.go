package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentStatus is the ingestion lifecycle. Transitions are
// uploaded→processing→processed and uploaded→processing→error; a
// reprocess moves processed|error back through processing.
type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusError      DocumentStatus = "error"
)

type DocumentType string

const (
	// DocumentTypeKnowledge documents are chunked and embedded into the
	// project collection.
	DocumentTypeKnowledge DocumentType = "knowledge"
	// DocumentTypeDeal documents are question sources; their text is
	// never embedded so unanswered RFP content cannot pollute retrieval.
	DocumentTypeDeal DocumentType = "deal"
)

type Document struct {
	gorm.Model
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	DealID       *uuid.UUID     `gorm:"type:uuid;index" json:"deal_id,omitempty"`
	DocumentType DocumentType   `gorm:"column:document_type;not null" json:"document_type"`
	Filename     string         `gorm:"column:filename;not null" json:"filename"`
	MimeType     string         `gorm:"column:mime_type;not null" json:"mime_type"`
	StoragePath  string         `gorm:"column:storage_path;not null" json:"storage_path"`
	SizeBytes    int64          `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	Status       DocumentStatus `gorm:"column:status;not null;default:'uploaded';index" json:"status"`
	ChunkCount   int            `gorm:"column:chunk_count;not null;default:0" json:"chunk_count"`
	// ProcessingVersion increments on every reprocess request. In-flight
	// jobs carry the version they were enqueued with; a mismatch at
	// completion means a newer reprocess superseded the job.
	ProcessingVersion   int        `gorm:"column:processing_version;not null;default:0" json:"processing_version"`
	ProcessingError     string     `gorm:"column:processing_error" json:"processing_error,omitempty"`
	ProcessingStartedAt *time.Time `gorm:"column:processing_started_at" json:"processing_started_at,omitempty"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string {
	return "document"
}

func (d *Document) IsDealDocument() bool {
	return d.DocumentType == DocumentTypeDeal
}
