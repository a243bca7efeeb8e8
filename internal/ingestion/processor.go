package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/ingestion/extractor"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/llm"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/platform/vectorstore"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

const embedBatchSize = 64

// QuestionExtractor is the deal-document path: instead of embedding,
// the document's questions are extracted and persisted. Implemented by
// the extraction package; injected here to keep the dependency one-way.
type QuestionExtractor interface {
	ExtractFromDocument(ctx context.Context, doc *types.Document) (int, error)
}

// DocumentProcessor drives the document_processing queue: claim the
// document, clear its old vectors, extract, then either chunk+embed
// (knowledge documents) or extract questions (deal documents).
type DocumentProcessor struct {
	log       *logger.Logger
	docs      repos.DocumentRepo
	blobs     *blobstore.Store
	vectors   vectorstore.Store
	llm       llm.Client
	chunker   *extractor.Chunker
	questions QuestionExtractor
	notifier  *realtime.Notifier
}

func NewDocumentProcessor(
	log *logger.Logger,
	docs repos.DocumentRepo,
	blobs *blobstore.Store,
	vectors vectorstore.Store,
	llmClient llm.Client,
	chunker *extractor.Chunker,
	questions QuestionExtractor,
	notifier *realtime.Notifier,
) *DocumentProcessor {
	return &DocumentProcessor{
		log:       log.With("service", "DocumentProcessor"),
		docs:      docs,
		blobs:     blobs,
		vectors:   vectors,
		llm:       llmClient,
		chunker:   chunker,
		questions: questions,
		notifier:  notifier,
	}
}

// Process handles one job. Redelivered or superseded jobs are dropped
// at the claim: the status check-and-set plus the processing version
// guarantee at most one live worker per document generation.
func (p *DocumentProcessor) Process(ctx context.Context, tenantID, documentID uuid.UUID, version int) error {
	doc, err := p.docs.GetByID(ctx, nil, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	claimed, err := p.docs.ClaimProcessing(ctx, nil, tenantID, documentID, version)
	if err != nil {
		return fmt.Errorf("claim document %s: %w", documentID, err)
	}
	if !claimed {
		p.log.Info("document claim skipped",
			"document_id", documentID, "job_version", version, "current_version", doc.ProcessingVersion)
		return nil
	}
	p.notifier.DocumentStatus(ctx, tenantID, documentID, string(types.DocumentStatusProcessing))

	chunkCount, err := p.run(ctx, doc)
	if err != nil {
		if _, markErr := p.docs.MarkError(ctx, nil, tenantID, documentID, version, err.Error()); markErr != nil {
			p.log.Error("mark error failed", "document_id", documentID, "error", markErr)
		}
		p.notifier.DocumentStatus(ctx, tenantID, documentID, string(types.DocumentStatusError))
		return err
	}

	done, err := p.docs.MarkProcessed(ctx, nil, tenantID, documentID, version, chunkCount)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", documentID, err)
	}
	if !done {
		// A reprocess bumped the version mid-flight; this result is
		// stale and must not be visible.
		p.log.Info("processed result superseded", "document_id", documentID, "job_version", version)
		return nil
	}
	p.notifier.DocumentStatus(ctx, tenantID, documentID, string(types.DocumentStatusProcessed))
	return nil
}

func (p *DocumentProcessor) run(ctx context.Context, doc *types.Document) (int, error) {
	key := vectorstore.CollectionKey{TenantID: doc.TenantID, ProjectID: doc.ProjectID}

	// Clear happens before any insert so a reprocess can never leave a
	// mix of old and new chunks behind.
	if err := p.vectors.DeleteByFilter(ctx, key, map[string]any{"document_id": doc.ID.String()}); err != nil {
		return 0, fmt.Errorf("clear vectors: %w", err)
	}

	if doc.IsDealDocument() {
		// Deal-document text is never embedded; extraction is the whole
		// job and chunk_count stays zero.
		if _, err := p.questions.ExtractFromDocument(ctx, doc); err != nil {
			return 0, err
		}
		return 0, nil
	}

	path, err := p.blobs.Path(doc.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("resolve blob: %w", err)
	}
	text, err := extractor.Text(path, doc.Filename, doc.MimeType)
	if err != nil {
		return 0, err
	}

	chunks, err := p.chunker.Split(text)
	if err != nil {
		return 0, fmt.Errorf("chunk text: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := p.embedChunks(ctx, doc, chunks)
	if err != nil {
		return 0, err
	}
	if err := p.vectors.Upsert(ctx, key, vectors); err != nil {
		return 0, fmt.Errorf("upsert vectors: %w", err)
	}
	return len(chunks), nil
}

func (p *DocumentProcessor) embedChunks(ctx context.Context, doc *types.Document, chunks []string) ([]vectorstore.Vector, error) {
	vectors := make([]vectorstore.Vector, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		embeddings, err := p.llm.Embed(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks [%d:%d]: %w", start, end, err)
		}
		for i, embedding := range embeddings {
			idx := start + i
			vectors = append(vectors, vectorstore.Vector{
				ID:     fmt.Sprintf("%s_chunk_%d", doc.ID, idx),
				Values: embedding,
				Text:   chunks[idx],
				Metadata: map[string]any{
					"document_id":  doc.ID.String(),
					"tenant_id":    doc.TenantID.String(),
					"project_id":   doc.ProjectID.String(),
					"chunk_index":  idx,
					"total_chunks": len(chunks),
					"filename":     doc.Filename,
					"source_type":  "document",
				},
			})
		}
	}
	return vectors, nil
}
