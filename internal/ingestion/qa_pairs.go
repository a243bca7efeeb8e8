package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/ingestion/extractor"
	"github.com/rfpflow/rfpflow-backend/internal/platform/llm"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/platform/vectorstore"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// QAPairProcessor embeds curated knowledge-base Q&A pairs into the
// project collection so retrieval can surface them next to document
// chunks.
type QAPairProcessor struct {
	log      *logger.Logger
	pairs    repos.ProjectQAPairRepo
	vectors  vectorstore.Store
	llm      llm.Client
	chunker  *extractor.Chunker
	notifier *realtime.Notifier
}

func NewQAPairProcessor(
	log *logger.Logger,
	pairs repos.ProjectQAPairRepo,
	vectors vectorstore.Store,
	llmClient llm.Client,
	chunker *extractor.Chunker,
	notifier *realtime.Notifier,
) *QAPairProcessor {
	return &QAPairProcessor{
		log:      log.With("service", "QAPairProcessor"),
		pairs:    pairs,
		vectors:  vectors,
		llm:      llmClient,
		chunker:  chunker,
		notifier: notifier,
	}
}

// CombinedText is the exact string that gets embedded for a pair.
func CombinedText(question, answer string) string {
	return fmt.Sprintf("Question: %s\n\nAnswer: %s", question, answer)
}

// SyntheticFilename labels Q&A vectors in answer provenance, where a
// real document would contribute its filename.
func SyntheticFilename(pairID uuid.UUID) string {
	return fmt.Sprintf("Knowledge Base Q&A - %s", pairID.String()[:8])
}

func (p *QAPairProcessor) Process(ctx context.Context, tenantID, pairID uuid.UUID) error {
	pair, err := p.pairs.GetByID(ctx, nil, tenantID, pairID)
	if err != nil {
		return fmt.Errorf("load qa pair %s: %w", pairID, err)
	}

	claimed, err := p.pairs.ClaimProcessing(ctx, nil, tenantID, pairID)
	if err != nil {
		return fmt.Errorf("claim qa pair %s: %w", pairID, err)
	}
	if !claimed {
		p.log.Info("qa pair claim skipped", "qa_pair_id", pairID)
		return nil
	}
	p.notifier.QAPairStatus(ctx, tenantID, pairID, string(types.QuestionStatusProcessing))

	if err := p.run(ctx, pair); err != nil {
		if _, markErr := p.pairs.MarkError(ctx, nil, tenantID, pairID, err.Error()); markErr != nil {
			p.log.Error("mark error failed", "qa_pair_id", pairID, "error", markErr)
		}
		p.notifier.QAPairStatus(ctx, tenantID, pairID, string(types.QuestionStatusError))
		return err
	}

	if _, err := p.pairs.MarkProcessed(ctx, nil, tenantID, pairID); err != nil {
		return fmt.Errorf("mark processed %s: %w", pairID, err)
	}
	p.notifier.QAPairStatus(ctx, tenantID, pairID, string(types.QuestionStatusProcessed))
	return nil
}

func (p *QAPairProcessor) run(ctx context.Context, pair *types.ProjectQAPair) error {
	key := vectorstore.CollectionKey{TenantID: pair.TenantID, ProjectID: pair.ProjectID}

	// Re-embedding an edited pair must not leave the previous vectors
	// behind.
	if err := p.vectors.DeleteByFilter(ctx, key, map[string]any{"qa_pair_id": pair.ID.String()}); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}

	chunks, err := p.chunker.Split(CombinedText(pair.Question, pair.Answer))
	if err != nil {
		return fmt.Errorf("chunk qa pair: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	embeddings, err := p.llm.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed qa pair: %w", err)
	}

	vectors := make([]vectorstore.Vector, 0, len(chunks))
	for i, embedding := range embeddings {
		vectors = append(vectors, vectorstore.Vector{
			ID:     fmt.Sprintf("qa_pair_%s_chunk_%d", pair.ID, i),
			Values: embedding,
			Text:   chunks[i],
			Metadata: map[string]any{
				"qa_pair_id":   pair.ID.String(),
				"tenant_id":    pair.TenantID.String(),
				"project_id":   pair.ProjectID.String(),
				"chunk_index":  i,
				"total_chunks": len(chunks),
				"filename":     SyntheticFilename(pair.ID),
				"source_type":  "knowledge_base",
			},
		})
	}
	if err := p.vectors.Upsert(ctx, key, vectors); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}
