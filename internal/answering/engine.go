package answering

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/audit"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/llm"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/platform/vectorstore"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

const synthesisSystemPrompt = `You answer RFP questions for a vendor using ONLY the provided context passages.
If the context does not contain the answer, say so plainly. Be direct and specific; write in first person plural ("we").
Do not invent capabilities, numbers, or certifications absent from the context.`

// Engine answers a single question: retrieve, score, synthesize,
// classify, persist, audit, notify.
type Engine struct {
	log        *logger.Logger
	questions  repos.QuestionRepo
	docs       repos.DocumentRepo
	vectors    vectorstore.Store
	llm        llm.Client
	tracker    *audit.Tracker
	notifier   *realtime.Notifier
	thresholds Thresholds
}

func NewEngine(
	log *logger.Logger,
	questions repos.QuestionRepo,
	docs repos.DocumentRepo,
	vectors vectorstore.Store,
	llmClient llm.Client,
	tracker *audit.Tracker,
	notifier *realtime.Notifier,
) *Engine {
	return &Engine{
		log:        log.With("service", "AnsweringEngine"),
		questions:  questions,
		docs:       docs,
		vectors:    vectors,
		llm:        llmClient,
		tracker:    tracker,
		notifier:   notifier,
		thresholds: ThresholdsFromEnv(),
	}
}

// AnswerQuestion processes one question_processing job. Claim failures
// mean another worker owns the question; the job is dropped silently.
func (e *Engine) AnswerQuestion(ctx context.Context, tenantID, questionID uuid.UUID) error {
	question, err := e.questions.GetByID(ctx, nil, tenantID, questionID)
	if err != nil {
		return fmt.Errorf("load question %s: %w", questionID, err)
	}

	claimed, err := e.questions.ClaimProcessing(ctx, nil, tenantID, questionID)
	if err != nil {
		return fmt.Errorf("claim question %s: %w", questionID, err)
	}
	if !claimed {
		e.log.Info("question claim skipped", "question_id", questionID)
		return nil
	}
	e.notifier.QuestionStatus(ctx, tenantID, questionID, string(types.QuestionStatusProcessing))

	previousAnswer := question.AnswerText
	if err := e.run(ctx, question); err != nil {
		if _, markErr := e.questions.MarkError(ctx, nil, tenantID, questionID, err.Error()); markErr != nil {
			e.log.Error("mark error failed", "question_id", questionID, "error", markErr)
		}
		e.notifier.QuestionStatus(ctx, tenantID, questionID, string(types.QuestionStatusError))
		return err
	}

	// The answer is saved at this point; a missing audit snapshot still
	// fails the job so it surfaces instead of silently breaking history.
	// The backfill command restores the snapshot afterwards.
	if _, err := e.tracker.Record(ctx, nil, question, previousAnswer, types.ChangeSourceAIInitial, "system"); err != nil {
		return fmt.Errorf("audit answer for question %s: %w", questionID, err)
	}
	e.notifier.QuestionStatus(ctx, tenantID, questionID, string(types.QuestionStatusProcessed))
	return nil
}

// run retrieves and synthesizes, then writes the outcome back onto the
// passed question so the caller can audit the final state.
func (e *Engine) run(ctx context.Context, question *types.Question) error {
	doc, err := e.docs.GetByID(ctx, nil, question.TenantID, question.DocumentID)
	if err != nil {
		return fmt.Errorf("load source document: %w", err)
	}
	key := vectorstore.CollectionKey{TenantID: question.TenantID, ProjectID: doc.ProjectID}

	embeddings, err := e.llm.Embed(ctx, []string{question.QuestionText})
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}

	topK := envutil.Int("RETRIEVAL_TOP_K", 5)
	matches, err := e.vectors.Query(ctx, key, embeddings[0], topK, nil)
	if err != nil {
		return fmt.Errorf("retrieve context: %w", err)
	}

	sources := SelectSources(matches, e.thresholds.Min)
	if len(sources) == 0 {
		// Nothing relevant in the knowledge base: persist notAnswered
		// without burning a synthesis call.
		return e.persist(ctx, question, "", "", 0, nil)
	}

	answer, reasoning, err := e.synthesize(ctx, question.QuestionText, sources)
	if err != nil {
		return err
	}

	maxRelevance := sources[0].Relevance
	for _, s := range sources[1:] {
		if s.Relevance > maxRelevance {
			maxRelevance = s.Relevance
		}
	}
	return e.persist(ctx, question, answer, reasoning, maxRelevance, sources)
}

func (e *Engine) synthesize(ctx context.Context, questionText string, sources []Source) (answer, reasoning string, err error) {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] (%s, relevance %.0f%%)\n%s\n\n", i+1, s.Filename, s.Relevance, s.Text)
	}
	fmt.Fprintf(&b, "Question: %s", questionText)

	raw, err := e.llm.Complete(ctx, llm.CompletionRequest{
		System:      synthesisSystemPrompt,
		User:        b.String(),
		Temperature: 0.2,
	})
	if err != nil {
		return "", "", fmt.Errorf("synthesize answer: %w", err)
	}
	reasoning, answer = llm.SplitReasoning(raw)
	if strings.TrimSpace(answer) == "" {
		return "", "", fmt.Errorf("synthesis returned empty answer")
	}
	return answer, reasoning, nil
}

func (e *Engine) persist(ctx context.Context, question *types.Question, answer, reasoning string, relevance float64, sources []Source) error {
	status := Classify(answer, relevance, e.thresholds)

	sourceIDs := make([]string, 0, len(sources))
	filenames := make([]string, 0, len(sources))
	for _, s := range sources {
		sourceIDs = append(sourceIDs, s.SourceID)
		filenames = append(filenames, s.Filename)
	}
	sourcesJSON, err := json.Marshal(sourceIDs)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	filenamesJSON, err := json.Marshal(filenames)
	if err != nil {
		return fmt.Errorf("encode source filenames: %w", err)
	}

	saved, err := e.questions.SaveAnswer(ctx, nil, question.TenantID, question.ID, repos.AnswerFields{
		AnswerText:            answer,
		Reasoning:             reasoning,
		AnswerStatus:          status,
		AnswerRelevanceScore:  relevance,
		AnswerSources:         sourcesJSON,
		AnswerSourceFilenames: filenamesJSON,
	})
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	if !saved {
		return fmt.Errorf("question %s no longer processing", question.ID)
	}

	question.AnswerText = answer
	question.Reasoning = reasoning
	question.AnswerStatus = status
	question.AnswerRelevanceScore = relevance
	question.AnswerSources = sourcesJSON
	question.AnswerSourceFilenames = filenamesJSON
	question.ProcessingStatus = types.QuestionStatusProcessed
	return nil
}
