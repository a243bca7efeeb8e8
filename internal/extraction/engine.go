package extraction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rfpflow/rfpflow-backend/internal/ingestion/extractor"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/llm"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

const extractionSystemPrompt = `You extract questions from RFP (request for proposal) documents.
Return ONLY a JSON array. Each element: {"question_text": string, "confidence": number between 0 and 1, "order": integer}.
For spreadsheet input each element additionally carries {"sheet_name": string, "answer_cell_reference": string, "cell_confidence": number} pointing at the cell where the answer belongs.
Do not include commentary, explanations, or markdown.`

const extractionRetryPrompt = extractionSystemPrompt + `
Your previous output could not be parsed as JSON. Respond with nothing but the raw JSON array, starting with [ and ending with ].`

// Engine turns a deal document into persisted pending questions and
// enqueues one answering job per question.
type Engine struct {
	log       *logger.Logger
	questions repos.QuestionRepo
	blobs     *blobstore.Store
	llm       llm.Client
	jobs      queue.Queue
}

func NewEngine(
	log *logger.Logger,
	questions repos.QuestionRepo,
	blobs *blobstore.Store,
	llmClient llm.Client,
	jobs queue.Queue,
) *Engine {
	return &Engine{
		log:       log.With("service", "QuestionExtraction"),
		questions: questions,
		blobs:     blobs,
		llm:       llmClient,
		jobs:      jobs,
	}
}

// ExtractFromDocument runs the full extraction for one deal document
// and returns the number of questions persisted. A document with no
// recognizable questions yields zero without error.
func (e *Engine) ExtractFromDocument(ctx context.Context, doc *types.Document) (int, error) {
	if doc.DealID == nil {
		return 0, fmt.Errorf("document %s has no deal", doc.ID)
	}

	content, isSpreadsheet, err := e.documentContent(doc)
	if err != nil {
		return 0, err
	}
	if content == "" {
		return 0, nil
	}

	extracted, err := e.complete(ctx, content, isSpreadsheet)
	if err != nil {
		return 0, err
	}

	sort.SliceStable(extracted, func(i, j int) bool { return extracted[i].Order < extracted[j].Order })

	// Re-extraction replaces the whole question set for the document.
	if err := e.questions.DeleteByDocument(ctx, nil, doc.TenantID, doc.ID); err != nil {
		return 0, fmt.Errorf("clear questions: %w", err)
	}

	// Persisted order is 1-based: question N is the Nth question a
	// reader meets in the document.
	rows := make([]*types.Question, 0, len(extracted))
	for i, q := range extracted {
		rows = append(rows, &types.Question{
			TenantID:             doc.TenantID,
			DealID:               *doc.DealID,
			DocumentID:           doc.ID,
			QuestionText:         strings.TrimSpace(q.QuestionText),
			QuestionOrder:        i + 1,
			ExtractionConfidence: q.Confidence,
			ProcessingStatus:     types.QuestionStatusPending,
			SheetName:            q.SheetName,
			AnswerCellReference:  q.AnswerCellReference,
			CellConfidence:       q.CellConfidence,
		})
	}
	if _, err := e.questions.CreateBatch(ctx, nil, rows); err != nil {
		return 0, fmt.Errorf("persist questions: %w", err)
	}

	for _, row := range rows {
		questionID := row.ID
		if err := e.jobs.Enqueue(ctx, queue.QueueQuestionProcessing, queue.Job{
			JobType:    queue.JobTypeAnswerQuestion,
			TenantID:   doc.TenantID,
			QuestionID: &questionID,
			DealID:     doc.DealID,
		}); err != nil {
			return 0, fmt.Errorf("enqueue question %s: %w", questionID, err)
		}
	}

	e.log.Info("questions extracted",
		"document_id", doc.ID, "count", len(rows), "spreadsheet", isSpreadsheet)
	return len(rows), nil
}

func (e *Engine) documentContent(doc *types.Document) (string, bool, error) {
	path, err := e.blobs.Path(doc.StoragePath)
	if err != nil {
		return "", false, fmt.Errorf("resolve blob: %w", err)
	}

	if extractor.IsSpreadsheet(doc.Filename, doc.MimeType) {
		cells, err := extractor.Cells(path)
		if err != nil {
			return "", true, err
		}
		if len(cells) == 0 {
			return "", true, nil
		}
		var b strings.Builder
		for _, cell := range cells {
			fmt.Fprintf(&b, "%s!%s: %s\n", cell.SheetName, cell.CellRef, cell.Value)
		}
		return e.truncate(b.String()), true, nil
	}

	text, err := extractor.Text(path, doc.Filename, doc.MimeType)
	if err != nil {
		return "", false, err
	}
	return e.truncate(text), false, nil
}

func (e *Engine) truncate(content string) string {
	limit := envutil.Int("EXTRACTION_MAX_CHARS", 60000)
	if len(content) <= limit {
		return strings.TrimSpace(content)
	}
	// back off to a rune boundary so the cut never mangles a character
	for limit > 0 && !utf8.RuneStart(content[limit]) {
		limit--
	}
	return strings.TrimSpace(content[:limit])
}

// complete calls the model and parses its output, retrying exactly once
// with a stricter prompt when the first response is not valid JSON.
func (e *Engine) complete(ctx context.Context, content string, isSpreadsheet bool) ([]ExtractedQuestion, error) {
	user := "Extract every question a vendor must answer from this document:\n\n" + content
	if isSpreadsheet {
		user = "Extract every question a vendor must answer from this spreadsheet. Cells are listed as Sheet!Ref: value.\n\n" + content
	}

	raw, err := e.llm.Complete(ctx, llm.CompletionRequest{
		System:      extractionSystemPrompt,
		User:        user,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}
	_, answer := llm.SplitReasoning(raw)

	extracted, parseErr := ParseQuestions(answer)
	if parseErr == nil {
		return extracted, nil
	}
	e.log.Warn("extraction output unparseable, retrying", "error", parseErr)

	raw, err = e.llm.Complete(ctx, llm.CompletionRequest{
		System:      extractionRetryPrompt,
		User:        user,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction retry completion: %w", err)
	}
	_, answer = llm.SplitReasoning(raw)

	extracted, parseErr = ParseQuestions(answer)
	if parseErr != nil {
		return nil, fmt.Errorf("extraction failed after retry: %w", parseErr)
	}
	return extracted, nil
}
