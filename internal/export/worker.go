package export

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rfpflow/rfpflow-backend/internal/ingestion/extractor"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// AnchorError means an answered question points at a sheet or cell
// that does not exist in the source workbook. The export fails as a
// whole; no partial output is written.
type AnchorError struct {
	QuestionID uuid.UUID
	SheetName  string
	CellRef    string
	Reason     string
}

func (e *AnchorError) Error() string {
	return fmt.Sprintf("export anchor %s!%s for question %s: %s",
		e.SheetName, e.CellRef, e.QuestionID, e.Reason)
}

// Worker consumes export_jobs: it fills answers into a copy of the
// original spreadsheet, or produces a text report for other formats.
// The original file is never modified.
type Worker struct {
	log       *logger.Logger
	jobs      repos.ExportJobRepo
	questions repos.QuestionRepo
	docs      repos.DocumentRepo
	blobs     *blobstore.Store
	notifier  *realtime.Notifier
}

func NewWorker(
	log *logger.Logger,
	jobs repos.ExportJobRepo,
	questions repos.QuestionRepo,
	docs repos.DocumentRepo,
	blobs *blobstore.Store,
	notifier *realtime.Notifier,
) *Worker {
	return &Worker{
		log:       log.With("service", "ExportWorker"),
		jobs:      jobs,
		questions: questions,
		docs:      docs,
		blobs:     blobs,
		notifier:  notifier,
	}
}

// Filename derives the deterministic export name from the source file
// and the generation timestamp.
func Filename(sourceFilename string, ts time.Time, ext string) string {
	base := strings.TrimSuffix(sourceFilename, filepath.Ext(sourceFilename))
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_answers_%s%s", base, ts.UTC().Format("20060102_150405"), ext)
}

func (w *Worker) Run(ctx context.Context, tenantID, exportJobID uuid.UUID) error {
	job, err := w.jobs.GetByID(ctx, nil, tenantID, exportJobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", exportJobID, err)
	}

	claimed, err := w.jobs.ClaimProcessing(ctx, nil, tenantID, exportJobID)
	if err != nil {
		return fmt.Errorf("claim export job %s: %w", exportJobID, err)
	}
	if !claimed {
		w.log.Info("export claim skipped", "export_job_id", exportJobID)
		return nil
	}
	w.notifier.ExportStatus(ctx, tenantID, exportJobID, string(types.ExportJobStatusProcessing))

	if err := w.run(ctx, job); err != nil {
		if _, markErr := w.jobs.MarkFailed(ctx, nil, tenantID, exportJobID, err.Error()); markErr != nil {
			w.log.Error("mark failed errored", "export_job_id", exportJobID, "error", markErr)
		}
		w.notifier.ExportStatus(ctx, tenantID, exportJobID, string(types.ExportJobStatusFailed))
		return err
	}
	w.notifier.ExportStatus(ctx, tenantID, exportJobID, string(types.ExportJobStatusCompleted))
	return nil
}

func (w *Worker) run(ctx context.Context, job *types.ExportJob) error {
	doc, err := w.docs.GetByID(ctx, nil, job.TenantID, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load source document: %w", err)
	}
	questions, err := w.questions.ListByDocument(ctx, nil, job.TenantID, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	total := len(questions)
	answered := 0
	for _, q := range questions {
		if isAnswered(q) {
			answered++
		}
	}
	if err := w.jobs.UpdateProgress(ctx, nil, job.TenantID, job.ID, answered, total); err != nil {
		w.log.Warn("progress update failed", "export_job_id", job.ID, "error", err)
	}

	now := time.Now().UTC()
	var outputKey, outputFilename string
	if extractor.IsSpreadsheet(doc.Filename, doc.MimeType) {
		outputKey, outputFilename, err = w.exportSpreadsheet(ctx, job, doc, questions, now)
	} else {
		outputKey, outputFilename, err = w.exportTextReport(ctx, job, doc, questions, answered, now)
	}
	if err != nil {
		return err
	}

	done, err := w.jobs.MarkCompleted(ctx, nil, job.TenantID, job.ID, answered, total, outputKey, outputFilename)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !done {
		return fmt.Errorf("export job %s no longer processing", job.ID)
	}
	return nil
}

func isAnswered(q *types.Question) bool {
	return strings.TrimSpace(q.AnswerText) != "" && q.AnswerStatus != types.AnswerStatusNotAnswered
}

// exportSpreadsheet validates every anchor before filling a single
// cell, so a bad anchor can never leave a half-written workbook behind.
func (w *Worker) exportSpreadsheet(ctx context.Context, job *types.ExportJob, doc *types.Document, questions []*types.Question, ts time.Time) (string, string, error) {
	path, err := w.blobs.Path(doc.StoragePath)
	if err != nil {
		return "", "", fmt.Errorf("resolve original: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	type fill struct {
		sheet, cell, value string
	}
	var fills []fill
	for _, q := range questions {
		if !isAnswered(q) {
			continue
		}
		if q.SheetName == "" || q.AnswerCellReference == "" {
			continue
		}
		if idx, err := f.GetSheetIndex(q.SheetName); err != nil || idx < 0 {
			return "", "", &AnchorError{QuestionID: q.ID, SheetName: q.SheetName, CellRef: q.AnswerCellReference, Reason: "sheet not found"}
		}
		if _, _, err := excelize.CellNameToCoordinates(q.AnswerCellReference); err != nil {
			return "", "", &AnchorError{QuestionID: q.ID, SheetName: q.SheetName, CellRef: q.AnswerCellReference, Reason: "invalid cell reference"}
		}
		fills = append(fills, fill{sheet: q.SheetName, cell: q.AnswerCellReference, value: q.AnswerText})
	}

	for _, fl := range fills {
		if err := f.SetCellValue(fl.sheet, fl.cell, fl.value); err != nil {
			return "", "", fmt.Errorf("fill %s!%s: %w", fl.sheet, fl.cell, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", "", fmt.Errorf("serialize workbook: %w", err)
	}

	filename := Filename(doc.Filename, ts, ".xlsx")
	key := fmt.Sprintf("exports/%s/%s", job.TenantID, filename)
	if _, err := w.blobs.Save(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		return "", "", fmt.Errorf("store export: %w", err)
	}
	return key, filename, nil
}

func (w *Worker) exportTextReport(ctx context.Context, job *types.ExportJob, doc *types.Document, questions []*types.Question, answered int, ts time.Time) (string, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer report for %s\n", doc.Filename)
	fmt.Fprintf(&b, "Generated: %s\n", ts.Format(time.RFC3339))
	fmt.Fprintf(&b, "Answered: %d of %d\n\n", answered, len(questions))

	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.QuestionText)
		if isAnswered(q) {
			fmt.Fprintf(&b, "   Answer (%s, relevance %.0f%%): %s\n\n",
				q.AnswerStatus, q.AnswerRelevanceScore, q.AnswerText)
		} else {
			b.WriteString("   Answer: (not answered)\n\n")
		}
	}

	filename := Filename(doc.Filename, ts, ".txt")
	key := fmt.Sprintf("exports/%s/%s", job.TenantID, filename)
	if _, err := w.blobs.Save(ctx, key, strings.NewReader(b.String())); err != nil {
		return "", "", fmt.Errorf("store report: %w", err)
	}
	return key, filename, nil
}
