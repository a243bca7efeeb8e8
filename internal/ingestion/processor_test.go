package ingestion

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/db"
	"github.com/rfpflow/rfpflow-backend/internal/ingestion/extractor"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/llm"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/platform/vectorstore"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type fakeVectorStore struct {
	ops     []string
	vectors map[string][]vectorstore.Vector
	failOn  string
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{vectors: map[string][]vectorstore.Vector{}}
}

func (f *fakeVectorStore) Upsert(_ context.Context, key vectorstore.CollectionKey, vectors []vectorstore.Vector) error {
	if f.failOn == "upsert" {
		return fmt.Errorf("upsert failed")
	}
	f.ops = append(f.ops, "upsert")
	f.vectors[key.Namespace()] = append(f.vectors[key.Namespace()], vectors...)
	return nil
}

func (f *fakeVectorStore) Query(_ context.Context, key vectorstore.CollectionKey, _ []float32, _ int, _ map[string]any) ([]vectorstore.Match, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteByFilter(_ context.Context, key vectorstore.CollectionKey, filter map[string]any) error {
	if f.failOn == "delete" {
		return fmt.Errorf("delete failed")
	}
	f.ops = append(f.ops, "delete")
	if docID, ok := filter["document_id"].(string); ok {
		kept := f.vectors[key.Namespace()][:0]
		for _, v := range f.vectors[key.Namespace()] {
			if v.Metadata["document_id"] != docID {
				kept = append(kept, v)
			}
		}
		f.vectors[key.Namespace()] = kept
	}
	return nil
}

type fakeLLM struct {
	embedCalls int
}

func (f *fakeLLM) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.embedCalls++
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	return "", fmt.Errorf("not used")
}

type fakeQuestionExtractor struct {
	calls int
	count int
	err   error
}

func (f *fakeQuestionExtractor) ExtractFromDocument(_ context.Context, _ *types.Document) (int, error) {
	f.calls++
	return f.count, f.err
}

type dropBus struct{}

func (dropBus) Publish(context.Context, realtime.Event) error { return nil }

type processorFixture struct {
	proc      *DocumentProcessor
	docs      repos.DocumentRepo
	blobs     *blobstore.Store
	vectors   *fakeVectorStore
	llm       *fakeLLM
	questions *fakeQuestionExtractor
	tenantID  uuid.UUID
	projectID uuid.UUID
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	t.Setenv("BLOB_DIR", t.TempDir())

	gdb, err := db.NewSQLiteMemory()
	if err != nil {
		t.Fatalf("NewSQLiteMemory: %v", err)
	}
	log := logger.NewNop()
	blobs, err := blobstore.New(log)
	if err != nil {
		t.Fatalf("blobstore.New: %v", err)
	}

	vectors := newFakeVectorStore()
	llmClient := &fakeLLM{}
	questions := &fakeQuestionExtractor{}
	docs := repos.NewDocumentRepo(gdb, log)

	proc := NewDocumentProcessor(log, docs, blobs, vectors, llmClient,
		extractor.NewChunker(), questions, realtime.NewNotifier(log, dropBus{}))

	return &processorFixture{
		proc:      proc,
		docs:      docs,
		blobs:     blobs,
		vectors:   vectors,
		llm:       llmClient,
		questions: questions,
		tenantID:  uuid.New(),
		projectID: uuid.New(),
	}
}

func (fx *processorFixture) createDocument(t *testing.T, docType types.DocumentType, filename, content string) *types.Document {
	t.Helper()
	ctx := context.Background()

	key := fmt.Sprintf("originals/%s/%s", fx.tenantID, filename)
	if _, err := fx.blobs.Save(ctx, key, strings.NewReader(content)); err != nil {
		t.Fatalf("Save blob: %v", err)
	}

	doc, err := fx.docs.Create(ctx, nil, &types.Document{
		TenantID:     fx.tenantID,
		ProjectID:    fx.projectID,
		DocumentType: docType,
		Filename:     filename,
		MimeType:     "text/plain",
		StoragePath:  key,
		Status:       types.DocumentStatusUploaded,
	})
	if err != nil {
		t.Fatalf("Create document: %v", err)
	}
	return doc
}

func TestProcessKnowledgeDocument(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	content := strings.Repeat("Our platform offers 99.9% uptime backed by an SLA. ", 50)
	doc := fx.createDocument(t, types.DocumentTypeKnowledge, "kb.txt", content)

	if err := fx.proc.Process(ctx, fx.tenantID, doc.ID, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, err := fx.docs.GetByID(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusProcessed {
		t.Fatalf("status: want=processed got=%q (error=%q)", got.Status, got.ProcessingError)
	}
	if got.ChunkCount == 0 {
		t.Fatalf("chunk_count should be > 0")
	}

	key := vectorstore.CollectionKey{TenantID: fx.tenantID, ProjectID: fx.projectID}
	stored := fx.vectors.vectors[key.Namespace()]
	if len(stored) != got.ChunkCount {
		t.Fatalf("stored vectors: want=%d got=%d", got.ChunkCount, len(stored))
	}
	first := stored[0]
	if first.ID != fmt.Sprintf("%s_chunk_0", doc.ID) {
		t.Fatalf("vector id: got=%q", first.ID)
	}
	if first.Metadata["filename"] != "kb.txt" || first.Metadata["source_type"] != "document" {
		t.Fatalf("metadata: got=%+v", first.Metadata)
	}

	// clear precedes insert
	if len(fx.vectors.ops) < 2 || fx.vectors.ops[0] != "delete" || fx.vectors.ops[1] != "upsert" {
		t.Fatalf("op order: got=%v", fx.vectors.ops)
	}
}

func TestProcessEmptyDocumentSucceedsWithZeroChunks(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	doc := fx.createDocument(t, types.DocumentTypeKnowledge, "empty.txt", "   \n  ")
	if err := fx.proc.Process(ctx, fx.tenantID, doc.ID, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, err := fx.docs.GetByID(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusProcessed || got.ChunkCount != 0 {
		t.Fatalf("want processed with 0 chunks, got status=%q count=%d", got.Status, got.ChunkCount)
	}
	for _, op := range fx.vectors.ops {
		if op == "upsert" {
			t.Fatalf("no upsert expected for empty document")
		}
	}
}

func TestProcessDealDocumentExtractsInsteadOfEmbedding(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	fx.questions.count = 7
	doc := fx.createDocument(t, types.DocumentTypeDeal, "rfp.txt", "1. Do you support SSO?\n2. What is your SLA?")

	if err := fx.proc.Process(ctx, fx.tenantID, doc.ID, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if fx.questions.calls != 1 {
		t.Fatalf("extractor calls: want=1 got=%d", fx.questions.calls)
	}
	if fx.llm.embedCalls != 0 {
		t.Fatalf("deal document must not be embedded, embed calls=%d", fx.llm.embedCalls)
	}

	got, err := fx.docs.GetByID(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusProcessed || got.ChunkCount != 0 {
		t.Fatalf("want processed with 0 chunks, got status=%q count=%d", got.Status, got.ChunkCount)
	}
}

func TestProcessStaleVersionSkipped(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	doc := fx.createDocument(t, types.DocumentTypeKnowledge, "kb.txt", "some content")

	// a reprocess bumped the stored version past the job's
	if _, err := fx.docs.BumpVersion(ctx, nil, fx.tenantID, doc.ID); err != nil {
		t.Fatalf("BumpVersion: %v", err)
	}

	if err := fx.proc.Process(ctx, fx.tenantID, doc.ID, 0); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, err := fx.docs.GetByID(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusUploaded {
		t.Fatalf("stale job must not touch the document, status=%q", got.Status)
	}
	if len(fx.vectors.ops) != 0 {
		t.Fatalf("stale job must not touch vectors: %v", fx.vectors.ops)
	}
}

func TestProcessErrorThenReprocessClearsError(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	doc := fx.createDocument(t, types.DocumentTypeKnowledge, "kb.txt", "recoverable content here")

	fx.vectors.failOn = "delete"
	if err := fx.proc.Process(ctx, fx.tenantID, doc.ID, 0); err == nil {
		t.Fatalf("expected failure")
	}

	got, err := fx.docs.GetByID(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusError || got.ProcessingError == "" {
		t.Fatalf("want error status with message, got status=%q error=%q", got.Status, got.ProcessingError)
	}

	// reprocess after the fault clears
	fx.vectors.failOn = ""
	version, err := fx.docs.BumpVersion(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("BumpVersion: %v", err)
	}
	if err := fx.proc.Process(ctx, fx.tenantID, doc.ID, version); err != nil {
		t.Fatalf("Process after recovery: %v", err)
	}

	got, err = fx.docs.GetByID(ctx, nil, fx.tenantID, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusProcessed {
		t.Fatalf("status: want=processed got=%q", got.Status)
	}
	if got.ProcessingError != "" {
		t.Fatalf("processing_error must be cleared on success, got=%q", got.ProcessingError)
	}
}

func TestQAPairProcessorEmbedsCombinedText(t *testing.T) {
	t.Setenv("BLOB_DIR", t.TempDir())
	gdb, err := db.NewSQLiteMemory()
	if err != nil {
		t.Fatalf("NewSQLiteMemory: %v", err)
	}
	log := logger.NewNop()
	vectors := newFakeVectorStore()
	pairsRepo := repos.NewProjectQAPairRepo(gdb, log)
	proc := NewQAPairProcessor(log, pairsRepo, vectors, &fakeLLM{},
		extractor.NewChunker(), realtime.NewNotifier(log, dropBus{}))

	ctx := context.Background()
	tenantID, projectID := uuid.New(), uuid.New()
	pair, err := pairsRepo.Create(ctx, nil, &types.ProjectQAPair{
		TenantID:  tenantID,
		ProjectID: projectID,
		Question:  "Do you support SAML?",
		Answer:    "Yes, SAML 2.0 and OIDC.",
	})
	if err != nil {
		t.Fatalf("Create pair: %v", err)
	}

	if err := proc.Process(ctx, tenantID, pair.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	key := vectorstore.CollectionKey{TenantID: tenantID, ProjectID: projectID}
	stored := vectors.vectors[key.Namespace()]
	if len(stored) != 1 {
		t.Fatalf("stored vectors: want=1 got=%d", len(stored))
	}
	v := stored[0]
	if v.Text != "Question: Do you support SAML?\n\nAnswer: Yes, SAML 2.0 and OIDC." {
		t.Fatalf("combined text: got=%q", v.Text)
	}
	if v.Metadata["source_type"] != "knowledge_base" {
		t.Fatalf("source_type: got=%v", v.Metadata["source_type"])
	}
	filename, _ := v.Metadata["filename"].(string)
	if !strings.HasPrefix(filename, "Knowledge Base Q&A - ") {
		t.Fatalf("filename: got=%q", filename)
	}

	got, err := pairsRepo.GetByID(ctx, nil, tenantID, pair.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProcessingStatus != types.QuestionStatusProcessed {
		t.Fatalf("status: got=%q", got.ProcessingStatus)
	}
}
