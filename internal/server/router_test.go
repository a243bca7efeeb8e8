package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/audit"
	"github.com/rfpflow/rfpflow-backend/internal/db"
	"github.com/rfpflow/rfpflow-backend/internal/handlers"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/services"
	"github.com/rfpflow/rfpflow-backend/internal/sse"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type memQueue struct {
	byQueue map[string][]queue.Job
}

func (q *memQueue) Enqueue(_ context.Context, queueName string, job queue.Job) error {
	q.byQueue[queueName] = append(q.byQueue[queueName], job)
	return nil
}

func (q *memQueue) Dequeue(context.Context, string, time.Duration) (*queue.Job, error) {
	return nil, nil
}

func (q *memQueue) Length(_ context.Context, queueName string) (int64, error) {
	return int64(len(q.byQueue[queueName])), nil
}

func (q *memQueue) Clear(_ context.Context, queueName string) error {
	delete(q.byQueue, queueName)
	return nil
}

type noBus struct{}

func (noBus) Publish(context.Context, realtime.Event) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *memQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
	jobs := &memQueue{byQueue: map[string][]queue.Job{}}
	notifier := realtime.NewNotifier(log, noBus{})

	docs := repos.NewDocumentRepo(gdb, log)
	questions := repos.NewQuestionRepo(gdb, log)
	audits := repos.NewQuestionAnswerAuditRepo(gdb, log)
	exports := repos.NewExportJobRepo(gdb, log)
	pairs := repos.NewProjectQAPairRepo(gdb, log)
	tracker := audit.NewTracker(log, audits)

	router := NewRouter(RouterConfig{
		Log:             log,
		DocumentHandler: handlers.NewDocumentHandler(log, services.NewDocumentService(log, docs, blobs, jobs, notifier)),
		QuestionHandler: handlers.NewQuestionHandler(log, services.NewQuestionService(log, questions, audits, tracker, notifier)),
		ExportHandler:   handlers.NewExportHandler(log, services.NewExportService(log, exports, docs, jobs, notifier), blobs),
		QAPairHandler:   handlers.NewQAPairHandler(log, services.NewQAPairService(log, pairs, jobs)),
		QueueAdmin:      handlers.NewQueueAdminHandler(log, jobs),
		SSEHandler:      handlers.NewSSEHandler(log, sse.NewHub(log)),
	})
	return router, jobs
}

func TestHealthcheck(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
}

func TestTenantHeaderRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/questions?deal_id="+uuid.NewString(), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing header: want=400 got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/questions?deal_id="+uuid.NewString(), nil)
	req.Header.Set("X-Tenant-ID", "not-a-uuid")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad header: want=400 got=%d", rec.Code)
	}
}

func TestUploadEndpointCreatesDocument(t *testing.T) {
	router, jobs := newTestRouter(t)
	tenantID := uuid.New()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("project_id", uuid.NewString()); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	part, err := form.CreateFormFile("file", "kb.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("some knowledge text")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("X-Tenant-ID", tenantID.String())
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var doc types.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.DocumentType != types.DocumentTypeKnowledge {
		t.Fatalf("document_type: got=%q", doc.DocumentType)
	}
	if len(jobs.byQueue[queue.QueueDocumentProcessing]) != 1 {
		t.Fatalf("processing job not enqueued")
	}
}

func TestQueueAdminEndpoints(t *testing.T) {
	router, jobs := newTestRouter(t)
	id := uuid.New()
	jobs.byQueue[queue.QueueDocumentProcessing] = []queue.Job{{JobType: queue.JobTypeProcessDocument, DocumentID: &id}}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/queues", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("lengths: want=200 got=%d", rec.Code)
	}
	var lengths map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &lengths); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if lengths[queue.QueueDocumentProcessing] != 1 {
		t.Fatalf("lengths: %+v", lengths)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/queues/bogus", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown queue: want=404 got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/queues/"+queue.QueueDocumentProcessing, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear: want=200 got=%d", rec.Code)
	}
	if len(jobs.byQueue[queue.QueueDocumentProcessing]) != 0 {
		t.Fatalf("queue not cleared")
	}
}
