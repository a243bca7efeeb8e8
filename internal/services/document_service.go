package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/apierr"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// DocumentService owns upload and reprocess. Processing itself happens
// on the worker side; this layer persists, stores the blob, and
// enqueues.
type DocumentService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	blobs    *blobstore.Store
	jobs     queue.Queue
	notifier *realtime.Notifier
}

func NewDocumentService(
	log *logger.Logger,
	docs repos.DocumentRepo,
	blobs *blobstore.Store,
	jobs queue.Queue,
	notifier *realtime.Notifier,
) *DocumentService {
	return &DocumentService{
		log:      log.With("service", "DocumentService"),
		docs:     docs,
		blobs:    blobs,
		jobs:     jobs,
		notifier: notifier,
	}
}

type UploadParams struct {
	TenantID  uuid.UUID
	ProjectID uuid.UUID
	// DealID marks the upload as a deal document (question source).
	DealID   *uuid.UUID
	Filename string
	MimeType string
	Content  io.Reader
}

func (p UploadParams) validate() error {
	if p.TenantID == uuid.Nil || p.ProjectID == uuid.Nil {
		return apierr.New(http.StatusBadRequest, "validation", fmt.Errorf("tenant_id and project_id are required"))
	}
	if strings.TrimSpace(p.Filename) == "" {
		return apierr.New(http.StatusBadRequest, "validation", fmt.Errorf("filename is required"))
	}
	if p.Content == nil {
		return apierr.New(http.StatusBadRequest, "validation", fmt.Errorf("file content is required"))
	}
	return nil
}

func (s *DocumentService) Upload(ctx context.Context, p UploadParams) (*types.Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	docType := types.DocumentTypeKnowledge
	if p.DealID != nil {
		docType = types.DocumentTypeDeal
	}

	docID := uuid.New()
	key := fmt.Sprintf("originals/%s/%s/%s", p.TenantID, docID, p.Filename)
	if _, err := s.blobs.Save(ctx, key, p.Content); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc, err := s.docs.Create(ctx, nil, &types.Document{
		ID:           docID,
		TenantID:     p.TenantID,
		ProjectID:    p.ProjectID,
		DealID:       p.DealID,
		DocumentType: docType,
		Filename:     p.Filename,
		MimeType:     p.MimeType,
		StoragePath:  key,
		Status:       types.DocumentStatusUploaded,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.enqueue(ctx, doc, doc.ProcessingVersion); err != nil {
		return nil, err
	}
	s.notifier.DocumentStatus(ctx, doc.TenantID, doc.ID, string(types.DocumentStatusUploaded))
	s.log.Info("document uploaded", "document_id", doc.ID, "type", docType, "filename", p.Filename)
	return doc, nil
}

// Reprocess bumps the processing version so any in-flight job for the
// old generation becomes a no-op, then enqueues a fresh job.
func (s *DocumentService) Reprocess(ctx context.Context, tenantID, documentID uuid.UUID) (*types.Document, error) {
	version, err := s.docs.BumpVersion(ctx, nil, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("bump version: %w", err)
	}
	doc, err := s.docs.GetByID(ctx, nil, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, doc, version); err != nil {
		return nil, err
	}
	s.notifier.DocumentStatus(ctx, tenantID, documentID, string(types.DocumentStatusUploaded))
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, tenantID, documentID uuid.UUID) (*types.Document, error) {
	return s.docs.GetByID(ctx, nil, tenantID, documentID)
}

func (s *DocumentService) ListByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]*types.Document, error) {
	return s.docs.ListByProject(ctx, nil, tenantID, projectID)
}

func (s *DocumentService) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]*types.Document, error) {
	return s.docs.ListByDeal(ctx, nil, tenantID, dealID)
}

func (s *DocumentService) enqueue(ctx context.Context, doc *types.Document, version int) error {
	documentID := doc.ID
	if err := s.jobs.Enqueue(ctx, queue.QueueDocumentProcessing, queue.Job{
		JobType:           queue.JobTypeProcessDocument,
		TenantID:          doc.TenantID,
		DocumentID:        &documentID,
		DealID:            doc.DealID,
		ProcessingVersion: version,
	}); err != nil {
		return fmt.Errorf("enqueue document %s: %w", doc.ID, err)
	}
	return nil
}
