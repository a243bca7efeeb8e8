package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/repos"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// Tracker appends one audit record per answer write. It never updates
// or deletes history.
type Tracker struct {
	log    *logger.Logger
	audits repos.QuestionAnswerAuditRepo
}

func NewTracker(log *logger.Logger, audits repos.QuestionAnswerAuditRepo) *Tracker {
	return &Tracker{log: log.With("service", "AuditTracker"), audits: audits}
}

// Record snapshots the question's answer after a write. previousText is
// the answer before the write; the stored diff describes previous→new.
func (t *Tracker) Record(
	ctx context.Context,
	tx *gorm.DB,
	question *types.Question,
	previousText string,
	source types.ChangeSource,
	editor string,
) (*types.QuestionAnswerAudit, error) {
	segments := Diff(previousText, question.AnswerText)
	var diffJSON []byte
	if len(segments) > 0 {
		raw, err := json.Marshal(segments)
		if err != nil {
			return nil, fmt.Errorf("encode diff: %w", err)
		}
		diffJSON = raw
	}

	record := &types.QuestionAnswerAudit{
		QuestionID:     question.ID,
		TenantID:       question.TenantID,
		EditorIdentity: editor,
		ChangeSource:   source,
		AnswerText:     question.AnswerText,
		RelevanceScore: question.AnswerRelevanceScore,
		AnswerStatus:   question.AnswerStatus,
		Diff:           diffJSON,
	}
	created, err := t.audits.Create(ctx, tx, record)
	if err != nil {
		return nil, fmt.Errorf("append audit record: %w", err)
	}
	return created, nil
}
