package followup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// Sources of a classification.
const (
	SourceHTTP   = "http"
	SourceCLI    = "cli"
	SourceWorker = "worker"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ClassificationRecord is the audit entry written for every successful
// classification.
type ClassificationRecord struct {
	ID        uuid.UUID     `json:"id"`
	RequestID string        `json:"request_id,omitempty"`
	Source    string        `json:"source"`
	Sentence  string        `json:"sentence"`
	Result    nodule.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewClassificationRecord stamps a new record with a fresh id.
func NewClassificationRecord(source, requestID, sentence string, res nodule.Result) *ClassificationRecord {
	return &ClassificationRecord{
		ID:        uuid.New(),
		RequestID: requestID,
		Source:    source,
		Sentence:  sentence,
		Result:    res,
	}
}

// ClassificationRepository persists audit records.
type ClassificationRepository interface {
	Save(ctx context.Context, rec *ClassificationRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*ClassificationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*ClassificationRecord, error)
}

// ClampListLimit maps a requested page size into [1, MaxListLimit];
// non-positive values become DefaultListLimit.
func ClampListLimit(limit int) int {
	if limit < 1 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

//Personal.AI order the ending
