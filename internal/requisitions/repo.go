package requisitions

import (
	"context"
	"errors"
)

// ErrNotFound signals a missing requisition.
var ErrNotFound = errors.New("requisition not found")

// Repo defines persistence operations for job requisitions.
type Repo interface {
	Create(ctx context.Context, req Requisition, assessments []Assessment) error
	GetByID(ctx context.Context, id string) (Requisition, error)
	ListAssessments(ctx context.Context, requisitionID string) ([]Assessment, error)
}
