package requisitions

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu          sync.RWMutex
	data        map[string]Requisition
	assessments map[string][]Assessment
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data:        make(map[string]Requisition),
		assessments: make(map[string][]Assessment),
	}
}

// Create stores a requisition and its assessments.
func (r *MemoryRepo) Create(ctx context.Context, req Requisition, assessments []Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[req.ID] = req
	r.assessments[req.ID] = append([]Assessment(nil), assessments...)
	return nil
}

// GetByID returns a requisition by its identifier.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Requisition, error) {
	if err := ctx.Err(); err != nil {
		return Requisition{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.data[id]
	if !ok {
		return Requisition{}, ErrNotFound
	}
	return req, nil
}

// ListAssessments returns the assessments assigned to a requisition.
func (r *MemoryRepo) ListAssessments(ctx context.Context, requisitionID string) ([]Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Assessment(nil), r.assessments[requisitionID]...), nil
}

var _ Repo = (*MemoryRepo)(nil)
