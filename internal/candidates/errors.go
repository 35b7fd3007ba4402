package candidates

import "errors"

var (
	// ErrNotFound signals a missing candidate.
	ErrNotFound = errors.New("candidate not found")

	// ErrDuplicate signals an application already exists for the same
	// email and requisition.
	ErrDuplicate = errors.New("candidate already applied")

	// ErrEvaluationInProgress signals a run is already holding the
	// candidate's evaluation state.
	ErrEvaluationInProgress = errors.New("evaluation already in progress")

	// ErrCooldown signals a retry was requested before the cooldown expired.
	ErrCooldown = errors.New("evaluation retry cooldown active")

	// ErrNoResume signals the candidate has no stored resume attachment.
	ErrNoResume = errors.New("candidate has no resume attachment")
)
