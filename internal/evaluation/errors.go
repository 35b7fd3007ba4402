package evaluation

import "errors"

var (
	// ErrExtractionFailed signals the extraction output could not be parsed
	// even after stripping wrappers. Fatal to the run.
	ErrExtractionFailed = errors.New("candidate extraction failed")

	// ErrScoringFailed signals the scoring output could not be parsed.
	ErrScoringFailed = errors.New("fit scoring failed")
)
