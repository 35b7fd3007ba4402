package candidates

import "time"

// Candidate status values. Qualified/NotQualified/Rejected/ErrorHold come out
// of the evaluation pipeline; Accepted/Rejected are the final assessment
// outcomes once every assigned assessment completes.
const (
	StatusQualified    = "Qualified"
	StatusNotQualified = "NotQualified"
	StatusRejected     = "Rejected"
	StatusErrorHold    = "ErrorHold"
	StatusAccepted     = "Accepted"
)

// Experience is one work-history entry, most recent first.
type Experience struct {
	Year        int    `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Education is one education-history entry.
type Education struct {
	Year        int    `json:"year"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Level       string `json:"level"`
}

// AssessmentRecord is one vendor assessment tracked for a candidate,
// unique per assessment id.
type AssessmentRecord struct {
	AssessmentID   string
	AssessmentName string
	Sent           bool
	Completed      bool
	Score          float64
}

// Candidate is a job applicant with their extracted profile and
// evaluation state.
type Candidate struct {
	ID            string
	RequisitionID string

	FirstName string
	LastName  string
	Email     string
	Age       int
	Phones    []string
	Location  string

	ResumeKey       string
	ResumeMediaType string

	Skills            []string
	Tools             []string
	Experiences       []Experience
	Educations        []Education
	YearsOfExperience int
	EducationLevel    string

	MatchingScore int
	Justification string
	Rating        float64
	Status        string

	InProgress      bool
	Failed          bool
	LastError       string
	LastEvaluatedAt *time.Time
	UpdatedBy       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EvaluationResult is the wholesale evaluation-state overwrite persisted at
// the end of a run. Every run replaces the previous result entirely so
// repeated retries converge.
type EvaluationResult struct {
	FirstName string
	LastName  string
	Age       int
	Phones    []string
	Location  string

	Skills            []string
	Tools             []string
	Experiences       []Experience
	Educations        []Education
	YearsOfExperience int
	EducationLevel    string

	MatchingScore int
	Justification string
	Rating        float64
	Status        string

	Failed    bool
	LastError string
}

// AggregateUpdate carries the final-outcome fields written when every
// assigned assessment has completed.
type AggregateUpdate struct {
	Rating float64
	Status string
}

// Capabilities describes which optional persistence features a repo
// supports. Checked once at startup, not per call.
type Capabilities struct {
	AssessmentRows bool
	RowLocking     bool
}
