package requisitions

import "time"

// Requisition is a job opening with its structured requirements.
type Requisition struct {
	ID                     string
	Title                  string
	Description            string
	RequiredSkills         []string
	RequiredTools          []string
	MinimumExperience      int
	RequiredEducationLevel string
	CreatedAt              time.Time
}

// Assessment is a vendor assessment assigned to a requisition.
type Assessment struct {
	AssessmentID   string
	AssessmentName string
}
