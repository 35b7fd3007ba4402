package evaluation

import "jobmatch-backend/internal/candidates"

// CandidateProfile is the structured extraction result the model must
// return. Every list field defaults to empty, never null, so downstream
// merges stay total.
type CandidateProfile struct {
	FirstName         string                 `json:"firstName"`
	LastName          string                 `json:"lastName"`
	Title             string                 `json:"title"`
	Age               int                    `json:"age"`
	Email             string                 `json:"email"`
	Phones            []string               `json:"phones"`
	Location          string                 `json:"location"`
	Skills            []string               `json:"skills"`
	Tools             []string               `json:"tools"`
	Experiences       []candidates.Experience `json:"experiences"`
	Educations        []candidates.Education  `json:"educations"`
	YearsOfExperience int                    `json:"yearsOfExperience"`
	EducationLevel    string                 `json:"educationLevel"`
}

// normalize fills nil list fields with empty values.
func (p *CandidateProfile) normalize() {
	if p.Phones == nil {
		p.Phones = []string{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Tools == nil {
		p.Tools = []string{}
	}
	if p.Experiences == nil {
		p.Experiences = []candidates.Experience{}
	}
	if p.Educations == nil {
		p.Educations = []candidates.Education{}
	}
}

// JobProfile is the structured requisition side of the comparison.
type JobProfile struct {
	RequiredSkills         []string `json:"requiredSkills"`
	RequiredTools          []string `json:"requiredTools"`
	MinimumExperience      int      `json:"minimumExperience"`
	RequiredEducationLevel string   `json:"requiredEducationLevel"`
	Description            string   `json:"description"`
}

// MatchResult is the scoring stage output.
type MatchResult struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Classification is the classifier stage output.
type Classification struct {
	IsResume bool   `json:"isResume"`
	Reason   string `json:"reason"`
}
