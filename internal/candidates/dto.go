package candidates

import "time"

// CandidateResponse is the outward-facing representation of a candidate.
type CandidateResponse struct {
	CandidateID   string  `json:"candidateId"`
	RequisitionID string  `json:"requisitionId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Location      string  `json:"location,omitempty"`
	Status        string  `json:"status,omitempty"`
	MatchingScore int     `json:"matchingScore"`
	Justification string  `json:"justification,omitempty"`
	Rating        float64 `json:"rating"`

	Skills            []string `json:"skills"`
	Tools             []string `json:"tools"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	EducationLevel    string   `json:"educationLevel,omitempty"`

	InProgress      bool       `json:"inProgress"`
	Failed          bool       `json:"failed"`
	LastError       string     `json:"lastError,omitempty"`
	LastEvaluatedAt *time.Time `json:"lastEvaluatedAt,omitempty"`

	Assessments []AssessmentResponse `json:"assessments"`

	CreatedAt time.Time `json:"createdAt"`
}

// AssessmentResponse is one assessment row in the candidate view.
type AssessmentResponse struct {
	AssessmentID   string  `json:"assessmentId"`
	AssessmentName string  `json:"assessmentName,omitempty"`
	Sent           bool    `json:"sent"`
	Completed      bool    `json:"completed"`
	Score          float64 `json:"score"`
}

func toResponse(cand Candidate, records []AssessmentRecord) CandidateResponse {
	assessments := make([]AssessmentResponse, 0, len(records))
	for _, rec := range records {
		assessments = append(assessments, AssessmentResponse{
			AssessmentID:   rec.AssessmentID,
			AssessmentName: rec.AssessmentName,
			Sent:           rec.Sent,
			Completed:      rec.Completed,
			Score:          rec.Score,
		})
	}

	skills := cand.Skills
	if skills == nil {
		skills = []string{}
	}
	tools := cand.Tools
	if tools == nil {
		tools = []string{}
	}

	return CandidateResponse{
		CandidateID:       cand.ID,
		RequisitionID:     cand.RequisitionID,
		FirstName:         cand.FirstName,
		LastName:          cand.LastName,
		Email:             cand.Email,
		Location:          cand.Location,
		Status:            cand.Status,
		MatchingScore:     cand.MatchingScore,
		Justification:     cand.Justification,
		Rating:            cand.Rating,
		Skills:            skills,
		Tools:             tools,
		YearsOfExperience: cand.YearsOfExperience,
		EducationLevel:    cand.EducationLevel,
		InProgress:        cand.InProgress,
		Failed:            cand.Failed,
		LastError:         cand.LastError,
		LastEvaluatedAt:   cand.LastEvaluatedAt,
		Assessments:       assessments,
		CreatedAt:         cand.CreatedAt,
	}
}
