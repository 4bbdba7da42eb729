// Package coach turns a finished attempt into a short study plan using an
// LLM provider.
package coach

import "github.com/abhisek/assessly/internal/scoring"

// PlanInput is everything the coach sees about an attempt.
type PlanInput struct {
	Step           int
	StepName       string
	Score          int
	CertifiedLevel string
	Competencies   []scoring.CompetencyResult
}

// FocusArea is one competency the student should work on.
type FocusArea struct {
	Competency string
	Advice     string
}

// StudyPlan is the coach's recommendation after an attempt.
type StudyPlan struct {
	Summary    string
	FocusAreas []FocusArea
}

// Outcome is a finished generation: either Plan or Err is set.
type Outcome struct {
	Plan *StudyPlan
	Err  error
}
