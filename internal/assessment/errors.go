package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/assessly/internal/catalog"
)

var (
	ErrWrongPhase         = errors.New("operation not allowed in the current phase")
	ErrUnknownStep        = errors.New("unknown assessment step")
	ErrNotAcknowledged    = errors.New("both instructions must be acknowledged before starting")
	ErrStartInFlight      = errors.New("assessment start already in progress")
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrAlreadyCompleted   = errors.New("assessment already submitted")
	ErrNoQuestions        = errors.New("assessment has no questions")
	ErrTimeExpired        = errors.New("time is up, answers can no longer change")
	ErrUnknownQuestion    = errors.New("question is not part of this attempt")
	ErrNotEligible        = errors.New("score does not qualify for the next step")
	ErrNoNextStep         = errors.New("no further assessment step")
)

// UnansweredError is returned when a manual submission is attempted while
// questions remain unanswered.
type UnansweredError struct {
	Questions []catalog.Question
}

func (e *UnansweredError) Error() string {
	return fmt.Sprintf("must answer all questions to submit: %d unanswered", len(e.Questions))
}

// Numbers returns the 1-based positions of the unanswered questions within
// the attempt, given the attempt's full question list.
func (e *UnansweredError) Numbers(all []catalog.Question) []int {
	pos := make(map[string]int, len(all))
	for i, q := range all {
		pos[q.ID] = i + 1
	}
	out := make([]int, 0, len(e.Questions))
	for _, q := range e.Questions {
		out = append(out, pos[q.ID])
	}
	return out
}

func phaseError(op string, p Phase) error {
	return fmt.Errorf("%w: %s during %s", ErrWrongPhase, op, strings.ToLower(p.String()))
}
