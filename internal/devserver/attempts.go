package devserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/scoring"
)

var (
	errAttemptNotFound  = errors.New("assessment not found")
	errAlreadySubmitted = errors.New("assessment already submitted")
)

type attempt struct {
	ID          string
	StudentID   string
	Step        int
	Questions   []catalog.Question
	StartedAt   time.Time
	SubmittedAt *time.Time
	Result      *api.SubmitResult
}

func (a *attempt) toAPI() api.Assessment {
	out := api.Assessment{
		ID:          a.ID,
		StudentID:   a.StudentID,
		Step:        a.Step,
		StartedAt:   a.StartedAt,
		SubmittedAt: a.SubmittedAt,
	}
	if a.Result != nil {
		score := a.Result.Score
		out.Score = &score
		out.CertifiedLevel = a.Result.CertifiedLevel
	}
	return out
}

// attemptStore holds attempts in memory.
type attemptStore struct {
	mu   sync.RWMutex
	byID map[string]*attempt
	now  func() time.Time
}

func newAttemptStore() *attemptStore {
	return &attemptStore{byID: make(map[string]*attempt), now: time.Now}
}

// Create records a new attempt with its fixed question list.
func (s *attemptStore) Create(studentID string, step int, questions []catalog.Question) api.Assessment {
	a := &attempt{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Step:      step,
		Questions: questions,
		StartedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.byID[a.ID] = a
	s.mu.Unlock()
	return a.toAPI()
}

// Get returns the attempt with id, owned by studentID.
func (s *attemptStore) Get(id, studentID string) (attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok || a.StudentID != studentID {
		return attempt{}, errAttemptNotFound
	}
	return *a, nil
}

// Submit scores answers once. A second submission fails with
// errAlreadySubmitted and leaves the first result in place.
func (s *attemptStore) Submit(id, studentID string, answers []api.AnswerSubmission) (*api.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok || a.StudentID != studentID {
		return nil, errAttemptNotFound
	}
	if a.Result != nil {
		return nil, errAlreadySubmitted
	}

	byQuestion := make(map[string]string, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans.Answer
	}

	score, err := scoring.CalculateScore(a.Questions, byQuestion)
	if err != nil {
		return nil, err
	}
	res := &api.SubmitResult{
		Score:          score,
		CertifiedLevel: scoring.CertificationLevel(a.Step, score),
		CorrectCount:   scoring.CorrectCount(a.Questions, byQuestion),
		TotalQuestions: len(a.Questions),
	}
	now := s.now().UTC()
	a.SubmittedAt = &now
	a.Result = res

	out := *res
	return &out, nil
}

// ListByStudent returns a student's attempts, newest first.
func (s *attemptStore) ListByStudent(studentID string) []api.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Assessment, 0)
	for _, a := range s.byID {
		if a.StudentID == studentID {
			out = append(out, a.toAPI())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
