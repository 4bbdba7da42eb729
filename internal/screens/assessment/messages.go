package assessment

import (
	"context"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/assessly/internal/api"
	domain "github.com/abhisek/assessly/internal/assessment"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/countdown"
)

// Backend is the slice of the API client the screen needs.
type Backend interface {
	StartAssessment(ctx context.Context, studentID string, step int) (*api.Assessment, error)
	GetQuestionsByAssessment(ctx context.Context, assessmentID string) ([]api.Question, error)
	SubmitAssessment(ctx context.Context, assessmentID string, answers []api.AnswerSubmission) (*api.SubmitResult, error)
	GenerateCertificate(ctx context.Context, assessmentID string) (*api.Certificate, error)
}

type tickMsg struct {
	gen countdown.Generation
}

type startedMsg struct {
	assessmentID string
	questions    []catalog.Question
	err          error
}

type submittedMsg struct {
	result *api.SubmitResult
	err    error
}

type certificateMsg struct {
	path string
	err  error
}

type planPollMsg struct{}

const planPollInterval = 250 * time.Millisecond

func tickCmd(gen countdown.Generation) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func planPollCmd() tea.Cmd {
	return tea.Tick(planPollInterval, func(time.Time) tea.Msg {
		return planPollMsg{}
	})
}

// startCmd creates the attempt and loads its questions. Both must succeed
// for the start to count.
func startCmd(backend Backend, req domain.StartRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		a, err := backend.StartAssessment(ctx, req.StudentID, req.Step)
		if err != nil {
			return startedMsg{err: err}
		}
		wire, err := backend.GetQuestionsByAssessment(ctx, a.ID)
		if err != nil {
			return startedMsg{err: err}
		}
		qs := make([]catalog.Question, len(wire))
		for i, q := range wire {
			qs[i] = q.ToCatalog()
		}
		return startedMsg{assessmentID: a.ID, questions: qs}
	}
}

func submitCmd(backend Backend, req domain.SubmitRequest) tea.Cmd {
	return func() tea.Msg {
		answers := make([]api.AnswerSubmission, len(req.Answers))
		for i, a := range req.Answers {
			answers[i] = api.AnswerSubmission{QuestionID: a.QuestionID, Answer: a.Answer}
		}
		res, err := backend.SubmitAssessment(context.Background(), req.AssessmentID, answers)
		return submittedMsg{result: res, err: err}
	}
}

func certificateCmd(backend Backend, assessmentID, dir string) tea.Cmd {
	return func() tea.Msg {
		cert, err := backend.GenerateCertificate(context.Background(), assessmentID)
		if err != nil {
			return certificateMsg{err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return certificateMsg{err: err}
		}
		path, err := cert.SavePath(dir)
		if err != nil {
			return certificateMsg{err: err}
		}
		if err := os.WriteFile(path, cert.Body, 0o644); err != nil {
			return certificateMsg{err: err}
		}
		return certificateMsg{path: path}
	}
}
