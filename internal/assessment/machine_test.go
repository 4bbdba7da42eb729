package assessment

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/assessly/internal/catalog"
)

func testQuestions(n int) []catalog.Question {
	qs := make([]catalog.Question, n)
	for i := range qs {
		id := string(rune('a' + i))
		qs[i] = catalog.Question{
			ID:            "q" + id,
			Competency:    "Reading",
			Level:         catalog.LevelA1,
			Prompt:        "Question " + id,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		}
	}
	return qs
}

// activeMachine drives a fresh machine into the active phase with n questions.
func activeMachine(t *testing.T, n int) *Machine {
	t.Helper()
	m := New(zerolog.Nop())
	require.NoError(t, m.ConfirmStep())
	require.NoError(t, m.ToggleAcknowledgement(AckRules))
	require.NoError(t, m.ToggleAcknowledgement(AckIntegrity))
	_, err := m.BeginStart("student-1")
	require.NoError(t, err)
	_, err = m.CompleteStart("asm-1", testQuestions(n))
	require.NoError(t, err)
	require.Equal(t, PhaseActive, m.Phase())
	return m
}

func TestNewMachineDefaults(t *testing.T) {
	m := New(zerolog.Nop())
	assert.Equal(t, PhaseSelection, m.Phase())
	assert.Equal(t, 1, m.SelectedStep())
	assert.False(t, m.Reviewing())
	assert.Nil(t, m.Result())
	assert.Empty(t, m.Questions())
}

func TestSelectStep(t *testing.T) {
	m := New(zerolog.Nop())
	require.NoError(t, m.SelectStep(3))
	assert.Equal(t, 3, m.SelectedStep())
	assert.ErrorIs(t, m.SelectStep(4), ErrUnknownStep)
	assert.ErrorIs(t, m.SelectStep(0), ErrUnknownStep)
	assert.Equal(t, 3, m.SelectedStep())
}

func TestStartRequiresBothAcknowledgements(t *testing.T) {
	m := New(zerolog.Nop())
	require.NoError(t, m.ConfirmStep())
	assert.Equal(t, PhaseInstructions, m.Phase())

	_, err := m.BeginStart("s")
	assert.ErrorIs(t, err, ErrNotAcknowledged)
	assert.False(t, m.CanStart())

	require.NoError(t, m.ToggleAcknowledgement(AckRules))
	_, err = m.BeginStart("s")
	assert.ErrorIs(t, err, ErrNotAcknowledged)

	require.NoError(t, m.ToggleAcknowledgement(AckIntegrity))
	assert.True(t, m.CanStart())

	req, err := m.BeginStart("s")
	require.NoError(t, err)
	assert.Equal(t, StartRequest{StudentID: "s", Step: 1}, req)
	assert.True(t, m.Starting())
	assert.False(t, m.CanStart())

	_, err = m.BeginStart("s")
	assert.ErrorIs(t, err, ErrStartInFlight)
}

func TestFailedStartLeavesInstructions(t *testing.T) {
	m := New(zerolog.Nop())
	require.NoError(t, m.ConfirmStep())
	require.NoError(t, m.ToggleAcknowledgement(AckRules))
	require.NoError(t, m.ToggleAcknowledgement(AckIntegrity))
	_, err := m.BeginStart("s")
	require.NoError(t, err)

	m.FailStart(errors.New("network down"))

	assert.Equal(t, PhaseInstructions, m.Phase())
	assert.False(t, m.Starting())
	assert.Empty(t, m.AssessmentID())
	assert.True(t, m.Acknowledged(AckRules))
	assert.True(t, m.CanStart())
}

func TestCompleteStartWithNoQuestions(t *testing.T) {
	m := New(zerolog.Nop())
	require.NoError(t, m.ConfirmStep())
	require.NoError(t, m.ToggleAcknowledgement(AckRules))
	require.NoError(t, m.ToggleAcknowledgement(AckIntegrity))
	_, err := m.BeginStart("s")
	require.NoError(t, err)

	_, err = m.CompleteStart("asm", nil)
	assert.ErrorIs(t, err, ErrNoQuestions)
	assert.Equal(t, PhaseInstructions, m.Phase())
	assert.False(t, m.Starting())
}

func TestCompleteStartArmsClock(t *testing.T) {
	m := activeMachine(t, 3)
	assert.Equal(t, "asm-1", m.AssessmentID())
	assert.Equal(t, 30*60, m.TimeRemaining())
	assert.True(t, m.TimerActive())
	assert.Equal(t, 0, m.CurrentIndex())
}

func TestSubmitRejectedWithUnanswered(t *testing.T) {
	m := activeMachine(t, 3)
	qs := m.Questions()
	require.NoError(t, m.SelectAnswer(qs[0].ID, "A"))
	require.NoError(t, m.SelectAnswer(qs[2].ID, "B"))

	_, err := m.BeginSubmit(false)
	var unanswered *UnansweredError
	require.ErrorAs(t, err, &unanswered)
	assert.Len(t, unanswered.Questions, 1)
	assert.Equal(t, []int{2}, unanswered.Numbers(qs))
	assert.False(t, m.Submitting())
	assert.Equal(t, PhaseActive, m.Phase())

	require.NoError(t, m.SelectAnswer(qs[1].ID, "C"))
	req, err := m.BeginSubmit(false)
	require.NoError(t, err)
	assert.Equal(t, "asm-1", req.AssessmentID)
	assert.Len(t, req.Answers, 3)
	assert.False(t, req.Forced)
	assert.Equal(t, qs[0].ID, req.Answers[0].QuestionID)
}

func TestDoubleSubmitSendsOnce(t *testing.T) {
	m := activeMachine(t, 1)
	require.NoError(t, m.SelectAnswer(m.Questions()[0].ID, "A"))

	_, err := m.BeginSubmit(false)
	require.NoError(t, err)
	_, err = m.BeginSubmit(false)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = m.BeginSubmit(true)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	require.NoError(t, m.CompleteSubmit(Result{Score: 100, CertifiedLevel: "A1/A2 Certified", CorrectCount: 1, TotalQuestions: 1}))
	_, err = m.BeginSubmit(true)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestAnswersFrozenWhileSubmitting(t *testing.T) {
	m := activeMachine(t, 1)
	id := m.Questions()[0].ID
	require.NoError(t, m.SelectAnswer(id, "A"))
	_, err := m.BeginSubmit(false)
	require.NoError(t, err)

	assert.ErrorIs(t, m.SelectAnswer(id, "B"), ErrSubmissionInFlight)
	assert.ErrorIs(t, m.ToggleFlag(id), ErrSubmissionInFlight)
	a, _ := m.Answer(id)
	assert.Equal(t, "A", a)
}

func TestFailedSubmitStaysActive(t *testing.T) {
	m := activeMachine(t, 1)
	require.NoError(t, m.SelectAnswer(m.Questions()[0].ID, "A"))
	_, err := m.BeginSubmit(false)
	require.NoError(t, err)

	m.FailSubmit(errors.New("503"))

	assert.Equal(t, PhaseActive, m.Phase())
	assert.False(t, m.Submitting())
	assert.Nil(t, m.Result())
	assert.True(t, m.TimerActive())

	_, err = m.BeginSubmit(false)
	assert.NoError(t, err)
}

func TestSelectAnswerReplaces(t *testing.T) {
	m := activeMachine(t, 2)
	id := m.Questions()[0].ID
	require.NoError(t, m.SelectAnswer(id, "A"))
	require.NoError(t, m.SelectAnswer(id, "D"))

	a, ok := m.Answer(id)
	assert.True(t, ok)
	assert.Equal(t, "D", a)
	assert.Equal(t, 1, m.Progress().Answered)

	assert.ErrorIs(t, m.SelectAnswer("nope", "A"), ErrUnknownQuestion)
}

func TestToggleFlagTwiceRestores(t *testing.T) {
	m := activeMachine(t, 2)
	id := m.Questions()[1].ID

	require.NoError(t, m.ToggleFlag(id))
	assert.True(t, m.IsFlagged(id))
	assert.Equal(t, 1, m.Progress().Flagged)

	require.NoError(t, m.ToggleFlag(id))
	assert.False(t, m.IsFlagged(id))
	assert.Equal(t, 0, m.Progress().Flagged)
}

func TestNavigationClamps(t *testing.T) {
	m := activeMachine(t, 3)
	require.NoError(t, m.Previous())
	assert.Equal(t, 0, m.CurrentIndex())

	require.NoError(t, m.Next())
	require.NoError(t, m.Next())
	require.NoError(t, m.Next())
	assert.Equal(t, 2, m.CurrentIndex())

	require.NoError(t, m.GoToQuestion(1))
	assert.Equal(t, 1, m.CurrentIndex())
	require.NoError(t, m.GoToQuestion(99))
	assert.Equal(t, 2, m.CurrentIndex())
	require.NoError(t, m.GoToQuestion(-5))
	assert.Equal(t, 0, m.CurrentIndex())
}

func TestReviewOverlayKeepsPhase(t *testing.T) {
	m := activeMachine(t, 2)
	require.NoError(t, m.ToggleReview())
	assert.True(t, m.Reviewing())
	assert.Equal(t, PhaseActive, m.Phase())

	require.NoError(t, m.GoToQuestion(1))
	require.NoError(t, m.ToggleReview())
	assert.False(t, m.Reviewing())
	assert.Equal(t, 1, m.CurrentIndex())
}

func TestTimerExpiryForcesSubmit(t *testing.T) {
	m := activeMachine(t, 3)
	require.NoError(t, m.SelectAnswer(m.Questions()[0].ID, "A"))

	gen := m.TickGeneration()
	fired := 0
	for range 30 * 60 {
		if m.Tick(gen) {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	assert.True(t, m.TimeExpired())
	assert.False(t, m.Tick(gen))

	req, err := m.BeginSubmit(true)
	require.NoError(t, err)
	assert.True(t, req.Forced)
	assert.Len(t, req.Answers, 1)
	assert.True(t, m.WasForced())
}

func TestManualRetryAfterExpiryBypassesGate(t *testing.T) {
	m := activeMachine(t, 2)
	gen := m.TickGeneration()
	for range 30 * 60 {
		m.Tick(gen)
	}
	_, err := m.BeginSubmit(true)
	require.NoError(t, err)
	m.FailSubmit(errors.New("timeout"))

	req, err := m.BeginSubmit(false)
	require.NoError(t, err)
	assert.True(t, req.Forced)
}

func TestAnswersFrozenAfterExpiredSubmitFails(t *testing.T) {
	m := activeMachine(t, 2)
	first := m.Questions()[0].ID
	require.NoError(t, m.SelectAnswer(first, "B"))

	gen := m.TickGeneration()
	for range 30 * 60 {
		m.Tick(gen)
	}
	require.True(t, m.TimeExpired())
	_, err := m.BeginSubmit(true)
	require.NoError(t, err)
	m.FailSubmit(errors.New("network down"))

	assert.Equal(t, PhaseActive, m.Phase())
	assert.ErrorIs(t, m.SelectAnswer(first, "A"), ErrTimeExpired)
	assert.ErrorIs(t, m.SelectAnswer(m.Questions()[1].ID, "A"), ErrTimeExpired)
	assert.ErrorIs(t, m.ToggleFlag(first), ErrTimeExpired)
	assert.Equal(t, map[string]string{first: "B"}, m.Answers())
	assert.Equal(t, 0, m.Progress().Flagged)

	req, err := m.BeginSubmit(false)
	require.NoError(t, err)
	assert.True(t, req.Forced)
	assert.Equal(t, []AnswerSubmission{{QuestionID: first, Answer: "B"}}, req.Answers)
}

func TestExpiryDuringManualSubmit(t *testing.T) {
	m := activeMachine(t, 1)
	q := m.Questions()[0].ID
	require.NoError(t, m.SelectAnswer(q, "A"))
	_, err := m.BeginSubmit(false)
	require.NoError(t, err)

	gen := m.TickGeneration()
	expired := false
	for range 30 * 60 {
		if m.Tick(gen) {
			expired = true
		}
	}
	require.True(t, expired)
	_, err = m.BeginSubmit(true)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	m.FailSubmit(errors.New("gateway timeout"))
	assert.ErrorIs(t, m.SelectAnswer(q, "B"), ErrTimeExpired)

	req, err := m.BeginSubmit(false)
	require.NoError(t, err)
	assert.True(t, req.Forced)
	assert.Equal(t, "A", req.Answers[0].Answer)
}

func TestStaleTickIgnoredAfterLeave(t *testing.T) {
	m := activeMachine(t, 1)
	gen := m.TickGeneration()
	before := m.TimeRemaining()
	m.Leave()
	assert.False(t, m.Tick(gen))
	assert.Equal(t, before, m.TimeRemaining())
	assert.False(t, m.TimerActive())
}

func TestCompletedClockStopped(t *testing.T) {
	m := activeMachine(t, 1)
	gen := m.TickGeneration()
	require.NoError(t, m.SelectAnswer(m.Questions()[0].ID, "A"))
	_, err := m.BeginSubmit(false)
	require.NoError(t, err)
	require.NoError(t, m.CompleteSubmit(Result{Score: 80}))

	assert.Equal(t, PhaseCompleted, m.Phase())
	assert.False(t, m.TimerActive())
	assert.False(t, m.Tick(gen))
	assert.ErrorIs(t, m.SelectAnswer(m.Questions()[0].ID, "B"), ErrWrongPhase)
}

func completedMachine(t *testing.T, step, score int) *Machine {
	t.Helper()
	m := New(zerolog.Nop())
	require.NoError(t, m.SelectStep(step))
	require.NoError(t, m.ConfirmStep())
	require.NoError(t, m.ToggleAcknowledgement(AckRules))
	require.NoError(t, m.ToggleAcknowledgement(AckIntegrity))
	_, err := m.BeginStart("s")
	require.NoError(t, err)
	_, err = m.CompleteStart("asm", testQuestions(2))
	require.NoError(t, err)
	require.NoError(t, m.SelectAnswer(m.Questions()[0].ID, "A"))
	require.NoError(t, m.ToggleFlag(m.Questions()[0].ID))
	require.NoError(t, m.GoToQuestion(1))
	require.NoError(t, m.ToggleReview())
	_, err = m.BeginSubmit(true)
	require.NoError(t, err)
	require.NoError(t, m.CompleteSubmit(Result{Score: score}))
	require.Len(t, m.Answers(), 1)
	return m
}

func assertFreshSelection(t *testing.T, m *Machine) {
	t.Helper()
	assert.Equal(t, PhaseSelection, m.Phase())
	assert.Empty(t, m.Answers())
	assert.Equal(t, 0, m.Progress().Flagged)
	assert.Equal(t, 0, m.CurrentIndex())
	assert.False(t, m.Reviewing())
	assert.False(t, m.Acknowledged(AckRules))
	assert.False(t, m.Acknowledged(AckIntegrity))
	assert.Empty(t, m.AssessmentID())
	assert.Empty(t, m.Questions())
	assert.Nil(t, m.Result())
	assert.False(t, m.TimerActive())
	assert.False(t, m.TimeExpired())
}

func TestProceedToNextStep(t *testing.T) {
	m := completedMachine(t, 1, 80)
	assert.True(t, m.CanProceed())
	require.NoError(t, m.ProceedToNextStep())
	assert.Equal(t, 2, m.SelectedStep())
	assertFreshSelection(t, m)
}

func TestProceedRequiresEligibleScore(t *testing.T) {
	m := completedMachine(t, 1, 74)
	assert.False(t, m.CanProceed())
	assert.ErrorIs(t, m.ProceedToNextStep(), ErrNotEligible)
	assert.Equal(t, PhaseCompleted, m.Phase())
}

func TestProceedFromLastStep(t *testing.T) {
	m := completedMachine(t, 3, 95)
	assert.False(t, m.CanProceed())
	assert.ErrorIs(t, m.ProceedToNextStep(), ErrNoNextStep)
}

func TestTakeAnotherKeepsStep(t *testing.T) {
	m := completedMachine(t, 2, 10)
	require.NoError(t, m.TakeAnother())
	assert.Equal(t, 2, m.SelectedStep())
	assertFreshSelection(t, m)
}

func TestOperationsRejectedInWrongPhase(t *testing.T) {
	m := New(zerolog.Nop())
	assert.ErrorIs(t, m.ToggleReview(), ErrWrongPhase)
	assert.ErrorIs(t, m.ToggleAcknowledgement(AckRules), ErrWrongPhase)
	assert.ErrorIs(t, m.TakeAnother(), ErrWrongPhase)
	_, err := m.BeginSubmit(true)
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = m.BeginStart("s")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Selection", PhaseSelection.String())
	assert.Equal(t, "Completed", PhaseCompleted.String())
	assert.Equal(t, "Unknown", Phase(42).String())
}
