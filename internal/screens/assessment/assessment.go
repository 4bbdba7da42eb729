package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	domain "github.com/abhisek/assessly/internal/assessment"
	"github.com/abhisek/assessly/internal/auth"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/coach"
	"github.com/abhisek/assessly/internal/countdown"
	"github.com/abhisek/assessly/internal/router"
	"github.com/abhisek/assessly/internal/scoring"
	"github.com/abhisek/assessly/internal/screen"
	"github.com/abhisek/assessly/internal/store"
	"github.com/abhisek/assessly/internal/ui/components"
	"github.com/abhisek/assessly/internal/ui/layout"
	"github.com/abhisek/assessly/internal/ui/theme"
)

// Focus targets on the instructions page.
const (
	focusRules = iota
	focusIntegrity
	focusStart
	numFocus
)

type planState int

const (
	planIdle planState = iota
	planPending
	planReady
	planFailed
)

// Deps are the collaborators of the assessment screen. Attempts and Coach
// may be nil.
type Deps struct {
	Backend     Backend
	Identity    *auth.Identity
	Attempts    store.AttemptRepo
	Coach       *coach.Service
	DownloadDir string
	Logger      zerolog.Logger
}

// AssessmentScreen drives one assessment from step selection to results.
type AssessmentScreen struct {
	deps    Deps
	log     zerolog.Logger
	machine *domain.Machine

	choice       components.MultiChoice
	choiceFor    string
	ackFocus     int
	reviewCursor int
	confirmLeave bool

	notice    string
	noticeErr bool

	certPending bool
	certPath    string

	plan      planState
	studyPlan *coach.StudyPlan

	startedAt time.Time
}

var _ screen.Screen = (*AssessmentScreen)(nil)

// New creates an assessment screen in the selection phase.
func New(deps Deps) *AssessmentScreen {
	log := deps.Logger.With().Str("screen", "assessment").Logger()
	return &AssessmentScreen{
		deps:    deps,
		log:     log,
		machine: domain.New(deps.Logger),
	}
}

func (s *AssessmentScreen) Init() tea.Cmd {
	return nil
}

func (s *AssessmentScreen) Title() string {
	switch s.machine.Phase() {
	case domain.PhaseSelection:
		return "Choose a Step"
	case domain.PhaseInstructions:
		return fmt.Sprintf("Step %d · Instructions", s.machine.SelectedStep())
	case domain.PhaseActive:
		if s.machine.Reviewing() {
			return fmt.Sprintf("Step %d · Review", s.machine.SelectedStep())
		}
		return fmt.Sprintf("Step %d · %s", s.machine.SelectedStep(), s.machine.Step().LevelLabel())
	default:
		return fmt.Sprintf("Step %d · Results", s.machine.SelectedStep())
	}
}

// HeaderStatus shows the countdown while an attempt is running.
func (s *AssessmentScreen) HeaderStatus() string {
	if s.machine.Phase() != domain.PhaseActive {
		return ""
	}
	rem := s.machine.TimeRemaining()
	return theme.TimerStyle(rem).Render("⏱ " + countdown.Format(rem))
}

// HandlesEscape keeps the app from popping a running attempt without
// confirmation.
func (s *AssessmentScreen) HandlesEscape() bool {
	return s.machine.Phase() == domain.PhaseActive
}

// Leave stops the clock. Ticks already scheduled are ignored on arrival.
func (s *AssessmentScreen) Leave() {
	s.machine.Leave()
}

func (s *AssessmentScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return s, s.handleTick(msg)
	case startedMsg:
		return s, s.handleStarted(msg)
	case submittedMsg:
		return s, s.handleSubmitted(msg)
	case certificateMsg:
		s.certPending = false
		if msg.err != nil {
			s.setError("Certificate download failed: " + msg.err.Error())
			return s, nil
		}
		s.certPath = msg.path
		s.setNotice("Certificate saved to " + msg.path)
		return s, nil
	case planPollMsg:
		return s, s.pollPlan()
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *AssessmentScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch s.machine.Phase() {
	case domain.PhaseSelection:
		return s.selectionKey(msg)
	case domain.PhaseInstructions:
		return s.instructionsKey(msg)
	case domain.PhaseActive:
		return s.activeKey(msg)
	case domain.PhaseCompleted:
		return s.completedKey(msg)
	}
	return nil
}

func (s *AssessmentScreen) selectionKey(msg tea.KeyMsg) tea.Cmd {
	switch key := msg.String(); key {
	case "up", "k":
		s.report(s.machine.SelectStep(max(s.machine.SelectedStep()-1, catalog.FirstStep)))
	case "down", "j":
		s.report(s.machine.SelectStep(min(s.machine.SelectedStep()+1, catalog.LastStep)))
	case "1", "2", "3":
		s.report(s.machine.SelectStep(int(key[0] - '0')))
	case "enter":
		if err := s.machine.ConfirmStep(); err != nil {
			s.setError(err.Error())
			return nil
		}
		s.ackFocus = focusRules
		s.clearNotice()
	}
	return nil
}

func (s *AssessmentScreen) instructionsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k", "shift+tab":
		s.ackFocus = (s.ackFocus + numFocus - 1) % numFocus
	case "down", "j", "tab":
		s.ackFocus = (s.ackFocus + 1) % numFocus
	case "space", "enter", "x":
		switch s.ackFocus {
		case focusRules:
			s.report(s.machine.ToggleAcknowledgement(domain.AckRules))
		case focusIntegrity:
			s.report(s.machine.ToggleAcknowledgement(domain.AckIntegrity))
		case focusStart:
			return s.start()
		}
	case "s":
		return s.start()
	}
	return nil
}

func (s *AssessmentScreen) start() tea.Cmd {
	var studentID string
	if s.deps.Identity != nil {
		studentID = s.deps.Identity.StudentID
	}
	req, err := s.machine.BeginStart(studentID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAcknowledged):
			s.setError("Tick both boxes to start.")
		case errors.Is(err, domain.ErrStartInFlight):
		default:
			s.setError(err.Error())
		}
		return nil
	}
	s.setNotice("Starting assessment…")
	return startCmd(s.deps.Backend, req)
}

func (s *AssessmentScreen) handleStarted(msg startedMsg) tea.Cmd {
	if msg.err != nil {
		s.machine.FailStart(msg.err)
		s.setError("Could not start the assessment: " + msg.err.Error())
		return nil
	}

	gen, err := s.machine.CompleteStart(msg.assessmentID, msg.questions)
	if err != nil {
		s.machine.FailStart(err)
		s.setError("Could not start the assessment: " + err.Error())
		return nil
	}

	s.clearNotice()
	s.startedAt = time.Now()
	s.syncChoice()
	s.recordStart()
	return tickCmd(gen)
}

func (s *AssessmentScreen) recordStart() {
	if s.deps.Attempts == nil {
		return
	}
	a := store.Attempt{
		AssessmentID: s.machine.AssessmentID(),
		Step:         s.machine.SelectedStep(),
		Total:        len(s.machine.Questions()),
		StartedAt:    s.startedAt,
	}
	if s.deps.Identity != nil {
		a.StudentID = s.deps.Identity.StudentID
	}
	if _, err := s.deps.Attempts.RecordStart(context.Background(), a); err != nil {
		s.log.Warn().Err(err).Msg("failed to record attempt start")
	}
}

func (s *AssessmentScreen) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen != s.machine.TickGeneration() {
		return nil
	}
	if s.machine.Tick(msg.gen) {
		return s.submit(true)
	}
	if s.machine.TimerActive() {
		return tickCmd(msg.gen)
	}
	return nil
}

func (s *AssessmentScreen) activeKey(msg tea.KeyMsg) tea.Cmd {
	if s.machine.Submitting() {
		return nil
	}
	if s.confirmLeave {
		switch msg.String() {
		case "y", "enter":
			s.confirmLeave = false
			s.machine.Leave()
			return router.Pop()
		case "n", "esc":
			s.confirmLeave = false
		}
		return nil
	}
	if s.machine.TimeExpired() {
		return s.expiredKey(msg)
	}
	if msg.String() == "esc" {
		if s.machine.Reviewing() {
			s.report(s.machine.ToggleReview())
			return nil
		}
		s.confirmLeave = true
		return nil
	}
	if s.machine.Reviewing() {
		return s.reviewKey(msg)
	}

	q, _ := s.machine.CurrentQuestion()
	switch msg.String() {
	case "left", "h", "pgup":
		s.report(s.machine.Previous())
		s.syncChoice()
		return nil
	case "right", "l", "pgdown", "tab":
		s.report(s.machine.Next())
		s.syncChoice()
		return nil
	case "f":
		s.report(s.machine.ToggleFlag(q.ID))
		return nil
	case "r":
		s.reviewCursor = s.machine.CurrentIndex()
		s.report(s.machine.ToggleReview())
		return nil
	case "s":
		return s.submit(false)
	}

	var picked string
	s.choice, picked = s.choice.Update(msg)
	if picked != "" {
		s.report(s.machine.SelectAnswer(q.ID, picked))
	}
	return nil
}

// expiredKey handles input after time ran out and a submission failed. The
// answers are frozen, so the only action left is resending them.
func (s *AssessmentScreen) expiredKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "s", "enter":
		return s.submit(true)
	case "esc":
		s.confirmLeave = true
	default:
		s.setError("Time is up. Press s to resend your answers.")
	}
	return nil
}

func (s *AssessmentScreen) reviewKey(msg tea.KeyMsg) tea.Cmd {
	total := len(s.machine.Questions())
	switch msg.String() {
	case "left", "h", "up", "k":
		s.reviewCursor = max(s.reviewCursor-1, 0)
	case "right", "l", "down", "j", "tab":
		s.reviewCursor = min(s.reviewCursor+1, total-1)
	case "u":
		if p := s.machine.Progress(); len(p.UnansweredQuestions) > 0 {
			s.jumpTo(p.UnansweredQuestions[0].ID)
		}
	case "enter":
		s.report(s.machine.GoToQuestion(s.reviewCursor))
		s.report(s.machine.ToggleReview())
		s.syncChoice()
	case "r":
		s.report(s.machine.ToggleReview())
	case "s":
		return s.submit(false)
	}
	return nil
}

func (s *AssessmentScreen) jumpTo(questionID string) {
	for i, q := range s.machine.Questions() {
		if q.ID == questionID {
			s.report(s.machine.GoToQuestion(i))
			break
		}
	}
	if s.machine.Reviewing() {
		s.report(s.machine.ToggleReview())
	}
	s.syncChoice()
}

func (s *AssessmentScreen) syncChoice() {
	q, ok := s.machine.CurrentQuestion()
	if !ok {
		s.choice = components.MultiChoice{}
		s.choiceFor = ""
		return
	}
	if q.ID == s.choiceFor {
		return
	}
	answer, _ := s.machine.Answer(q.ID)
	s.choice = components.NewMultiChoice(q.Prompt, q.Options, answer)
	s.choiceFor = q.ID
}

func (s *AssessmentScreen) submit(forced bool) tea.Cmd {
	req, err := s.machine.BeginSubmit(forced)
	if err != nil {
		var unanswered *domain.UnansweredError
		switch {
		case errors.As(err, &unanswered):
			s.setError(fmt.Sprintf("Answer every question before submitting. Unanswered: %s",
				formatNumbers(unanswered.Numbers(s.machine.Questions()))))
			if !s.machine.Reviewing() {
				s.reviewCursor = s.machine.CurrentIndex()
				s.report(s.machine.ToggleReview())
			}
		case errors.Is(err, domain.ErrSubmissionInFlight), errors.Is(err, domain.ErrAlreadyCompleted):
		default:
			s.setError(err.Error())
		}
		return nil
	}
	s.confirmLeave = false
	s.clearNotice()
	return submitCmd(s.deps.Backend, req)
}

func (s *AssessmentScreen) handleSubmitted(msg submittedMsg) tea.Cmd {
	if msg.err != nil {
		s.machine.FailSubmit(msg.err)
		retry := "Press s to try again."
		if s.machine.TimeExpired() {
			retry = "Time is up; press s to resend your answers."
		}
		s.setError("Submission failed: " + msg.err.Error() + ". " + retry)
		return nil
	}

	res := domain.Result{
		Score:          msg.result.Score,
		CertifiedLevel: msg.result.CertifiedLevel,
		CorrectCount:   msg.result.CorrectCount,
		TotalQuestions: msg.result.TotalQuestions,
	}
	if err := s.machine.CompleteSubmit(res); err != nil {
		s.log.Error().Err(err).Msg("submission result arrived out of phase")
		return nil
	}

	if s.machine.WasForced() {
		s.setNotice("Time ran out. Your answers were submitted automatically.")
	} else {
		s.clearNotice()
	}
	s.recordCompletion(res)
	return s.requestPlan()
}

func (s *AssessmentScreen) recordCompletion(res domain.Result) {
	if s.deps.Attempts == nil {
		return
	}
	err := s.deps.Attempts.RecordCompletion(context.Background(), s.machine.AssessmentID(), store.Completion{
		Score:          res.Score,
		CertifiedLevel: res.CertifiedLevel,
		Answered:       s.machine.Progress().Answered,
		Forced:         s.machine.WasForced(),
		CompletedAt:    time.Now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to record attempt completion")
	}
}

func (s *AssessmentScreen) completedKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "n":
		if !s.machine.CanProceed() {
			return nil
		}
		if err := s.machine.ProceedToNextStep(); err != nil {
			s.setError(err.Error())
			return nil
		}
		s.resetView()
	case "a":
		if err := s.machine.TakeAnother(); err != nil {
			s.setError(err.Error())
			return nil
		}
		s.resetView()
	case "c":
		res := s.machine.Result()
		if res == nil || !scoring.CertificateEligible(res.Score) || s.certPending {
			return nil
		}
		s.certPending = true
		s.setNotice("Downloading certificate…")
		return certificateCmd(s.deps.Backend, s.machine.AssessmentID(), s.deps.DownloadDir)
	case "p":
		if s.plan == planFailed {
			return s.requestPlan()
		}
	}
	return nil
}

func (s *AssessmentScreen) resetView() {
	s.choice = components.MultiChoice{}
	s.choiceFor = ""
	s.reviewCursor = 0
	s.confirmLeave = false
	s.certPending = false
	s.certPath = ""
	s.plan = planIdle
	s.studyPlan = nil
	s.clearNotice()
}

func (s *AssessmentScreen) requestPlan() tea.Cmd {
	if s.deps.Coach == nil || s.machine.Result() == nil {
		return nil
	}
	res := s.machine.Result()
	step := s.machine.Step()
	s.deps.Coach.RequestPlan(context.Background(), coach.PlanInput{
		Step:           step.Number,
		StepName:       step.Name,
		Score:          res.Score,
		CertifiedLevel: res.CertifiedLevel,
		Competencies:   scoring.Breakdown(s.machine.Questions(), s.machine.Answers()),
	})
	s.plan = planPending
	s.studyPlan = nil
	return planPollCmd()
}

func (s *AssessmentScreen) pollPlan() tea.Cmd {
	if s.plan != planPending || s.deps.Coach == nil {
		return nil
	}
	out, ok := s.deps.Coach.ConsumePlan()
	if !ok {
		return planPollCmd()
	}
	if out.Err != nil {
		s.log.Warn().Err(out.Err).Msg("study plan unavailable")
		s.plan = planFailed
		return nil
	}
	s.plan = planReady
	s.studyPlan = out.Plan
	return nil
}

func (s *AssessmentScreen) setNotice(msg string) {
	s.notice = msg
	s.noticeErr = false
}

func (s *AssessmentScreen) setError(msg string) {
	s.notice = msg
	s.noticeErr = true
}

// report shows err in the notice line, if any.
func (s *AssessmentScreen) report(err error) {
	if err != nil {
		s.setError(err.Error())
	}
}

func (s *AssessmentScreen) clearNotice() {
	s.notice = ""
	s.noticeErr = false
}

func (s *AssessmentScreen) KeyHints() []layout.KeyHint {
	switch s.machine.Phase() {
	case domain.PhaseSelection:
		return []layout.KeyHint{
			{Key: "↑↓/1-3", Description: "Choose step"},
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Back"},
		}
	case domain.PhaseInstructions:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Move"},
			{Key: "Space", Description: "Tick"},
			{Key: "s", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case domain.PhaseActive:
		if s.confirmLeave {
			return []layout.KeyHint{{Key: "y", Description: "Leave"}, {Key: "n", Description: "Stay"}}
		}
		if s.machine.TimeExpired() {
			return []layout.KeyHint{{Key: "s", Description: "Resend answers"}, {Key: "Esc", Description: "Leave"}}
		}
		if s.machine.Reviewing() {
			return []layout.KeyHint{
				{Key: "←→", Description: "Pick question"},
				{Key: "Enter", Description: "Go to"},
				{Key: "u", Description: "First unanswered"},
				{Key: "s", Description: "Submit"},
				{Key: "r", Description: "Close review"},
			}
		}
		return []layout.KeyHint{
			{Key: "↑↓/A-D", Description: "Answer"},
			{Key: "←→", Description: "Prev/Next"},
			{Key: "f", Description: "Flag"},
			{Key: "r", Description: "Review"},
			{Key: "s", Description: "Submit"},
			{Key: "Esc", Description: "Leave"},
		}
	default:
		hints := []layout.KeyHint{}
		if s.machine.CanProceed() {
			hints = append(hints, layout.KeyHint{Key: "n", Description: "Next step"})
		}
		hints = append(hints, layout.KeyHint{Key: "a", Description: "Take another"})
		if res := s.machine.Result(); res != nil && scoring.CertificateEligible(res.Score) {
			hints = append(hints, layout.KeyHint{Key: "c", Description: "Certificate"})
		}
		if s.plan == planFailed {
			hints = append(hints, layout.KeyHint{Key: "p", Description: "Retry plan"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Home"})
	}
}
