package assessment

import (
	"maps"

	"github.com/rs/zerolog"

	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/countdown"
	"github.com/abhisek/assessly/internal/scoring"
)

// Phase is the outer phase of an attempt.
type Phase int

const (
	PhaseSelection    Phase = iota // Choosing a step
	PhaseInstructions              // Reading rules, acknowledging
	PhaseActive                    // Answering questions (review is an overlay)
	PhaseCompleted                 // Submitted, showing the server result
)

func (p Phase) String() string {
	switch p {
	case PhaseSelection:
		return "Selection"
	case PhaseInstructions:
		return "Instructions"
	case PhaseActive:
		return "Active"
	case PhaseCompleted:
		return "Completed"
	}
	return "Unknown"
}

// Acknowledgements required on the instructions page.
const (
	AckRules = iota
	AckIntegrity
	numAcks
)

// StartRequest is what the caller sends to the start-assessment endpoint.
type StartRequest struct {
	StudentID string
	Step      int
}

// AnswerSubmission is one entry of the submission payload.
type AnswerSubmission struct {
	QuestionID string
	Answer     string
}

// SubmitRequest is what the caller sends to the submit-assessment endpoint.
type SubmitRequest struct {
	AssessmentID string
	Answers      []AnswerSubmission
	// Forced is set when the submission was triggered by timer expiry.
	Forced bool
}

// Result is the server's verdict on a submitted attempt.
type Result struct {
	Score          int
	CertifiedLevel string
	CorrectCount   int
	TotalQuestions int
}

// Machine owns the state of a single attempt. Every mutation goes through a
// named operation; network calls happen outside, bracketed by the
// Begin*/Complete*/Fail* pairs so failures never leave a transition half
// applied.
type Machine struct {
	log zerolog.Logger

	phase     Phase
	reviewing bool

	// selectedStep survives resets; it is advanced by ProceedToNextStep.
	selectedStep int
	acks         [numAcks]bool

	assessmentID string
	questions    []catalog.Question
	current      int
	answers      map[string]string
	flagged      map[string]bool
	clock        countdown.Countdown

	starting   bool
	submitting bool
	forced     bool
	result     *Result
}

// New returns a machine in the selection phase with step 1 selected.
func New(log zerolog.Logger) *Machine {
	m := &Machine{
		log:          log.With().Str("component", "assessment").Logger(),
		selectedStep: catalog.FirstStep,
	}
	m.reset()
	return m
}

// reset clears all per-attempt state. The selected step is kept.
func (m *Machine) reset() {
	m.phase = PhaseSelection
	m.reviewing = false
	m.acks = [numAcks]bool{}
	m.assessmentID = ""
	m.questions = nil
	m.current = 0
	m.answers = make(map[string]string)
	m.flagged = make(map[string]bool)
	m.clock.Reset()
	m.starting = false
	m.submitting = false
	m.forced = false
	m.result = nil
}

func (m *Machine) transition(to Phase) {
	m.log.Debug().
		Str("from", m.phase.String()).
		Str("to", to.String()).
		Int("step", m.selectedStep).
		Str("assessment_id", m.assessmentID).
		Msg("phase transition")
	m.phase = to
}

func (m *Machine) Phase() Phase          { return m.phase }
func (m *Machine) Reviewing() bool       { return m.reviewing }
func (m *Machine) SelectedStep() int     { return m.selectedStep }
func (m *Machine) AssessmentID() string  { return m.assessmentID }
func (m *Machine) CurrentIndex() int     { return m.current }
func (m *Machine) Starting() bool        { return m.starting }
func (m *Machine) Submitting() bool      { return m.submitting }
func (m *Machine) TimeRemaining() int    { return m.clock.Remaining() }
func (m *Machine) TimerActive() bool     { return m.clock.Active() }
func (m *Machine) TimeExpired() bool     { return m.clock.Expired() }
func (m *Machine) Acknowledged(i int) bool {
	return i >= 0 && i < numAcks && m.acks[i]
}

// Step returns the definition of the selected step.
func (m *Machine) Step() catalog.Step {
	return catalog.MustLookup(m.selectedStep)
}

// Questions returns the attempt's questions in served order.
func (m *Machine) Questions() []catalog.Question {
	return m.questions
}

// CurrentQuestion returns the question at the current index.
func (m *Machine) CurrentQuestion() (catalog.Question, bool) {
	if m.current < 0 || m.current >= len(m.questions) {
		return catalog.Question{}, false
	}
	return m.questions[m.current], true
}

// Answer returns the selected option for a question.
func (m *Machine) Answer(questionID string) (string, bool) {
	a, ok := m.answers[questionID]
	return a, ok
}

// Answers returns a copy of the answer map.
func (m *Machine) Answers() map[string]string {
	return maps.Clone(m.answers)
}

// IsFlagged reports whether a question is flagged for review.
func (m *Machine) IsFlagged(questionID string) bool {
	return m.flagged[questionID]
}

// Result returns the server result once completed, nil before.
func (m *Machine) Result() *Result {
	return m.result
}

// WasForced reports whether the submission was triggered by timer expiry.
func (m *Machine) WasForced() bool {
	return m.forced
}

// Progress derives navigation statistics from the current state.
func (m *Machine) Progress() Progress {
	return Derive(m.questions, m.answers, m.flagged, m.current)
}

// PreviewScore is the client-side score of the current answers. The server
// result is authoritative.
func (m *Machine) PreviewScore() (int, error) {
	return scoring.CalculateScore(m.questions, m.answers)
}

// SelectStep chooses the step to take.
func (m *Machine) SelectStep(step int) error {
	if m.phase != PhaseSelection {
		return phaseError("select step", m.phase)
	}
	if _, ok := catalog.Lookup(step); !ok {
		return ErrUnknownStep
	}
	m.selectedStep = step
	return nil
}

// ConfirmStep moves from selection to the instructions page.
func (m *Machine) ConfirmStep() error {
	if m.phase != PhaseSelection {
		return phaseError("confirm step", m.phase)
	}
	m.acks = [numAcks]bool{}
	m.transition(PhaseInstructions)
	return nil
}

// ToggleAcknowledgement flips one of the two instruction checkboxes.
func (m *Machine) ToggleAcknowledgement(i int) error {
	if m.phase != PhaseInstructions {
		return phaseError("acknowledge", m.phase)
	}
	if i < 0 || i >= numAcks {
		return nil
	}
	m.acks[i] = !m.acks[i]
	return nil
}

// CanStart reports whether the start action is enabled.
func (m *Machine) CanStart() bool {
	return m.phase == PhaseInstructions && m.acks[AckRules] && m.acks[AckIntegrity] && !m.starting
}

// BeginStart validates the start gate and marks a start as in flight.
func (m *Machine) BeginStart(studentID string) (StartRequest, error) {
	if m.phase != PhaseInstructions {
		return StartRequest{}, phaseError("start", m.phase)
	}
	if m.starting {
		return StartRequest{}, ErrStartInFlight
	}
	if !m.acks[AckRules] || !m.acks[AckIntegrity] {
		return StartRequest{}, ErrNotAcknowledged
	}
	m.starting = true
	return StartRequest{StudentID: studentID, Step: m.selectedStep}, nil
}

// CompleteStart applies a successful start: the server-assigned id and the
// fetched questions. It arms the clock and returns the tick generation.
func (m *Machine) CompleteStart(assessmentID string, questions []catalog.Question) (countdown.Generation, error) {
	if !m.starting || m.phase != PhaseInstructions {
		return 0, phaseError("complete start", m.phase)
	}
	if len(questions) == 0 {
		m.starting = false
		return 0, ErrNoQuestions
	}

	m.starting = false
	m.assessmentID = assessmentID
	m.questions = questions
	m.current = 0
	m.reviewing = false
	gen := m.clock.Start(m.Step().DurationSeconds())
	m.transition(PhaseActive)
	return gen, nil
}

// FailStart clears the in-flight flag after a failed start. Nothing else changes.
func (m *Machine) FailStart(err error) {
	m.starting = false
	m.log.Warn().Err(err).Int("step", m.selectedStep).Msg("start assessment failed")
}

// ToggleReview shows or hides the review overlay.
func (m *Machine) ToggleReview() error {
	if m.phase != PhaseActive {
		return phaseError("toggle review", m.phase)
	}
	m.reviewing = !m.reviewing
	return nil
}

// SelectAnswer records (or replaces) the answer for a question. The option
// text is not checked against the question's options.
func (m *Machine) SelectAnswer(questionID, option string) error {
	if err := m.editable("select answer"); err != nil {
		return err
	}
	if !m.hasQuestion(questionID) {
		return ErrUnknownQuestion
	}
	m.answers[questionID] = option
	return nil
}

// ToggleFlag adds or removes a question from the flagged set.
func (m *Machine) ToggleFlag(questionID string) error {
	if err := m.editable("toggle flag"); err != nil {
		return err
	}
	if !m.hasQuestion(questionID) {
		return ErrUnknownQuestion
	}
	if m.flagged[questionID] {
		delete(m.flagged, questionID)
	} else {
		m.flagged[questionID] = true
	}
	return nil
}

// GoToQuestion moves to index, clamped to the question range.
func (m *Machine) GoToQuestion(index int) error {
	if m.phase != PhaseActive {
		return phaseError("navigate", m.phase)
	}
	switch {
	case index < 0:
		index = 0
	case index >= len(m.questions):
		index = len(m.questions) - 1
	}
	m.current = index
	return nil
}

// Next moves to the following question.
func (m *Machine) Next() error { return m.GoToQuestion(m.current + 1) }

// Previous moves to the preceding question.
func (m *Machine) Previous() error { return m.GoToQuestion(m.current - 1) }

// Tick advances the clock. It returns true exactly once, when time runs out;
// the caller must then submit with forced=true.
func (m *Machine) Tick(gen countdown.Generation) bool {
	if m.phase != PhaseActive {
		return false
	}
	expired := m.clock.Tick(gen)
	if expired {
		m.log.Info().Str("assessment_id", m.assessmentID).Msg("time expired")
	}
	return expired
}

// TickGeneration returns the generation current ticks must carry.
func (m *Machine) TickGeneration() countdown.Generation {
	return m.clock.Generation()
}

// BeginSubmit validates the submission gate and marks a submission as in
// flight. Manual submissions require every question answered; forced
// submissions (timer expiry) and any submission after time ran out skip
// that gate. At most one submission is ever in flight or completed.
func (m *Machine) BeginSubmit(forced bool) (SubmitRequest, error) {
	switch {
	case m.phase == PhaseCompleted:
		return SubmitRequest{}, ErrAlreadyCompleted
	case m.phase != PhaseActive:
		return SubmitRequest{}, phaseError("submit", m.phase)
	case m.submitting:
		return SubmitRequest{}, ErrSubmissionInFlight
	}

	forced = forced || m.clock.Expired()
	if !forced {
		if p := m.Progress(); !p.CanSubmit {
			return SubmitRequest{}, &UnansweredError{Questions: p.UnansweredQuestions}
		}
	}

	answers := make([]AnswerSubmission, 0, len(m.answers))
	for _, q := range m.questions {
		if a, ok := m.answers[q.ID]; ok {
			answers = append(answers, AnswerSubmission{QuestionID: q.ID, Answer: a})
		}
	}

	m.submitting = true
	m.forced = forced
	m.log.Info().
		Str("assessment_id", m.assessmentID).
		Int("answered", len(answers)).
		Int("total", len(m.questions)).
		Bool("forced", forced).
		Msg("submitting assessment")

	return SubmitRequest{AssessmentID: m.assessmentID, Answers: answers, Forced: forced}, nil
}

// CompleteSubmit applies the server result and moves to completed.
func (m *Machine) CompleteSubmit(res Result) error {
	if !m.submitting || m.phase != PhaseActive {
		return phaseError("complete submit", m.phase)
	}
	m.submitting = false
	m.reviewing = false
	m.clock.Stop()
	m.result = &res
	m.transition(PhaseCompleted)
	return nil
}

// FailSubmit clears the in-flight flag after a failed submission. The attempt
// stays active and the clock keeps running. Once time has run out the
// answers stay frozen and only a resubmission is accepted.
func (m *Machine) FailSubmit(err error) {
	m.submitting = false
	m.log.Warn().Err(err).Str("assessment_id", m.assessmentID).Msg("submit assessment failed")
}

// CanProceed reports whether "proceed to next step" is available.
func (m *Machine) CanProceed() bool {
	return m.phase == PhaseCompleted &&
		m.result != nil &&
		scoring.CertificateEligible(m.result.Score) &&
		m.selectedStep < catalog.LastStep
}

// ProceedToNextStep resets the attempt and selects the following step.
func (m *Machine) ProceedToNextStep() error {
	if m.phase != PhaseCompleted {
		return phaseError("proceed", m.phase)
	}
	if m.result == nil || !scoring.CertificateEligible(m.result.Score) {
		return ErrNotEligible
	}
	if m.selectedStep >= catalog.LastStep {
		return ErrNoNextStep
	}
	m.selectedStep++
	m.transition(PhaseSelection)
	m.reset()
	return nil
}

// TakeAnother resets the attempt and keeps the selected step.
func (m *Machine) TakeAnother() error {
	if m.phase != PhaseCompleted {
		return phaseError("take another", m.phase)
	}
	m.transition(PhaseSelection)
	m.reset()
	return nil
}

// Leave stops the clock when the owner goes away. Pending ticks are ignored.
func (m *Machine) Leave() {
	m.clock.Stop()
}

func (m *Machine) editable(op string) error {
	if m.phase != PhaseActive {
		return phaseError(op, m.phase)
	}
	if m.submitting {
		return ErrSubmissionInFlight
	}
	if m.clock.Expired() {
		return ErrTimeExpired
	}
	return nil
}

func (m *Machine) hasQuestion(id string) bool {
	for _, q := range m.questions {
		if q.ID == id {
			return true
		}
	}
	return false
}
