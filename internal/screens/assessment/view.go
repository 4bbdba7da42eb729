package assessment

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	domain "github.com/abhisek/assessly/internal/assessment"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/countdown"
	"github.com/abhisek/assessly/internal/scoring"
	"github.com/abhisek/assessly/internal/ui/components"
	"github.com/abhisek/assessly/internal/ui/layout"
	"github.com/abhisek/assessly/internal/ui/theme"
)

func (s *AssessmentScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var body string
	switch s.machine.Phase() {
	case domain.PhaseSelection:
		body = s.viewSelection(cw)
	case domain.PhaseInstructions:
		body = s.viewInstructions(cw)
	case domain.PhaseActive:
		switch {
		case s.machine.Submitting():
			body = s.viewSubmitting(cw)
		case s.confirmLeave:
			body = s.viewConfirmLeave(cw)
		case s.machine.Reviewing():
			body = s.viewReview(cw)
		default:
			body = s.viewQuestion(cw)
		}
	case domain.PhaseCompleted:
		body = s.viewCompleted(cw)
	}

	if s.notice != "" {
		style := theme.Hint
		if s.noticeErr {
			style = theme.ErrorText
		}
		body += "\n\n" + style.Width(cw).Render(s.notice)
	}

	return layout.Center(body, width, height)
}

func (s *AssessmentScreen) viewSelection(cw int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Which step would you like to take?"))
	b.WriteString("\n\n")

	for _, step := range catalog.Steps() {
		selected := step.Number == s.machine.SelectedStep()
		heading := fmt.Sprintf("Step %d · %s  (%s)", step.Number, step.Name, step.LevelLabel())
		if selected {
			heading = theme.Selected.Render("▸ " + heading)
		} else {
			heading = theme.Unselected.Render("  " + heading)
		}
		detail := theme.Hint.Render(fmt.Sprintf("%d questions · %d minutes", step.QuestionCount, step.DurationMinutes))
		card := heading + "\n" + detail + "\n" + theme.Body.Render(step.Description)
		b.WriteString(components.Card(card, cw, selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *AssessmentScreen) viewInstructions(cw int) string {
	step := s.machine.Step()

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render(fmt.Sprintf("Step %d · %s", step.Number, step.Name)))
	b.WriteString("\n\n")

	rules := []string{
		fmt.Sprintf("You have %d minutes to answer %d questions.", step.DurationMinutes, step.QuestionCount),
		"The timer starts as soon as the assessment begins and cannot be paused.",
		"When the time runs out, your answers are submitted automatically.",
		"To submit early you must answer every question.",
		"Flag questions you want to revisit and check them on the review page.",
		fmt.Sprintf("A score of %d%% or more unlocks the certificate download.", scoring.CertificateThreshold),
	}
	var r strings.Builder
	r.WriteString(components.SectionTitle("Before you begin"))
	r.WriteString("\n\n")
	for _, rule := range rules {
		r.WriteString(theme.Body.Render("• " + rule))
		r.WriteString("\n")
	}
	b.WriteString(components.Card(strings.TrimRight(r.String(), "\n"), cw, false))
	b.WriteString("\n\n")

	b.WriteString(components.Checkbox{
		Label:   "I have read and understood the rules",
		Checked: s.machine.Acknowledged(domain.AckRules),
		Focused: s.ackFocus == focusRules,
	}.View())
	b.WriteString("\n")
	b.WriteString(components.Checkbox{
		Label:   "I will complete this assessment on my own",
		Checked: s.machine.Acknowledged(domain.AckIntegrity),
		Focused: s.ackFocus == focusIntegrity,
	}.View())
	b.WriteString("\n\n")

	label := "Start assessment"
	if s.machine.Starting() {
		label = "Starting…"
	}
	b.WriteString(components.NewButton(label, s.ackFocus == focusStart, !s.machine.CanStart()).View())
	return b.String()
}

func (s *AssessmentScreen) viewQuestion(cw int) string {
	q, ok := s.machine.CurrentQuestion()
	if !ok {
		return theme.Hint.Render("No questions loaded.")
	}
	p := s.machine.Progress()

	var b strings.Builder
	meta := fmt.Sprintf("Question %d of %d", s.machine.CurrentIndex()+1, p.Total)
	tags := theme.Hint.Render(fmt.Sprintf("%s · %s", q.Competency, q.Level))
	if s.machine.IsFlagged(q.ID) {
		tags += "  " + theme.Flagged.Render("⚑ flagged")
	}
	b.WriteString(theme.Body.Bold(true).Render(meta) + "   " + tags)
	b.WriteString("\n")
	b.WriteString(components.NewProgressBar("", p.Fraction, true, cw).View())
	b.WriteString("\n\n")
	b.WriteString(components.Card(strings.TrimRight(s.choice.View(), "\n"), cw, false))
	b.WriteString("\n\n")
	b.WriteString(components.Navigator(p.Navigator, cw))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%d answered · %d flagged · %d unanswered", p.Answered, p.Flagged, p.Unanswered)))
	return b.String()
}

func (s *AssessmentScreen) viewReview(cw int) string {
	p := s.machine.Progress()
	statuses := make([]domain.QuestionStatus, len(p.Navigator))
	copy(statuses, p.Navigator)
	for i := range statuses {
		statuses[i].Current = i == s.reviewCursor
	}

	var b strings.Builder
	b.WriteString(components.SectionTitle("Review your answers"))
	b.WriteString("\n\n")
	b.WriteString(theme.Correct.Render(fmt.Sprintf("%d answered", p.Answered)) + "   ")
	b.WriteString(theme.Flagged.Render(fmt.Sprintf("%d flagged", p.Flagged)) + "   ")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%d unanswered", p.Unanswered)))
	b.WriteString("\n\n")
	b.WriteString(components.Navigator(statuses, cw-8))
	b.WriteString("\n\n")

	if len(p.UnansweredQuestions) > 0 {
		nums := (&domain.UnansweredError{Questions: p.UnansweredQuestions}).Numbers(s.machine.Questions())
		b.WriteString(theme.Warning.Render("Unanswered: " + formatNumbers(nums)))
		b.WriteString("\n\n")
	}

	label := "Submit assessment"
	if !p.CanSubmit {
		label = fmt.Sprintf("Answer %d more to submit", p.Unanswered)
	}
	b.WriteString(components.NewButton(label, p.CanSubmit, !p.CanSubmit).View())

	return theme.Overlay.Width(cw).Render(b.String())
}

func (s *AssessmentScreen) viewSubmitting(cw int) string {
	msg := "Submitting your answers…"
	if s.machine.WasForced() {
		msg = "Time is up. Submitting your answers…"
	}
	return theme.Overlay.Width(cw).Align(lipgloss.Center).Render(
		theme.Warning.Render(msg) + "\n\n" + theme.Hint.Render("Please wait, this cannot be interrupted."),
	)
}

func (s *AssessmentScreen) viewConfirmLeave(cw int) string {
	return theme.Overlay.Width(cw).Align(lipgloss.Center).Render(
		theme.Warning.Render("Leave this assessment?") + "\n\n" +
			theme.Body.Render("The timer stops and your answers will not be submitted.") + "\n\n" +
			theme.Hint.Render(fmt.Sprintf("%s remaining · y to leave, n to stay", countdown.Format(s.machine.TimeRemaining()))),
	)
}

func (s *AssessmentScreen) viewCompleted(cw int) string {
	res := s.machine.Result()
	if res == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Assessment complete"))
	b.WriteString("\n\n")

	scoreStyle := theme.Incorrect
	if scoring.CertificateEligible(res.Score) {
		scoreStyle = theme.Correct
	}
	var r strings.Builder
	r.WriteString(scoreStyle.Render(fmt.Sprintf("%d%%", res.Score)))
	r.WriteString("  ")
	r.WriteString(theme.Body.Bold(true).Render(res.CertifiedLevel))
	r.WriteString("\n")
	r.WriteString(theme.Hint.Render(fmt.Sprintf("%d of %d correct", res.CorrectCount, res.TotalQuestions)))
	if preview, err := s.machine.PreviewScore(); err == nil && preview != res.Score {
		r.WriteString(theme.Hint.Render(fmt.Sprintf(" · local preview %d%%", preview)))
	}
	b.WriteString(components.Card(r.String(), cw, false))
	b.WriteString("\n\n")

	b.WriteString(components.SectionTitle("By competency"))
	b.WriteString("\n")
	for _, c := range scoring.Breakdown(s.machine.Questions(), s.machine.Answers()) {
		b.WriteString(components.NewProgressBar(fmt.Sprintf("%-22s", truncate(c.Competency, 22)), float64(c.Percent())/100, true, cw).View())
		b.WriteString("\n")
	}

	if plan := s.viewPlan(cw); plan != "" {
		b.WriteString("\n")
		b.WriteString(plan)
	}

	b.WriteString("\n")
	switch {
	case s.machine.CanProceed():
		b.WriteString(theme.Correct.Render(fmt.Sprintf("You can continue to Step %d.", s.machine.SelectedStep()+1)))
	case res.Score >= scoring.CertificateThreshold:
		b.WriteString(theme.Correct.Render("You have completed the final step."))
	default:
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Score %d%% or more to unlock the next step.", scoring.CertificateThreshold)))
	}
	return b.String()
}

func (s *AssessmentScreen) viewPlan(cw int) string {
	switch s.plan {
	case planPending:
		return theme.Hint.Render("Preparing your study plan…")
	case planFailed:
		return theme.Hint.Render("Study plan unavailable.")
	case planReady:
		if s.studyPlan == nil {
			return ""
		}
		var b strings.Builder
		b.WriteString(components.SectionTitle("Study plan"))
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(cw - 6).Render(s.studyPlan.Summary))
		for _, fa := range s.studyPlan.FocusAreas {
			b.WriteString("\n")
			b.WriteString(theme.Selected.Render(fa.Competency + ": "))
			b.WriteString(theme.Body.Render(fa.Advice))
		}
		return components.Card(b.String(), cw, false)
	}
	return ""
}

func formatNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
