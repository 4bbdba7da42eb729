package assessment

import "github.com/abhisek/assessly/internal/catalog"

// QuestionStatus drives one button of the question navigator.
type QuestionStatus struct {
	Index    int
	ID       string
	Answered bool
	Flagged  bool
	Current  bool
}

// Progress is derived from attempt state on every render; it is never stored.
type Progress struct {
	Total               int
	Answered            int
	Flagged             int
	Unanswered          int
	UnansweredQuestions []catalog.Question
	CanSubmit           bool
	Fraction            float64
	Navigator           []QuestionStatus
}

// Derive computes navigation and review statistics.
// Unanswered questions keep their original order.
func Derive(questions []catalog.Question, answers map[string]string, flagged map[string]bool, current int) Progress {
	p := Progress{
		Total:     len(questions),
		Answered:  len(answers),
		Flagged:   len(flagged),
		Navigator: make([]QuestionStatus, len(questions)),
	}
	for i, q := range questions {
		_, answered := answers[q.ID]
		if !answered {
			p.UnansweredQuestions = append(p.UnansweredQuestions, q)
		}
		p.Navigator[i] = QuestionStatus{
			Index:    i,
			ID:       q.ID,
			Answered: answered,
			Flagged:  flagged[q.ID],
			Current:  i == current,
		}
	}
	p.Unanswered = p.Total - p.Answered
	p.CanSubmit = len(p.UnansweredQuestions) == 0
	if p.Total > 0 {
		p.Fraction = float64(current+1) / float64(p.Total)
	}
	return p
}
