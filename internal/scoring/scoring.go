// Package scoring computes the client-side score preview and the
// certification label for an assessment step.
package scoring

import (
	"errors"
	"math"
	"sort"

	"github.com/abhisek/assessly/internal/catalog"
)

// ErrNoQuestions is returned when a score is requested for an empty question set.
var ErrNoQuestions = errors.New("cannot score an empty question set")

// Certification labels.
const (
	LabelPartial          = "Partial Competency"
	LabelNeedsImprovement = "Needs Improvement"
)

// CertificateThreshold gates both certificate download and advancing to the
// next step. It is flat across steps and intentionally not derived from the
// per-step tiers below (step 3 certifies at 80).
const CertificateThreshold = 75

type tier struct {
	certified int
	partial   int
}

var tiers = map[int]tier{
	1: {certified: 75, partial: 25},
	2: {certified: 75, partial: 50},
	3: {certified: 80, partial: 60},
}

// CalculateScore returns round(100 * correct / len(questions)).
// An answer counts only when it equals the correct answer exactly.
// Keys in answers that match no question are ignored.
func CalculateScore(questions []catalog.Question, answers map[string]string) (int, error) {
	if len(questions) == 0 {
		return 0, ErrNoQuestions
	}
	correct := CorrectCount(questions, answers)
	return int(math.Round(100 * float64(correct) / float64(len(questions)))), nil
}

// CorrectCount returns the number of questions answered correctly.
func CorrectCount(questions []catalog.Question, answers map[string]string) int {
	n := 0
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && a == q.CorrectAnswer {
			n++
		}
	}
	return n
}

// CertificationLevel maps a step and a percentage score to its outcome label.
// Unknown steps yield LabelNeedsImprovement.
func CertificationLevel(step, score int) string {
	t, ok := tiers[step]
	if !ok {
		return LabelNeedsImprovement
	}
	switch {
	case score >= t.certified:
		s, _ := catalog.Lookup(step)
		return s.LevelLabel() + " Certified"
	case score >= t.partial:
		return LabelPartial
	default:
		return LabelNeedsImprovement
	}
}

// IsCertified reports whether score reaches the step's certified tier.
func IsCertified(step, score int) bool {
	t, ok := tiers[step]
	return ok && score >= t.certified
}

// CertificateEligible reports whether a certificate may be downloaded.
func CertificateEligible(score int) bool {
	return score >= CertificateThreshold
}

// CompetencyResult is the per-competency tally of an attempt.
type CompetencyResult struct {
	Competency string
	Correct    int
	Total      int
	Missed     []catalog.Question
}

// Percent returns the competency's score rounded to an integer.
func (c CompetencyResult) Percent() int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.Correct) / float64(c.Total)))
}

// Breakdown groups results by competency, weakest first.
func Breakdown(questions []catalog.Question, answers map[string]string) []CompetencyResult {
	byName := make(map[string]*CompetencyResult)
	var order []string
	for _, q := range questions {
		r, ok := byName[q.Competency]
		if !ok {
			r = &CompetencyResult{Competency: q.Competency}
			byName[q.Competency] = r
			order = append(order, q.Competency)
		}
		r.Total++
		if a, ok := answers[q.ID]; ok && a == q.CorrectAnswer {
			r.Correct++
		} else {
			r.Missed = append(r.Missed, q)
		}
	}

	out := make([]CompetencyResult, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percent() < out[j].Percent()
	})
	return out
}
