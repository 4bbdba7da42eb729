package devserver

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/assessly/internal/catalog"
)

//go:embed questions.yaml
var seedQuestions []byte

type bankFile struct {
	Questions []bankQuestion `yaml:"questions"`
}

type bankQuestion struct {
	ID         string   `yaml:"id"`
	Competency string   `yaml:"competency"`
	Level      string   `yaml:"level"`
	Question   string   `yaml:"question"`
	Options    []string `yaml:"options"`
	Answer     string   `yaml:"answer"`
}

// questionBank indexes seeded questions by level.
type questionBank struct {
	byLevel map[catalog.Level][]catalog.Question
}

// loadBank parses and checks a YAML question bank.
func loadBank(data []byte) (*questionBank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	b := &questionBank{byLevel: make(map[catalog.Level][]catalog.Question)}
	seen := make(map[string]bool, len(f.Questions))
	for _, q := range f.Questions {
		if q.ID == "" || seen[q.ID] {
			return nil, fmt.Errorf("question bank: missing or duplicate id %q", q.ID)
		}
		seen[q.ID] = true

		level, err := catalog.ParseLevel(q.Level)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %s: needs at least two options", q.ID)
		}
		if !slices.Contains(q.Options, q.Answer) {
			return nil, fmt.Errorf("question %s: answer %q is not an option", q.ID, q.Answer)
		}

		b.byLevel[level] = append(b.byLevel[level], catalog.Question{
			ID:            q.ID,
			Competency:    q.Competency,
			Level:         level,
			Prompt:        q.Question,
			Options:       q.Options,
			CorrectAnswer: q.Answer,
		})
	}
	return b, nil
}

// Draw picks min(step.QuestionCount, available) questions covering the
// step's levels, in random order.
func (b *questionBank) Draw(step catalog.Step) []catalog.Question {
	var pool []catalog.Question
	for _, l := range step.Levels {
		pool = append(pool, b.byLevel[l]...)
	}
	picked := make([]catalog.Question, len(pool))
	copy(picked, pool)
	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > step.QuestionCount {
		picked = picked[:step.QuestionCount]
	}
	return picked
}

// Size returns the number of questions available for a step.
func (b *questionBank) Size(step catalog.Step) int {
	return len(b.byLevel[step.Levels[0]]) + len(b.byLevel[step.Levels[1]])
}
