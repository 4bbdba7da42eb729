package catalog

import "fmt"

// Level is one of the six proficiency bands, A1 (lowest) through C2.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// AllLevels lists every level in increasing difficulty.
var AllLevels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel validates a level string.
func ParseLevel(s string) (Level, error) {
	for _, l := range AllLevels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown competency level %q", s)
}

// Step describes one of the three sequential assessment tiers.
type Step struct {
	Number          int
	Name            string
	Description     string
	Levels          [2]Level
	DurationMinutes int
	QuestionCount   int
}

// LevelLabel renders the step's level pair, e.g. "A1/A2".
func (s Step) LevelLabel() string {
	return string(s.Levels[0]) + "/" + string(s.Levels[1])
}

// DurationSeconds is the full time budget of the step.
func (s Step) DurationSeconds() int {
	return s.DurationMinutes * 60
}

// Covers reports whether the step certifies the given level.
func (s Step) Covers(l Level) bool {
	return s.Levels[0] == l || s.Levels[1] == l
}

// FirstStep and LastStep bound the selectable step numbers.
const (
	FirstStep = 1
	LastStep  = 3
)

var steps = [...]Step{
	{
		Number:          1,
		Name:            "Foundation",
		Description:     "Everyday digital literacy: devices, browsing, basic communication.",
		Levels:          [2]Level{LevelA1, LevelA2},
		DurationMinutes: 30,
		QuestionCount:   20,
	},
	{
		Number:          2,
		Name:            "Intermediate",
		Description:     "Working confidently with content, collaboration tools and online safety.",
		Levels:          [2]Level{LevelB1, LevelB2},
		DurationMinutes: 30,
		QuestionCount:   20,
	},
	{
		Number:          3,
		Name:            "Advanced",
		Description:     "Problem solving, security practice and guiding others.",
		Levels:          [2]Level{LevelC1, LevelC2},
		DurationMinutes: 40,
		QuestionCount:   20,
	},
}

// Lookup returns the step definition for a step number.
// Only 1..3 exist; ok is false for anything else.
func Lookup(number int) (Step, bool) {
	if number < FirstStep || number > LastStep {
		return Step{}, false
	}
	return steps[number-1], true
}

// MustLookup is Lookup for call sites where the number was already validated.
func MustLookup(number int) Step {
	s, ok := Lookup(number)
	if !ok {
		panic(fmt.Sprintf("catalog: no assessment step %d", number))
	}
	return s
}

// Steps returns all step definitions in order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps[:])
	return out
}

// StepForLevel returns the step that certifies the given level.
func StepForLevel(l Level) (Step, bool) {
	for _, s := range steps {
		if s.Covers(l) {
			return s, true
		}
	}
	return Step{}, false
}
