package catalog

// Question is a single multiple-choice item served for an attempt.
// Questions are seeded server-side and never mutated during an attempt.
type Question struct {
	ID            string
	Competency    string
	Level         Level
	Prompt        string
	Options       []string
	CorrectAnswer string
}

// QuestionIDs returns the ids of qs in order.
func QuestionIDs(qs []Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
