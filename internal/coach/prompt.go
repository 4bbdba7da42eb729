package coach

import (
	"fmt"
	"strings"
)

const studyPlanSystemPrompt = `You are a digital skills coach. A learner just finished a timed multiple-choice competency assessment. Give practical, encouraging next steps.`

func buildStudyPlanUserMessage(input PlanInput, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assessment: Step %d (%s)\n", input.Step, input.StepName)
	fmt.Fprintf(&b, "Score: %d%%\n", input.Score)
	fmt.Fprintf(&b, "Certified level: %s\n", input.CertifiedLevel)

	b.WriteString("\nCompetencies (weakest first):\n")
	for _, c := range input.Competencies {
		fmt.Fprintf(&b, "- %s: %d/%d correct\n", c.Competency, c.Correct, c.Total)
		for i, q := range c.Missed {
			if i == cfg.MaxMissedPerCompetency {
				fmt.Fprintf(&b, "    (+%d more missed)\n", len(c.Missed)-i)
				break
			}
			fmt.Fprintf(&b, "    missed [%s]: %s\n", q.Level, q.Prompt)
		}
	}

	b.WriteString(`
Instructions:
1. Summarize the attempt in 2-3 sentences.
2. Pick at most 4 competencies from the list above, weakest first, and give concrete practice advice for each.
3. Use the competency names exactly as written. Do not reveal or guess correct answers.`)

	return b.String()
}
