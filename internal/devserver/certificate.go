package devserver

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/abhisek/assessly/internal/catalog"
)

const certificateWidth = 60

// renderCertificate produces the plain-text certificate of a passed attempt.
func renderCertificate(name string, a attempt) []byte {
	step := catalog.MustLookup(a.Step)
	issued := a.StartedAt
	if a.SubmittedAt != nil {
		issued = *a.SubmittedAt
	}

	var b bytes.Buffer
	rule := strings.Repeat("=", certificateWidth)
	b.WriteString(rule + "\n")
	b.WriteString(centerLine("ASSESSLY DIGITAL COMPETENCY CERTIFICATE") + "\n")
	b.WriteString(rule + "\n\n")
	b.WriteString(centerLine("This certifies that") + "\n\n")
	b.WriteString(centerLine(name) + "\n\n")
	b.WriteString(centerLine(fmt.Sprintf("completed Step %d: %s (%s)", step.Number, step.Name, step.LevelLabel())) + "\n")
	b.WriteString(centerLine(fmt.Sprintf("with a score of %d%%", a.Result.Score)) + "\n")
	b.WriteString(centerLine("Result: "+a.Result.CertifiedLevel) + "\n\n")
	fmt.Fprintf(&b, "Certificate ID: %s\n", a.ID)
	fmt.Fprintf(&b, "Issued:         %s\n", issued.Format("2 January 2006"))
	b.WriteString(rule + "\n")
	return b.Bytes()
}

func centerLine(s string) string {
	pad := (certificateWidth - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
