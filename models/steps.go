package models

import (
	"fmt"
	"strings"
)

// PitchSteps are the five fixed, ordered stages of elevator-pitch
// construction. Read-only reference data, identical for every session.
var PitchSteps = []string{
	"Identify the Target Audience",
	"Define the Problem/Need",
	"Introduce the Product/Service",
	"Highlight the Key Differentiator",
	"End with a Strong Closing Statement",
}

// FormatPitchSteps renders the step list as a numbered block for prompts.
func FormatPitchSteps() string {
	lines := make([]string, len(PitchSteps))
	for i, step := range PitchSteps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, step)
	}
	return strings.Join(lines, "\n")
}
