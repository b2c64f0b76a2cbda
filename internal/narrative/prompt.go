package narrative

import (
	"fmt"
	"strings"

	"matchreport/internal/aggregate"
)

// BuildPrompt asks for a short plain-text commentary on a report summary.
// The same summary and filter description always give the same prompt.
func BuildPrompt(summary aggregate.Summary, filterDescription string) string {
	if filterDescription == "" {
		filterDescription = "None (all rows)"
	}

	var b strings.Builder
	b.WriteString("You are a cricket analyst. Write two or three short paragraphs of plain text ")
	b.WriteString("(no markdown, no lists) commenting on these One Day International match statistics.\n")
	b.WriteString("Only use the figures given. Say so when a figure is N/A.\n\n")
	fmt.Fprintf(&b, "Filters applied: %s\n", filterDescription)
	b.WriteString("Statistics:\n")
	for _, m := range summary {
		fmt.Fprintf(&b, "- %s: %s\n", m.Name, m.String())
	}
	return b.String()
}
