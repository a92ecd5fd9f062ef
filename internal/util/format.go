package util //nolint:revive // package name util hosts shared formatting helpers used by the CLI

import (
	"fmt"
	"strings"

	"github.com/pharmapilot/pharmapilot-cli/internal/domain/chat"
)

// FormatChartSummary renders a one-line terminal summary of a chart
// attachment, e.g. "[bar chart] Patent Filings by Category (4 series)".
func FormatChartSummary(c chat.Chart) string {
	kind := strings.TrimSpace(c.Type)
	if kind == "" {
		kind = "chart"
	} else {
		kind += " chart"
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "untitled"
	}

	if labels, ok := c.Data["labels"].([]any); ok && len(labels) > 0 {
		return fmt.Sprintf("[%s] %s (%d series)", kind, title, len(labels))
	}
	return fmt.Sprintf("[%s] %s", kind, title)
}

// FormatOptionalString renders a nullable server string for display,
// handling absent values.
func FormatOptionalString(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "—"
	}
	return *s
}
