package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/lance13c/auditor/internal/audit"
	"github.com/lance13c/auditor/internal/report"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RenderSummary renders the headline numbers of an audit as a box.
func RenderSummary(styles *Styles, res *audit.Result) string {
	row := func(label, value string) string {
		return styles.Label.Render(label) + value
	}

	ux := res.UXReport.Summary
	tests := res.Artifacts.Summary
	issues := fmt.Sprintf("%d", ux.TotalIssues)
	if ux.CriticalIssues > 0 {
		issues += " " + styles.Critical.Render(fmt.Sprintf("(%d critical)", ux.CriticalIssues))
	}

	lines := []string{
		styles.Status.Render("Audit " + res.Session.SessionID),
		"",
		row("Start URL", res.Session.StartURL),
		row("Screens explored", fmt.Sprintf("%d", res.Exploration.ScreensExplored)),
		row("Interactions", fmt.Sprintf("%d", res.Exploration.TotalInteractions)),
		row("Coverage", fmt.Sprintf("%.0f%%", res.Exploration.CoveragePercentage)),
		row("Anomalies", fmt.Sprintf("%d", len(res.Exploration.Anomalies))),
		row("UX issues", issues),
		row("Test cases", fmt.Sprintf("%d (%d high priority, %d automatable)",
			tests.TotalTestCases, tests.HighPriorityTests, tests.AutomationReady)),
		row("QA progress", fmt.Sprintf("%.1f%%", res.Artifacts.QAProgress.CompletionPercentage())),
	}

	if len(res.ReportPaths) > 0 {
		lines = append(lines, "")
		for _, f := range report.AllFormats {
			if path, ok := res.ReportPaths[f]; ok {
				lines = append(lines, row(string(f)+" report", path))
			}
		}
	}
	if res.PlaywrightFile != "" {
		lines = append(lines, row("Playwright spec", res.PlaywrightFile))
	}

	return styles.SummaryBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderFixes lists the immediate fixes from the UX report, if any.
func RenderFixes(styles *Styles, res *audit.Result) string {
	fixes := res.UXReport.Recommendations.ImmediateFixes
	if len(fixes) == 0 {
		return styles.SuccessBox.Render("No critical or high severity UX issues")
	}
	var b strings.Builder
	b.WriteString("Immediate fixes:\n")
	for _, f := range fixes {
		b.WriteString("  • " + f + "\n")
	}
	return styles.ErrorBox.Render(strings.TrimRight(b.String(), "\n"))
}
