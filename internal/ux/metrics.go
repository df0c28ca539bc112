package ux

import (
	"math"
	"strings"

	"github.com/lance13c/auditor/internal/types"
)

// DefaultClicksToGoal is assumed when no workflow data is supplied.
const DefaultClicksToGoal = 3

// CalculateMetrics scores a single screen. Aggregating across screens is
// the caller's job.
func CalculateMetrics(screen types.ScreenCapture, workflow *Workflow) Metrics {
	es := screen.InteractiveElements
	inputs := es.Inputs()

	clicks := DefaultClicksToGoal
	if workflow != nil && workflow.Clicks > 0 {
		clicks = workflow.Clicks
	}

	labelCoverage := 100.0
	if len(inputs) > 0 {
		labelCoverage = float64(len(inputs)-countUnlabeled(es)) / float64(len(inputs)) * 100
	}

	return Metrics{
		TotalClicksToGoal:            clicks,
		FormCompletionComplexity:     len(inputs),
		ErrorMessageClarityScore:     errorClarity(screen.ScreenshotSummary),
		LabelCoveragePercentage:      labelCoverage,
		AccessibilityComplianceScore: accessibilityCompliance(es),
		WorkflowEfficiencyScore:      workflowEfficiency(clicks, len(inputs)),
	}
}

// errorClarity is 10 for a page with no error text, 7.5 when the error text
// at least calls itself clear, and 4 otherwise.
func errorClarity(summary string) float64 {
	s := strings.ToLower(summary)
	switch {
	case !strings.Contains(s, "error"):
		return 10
	case strings.Contains(s, "clear"):
		return 7.5
	default:
		return 4
	}
}

// accessibilityCompliance is the share of inputs and links without an
// accessibility finding.
func accessibilityCompliance(es types.Elements) float64 {
	inputs, links := es.Inputs(), es.Links()
	total := len(inputs) + len(links)
	if total == 0 {
		return 100
	}
	failing := countUnlabeled(es)
	for _, l := range links {
		if ambiguousLinkLabels[strings.ToLower(types.Text(l.Label))] {
			failing++
		}
	}
	return float64(total-failing) / float64(total) * 100
}

func workflowEfficiency(clicks, inputs int) float64 {
	penalty := 0.5*math.Max(0, float64(clicks-1)) + 0.25*float64(inputs)
	return math.Max(0, 10-penalty)
}

// MeanMetrics averages a set of per-screen metrics. Click counts and form
// complexity are rounded to the nearest integer.
func MeanMetrics(ms []Metrics) Metrics {
	if len(ms) == 0 {
		return Metrics{
			TotalClicksToGoal:            DefaultClicksToGoal,
			ErrorMessageClarityScore:     10,
			LabelCoveragePercentage:      100,
			AccessibilityComplianceScore: 100,
			WorkflowEfficiencyScore:      workflowEfficiency(DefaultClicksToGoal, 0),
		}
	}

	var clicks, complexity, clarity, coverage, compliance, efficiency float64
	for _, m := range ms {
		clicks += float64(m.TotalClicksToGoal)
		complexity += float64(m.FormCompletionComplexity)
		clarity += m.ErrorMessageClarityScore
		coverage += m.LabelCoveragePercentage
		compliance += m.AccessibilityComplianceScore
		efficiency += m.WorkflowEfficiencyScore
	}
	n := float64(len(ms))
	return Metrics{
		TotalClicksToGoal:            int(math.Round(clicks / n)),
		FormCompletionComplexity:     int(math.Round(complexity / n)),
		ErrorMessageClarityScore:     clarity / n,
		LabelCoveragePercentage:      coverage / n,
		AccessibilityComplianceScore: compliance / n,
		WorkflowEfficiencyScore:      efficiency / n,
	}
}
