package report

import (
	"encoding/json"
	"time"
)

// Version of the report layout.
const Version = "1.0"

// BuildJSON assembles the machine-readable report.
func BuildJSON(in Input, generatedAt time.Time) map[string]any {
	screens := listOf(in.Exploration, "screens")
	if screens == nil {
		screens = []any{}
	}
	cases := in.TestCases
	if cases == nil {
		cases = []any{}
	}
	anomalies := make([]any, 0)
	for _, a := range in.anomalies() {
		anomalies = append(anomalies, a)
	}

	return map[string]any{
		"report_metadata": map[string]any{
			"generated_at": generatedAt.Format(time.RFC3339),
			"report_type":  "qa_audit",
			"version":      Version,
		},
		"exploration_summary": map[string]any{
			"start_url":           in.Exploration["start_url"],
			"screens_explored":    intOf(in.Exploration, "screens_explored"),
			"total_interactions":  intOf(in.Exploration, "total_interactions"),
			"coverage_percentage": numOf(in.Exploration, "coverage_percentage"),
		},
		"screens":              screens,
		"anomalies":            anomalies,
		"ux_analysis":          in.UXAnalysis,
		"test_cases_generated": cases,
		"test_suites":          in.suiteOverview(),
		"test_suite_summary": map[string]any{
			"total_suites":        intOf(in.TestSummary, "total_suites"),
			"total_test_cases":    intOf(in.TestSummary, "total_test_cases"),
			"high_priority_tests": intOf(in.TestSummary, "high_priority_tests"),
			"automation_ready":    intOf(in.TestSummary, "automation_ready"),
		},
		"qa_progress": in.progressCamel(),
		"summary_statistics": map[string]any{
			"total_issues_found":     in.totalIssues(),
			"critical_issues":        intOf(in.uxSummary(), "critical_issues"),
			"test_cases_generated":   len(cases),
			"qa_progress_percentage": in.progressPercentage(),
		},
	}
}

// MarshalJSONReport renders BuildJSON indented.
func MarshalJSONReport(in Input, generatedAt time.Time) ([]byte, error) {
	return json.MarshalIndent(BuildJSON(in, generatedAt), "", "  ")
}
