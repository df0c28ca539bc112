// Package report renders audit results as JSON, Markdown and HTML. It
// only sees plain nested data (maps, slices, strings, numbers, booleans),
// never the pipeline's own types.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Input is everything a report is built from.
type Input struct {
	Exploration map[string]any // exploration report: start_url, screens, anomalies, ...
	UXAnalysis  map[string]any // ux_analysis_summary, issues_by_severity, recommendations, ...
	TestSuites  []any          // name, description, test_cases, coverage_areas, execution_order
	TestSummary map[string]any // total_suites, total_test_cases, high_priority_tests, automation_ready
	TestCases   []any          // every suite's cases, in suite order
	QAProgress  map[string]any // snake_case checklist stages
}

// NewInput converts the pipeline's results into plain report input.
// testExport is the generator's export: test_suites, qa_progress and summary.
func NewInput(exploration, uxAnalysis, testExport any) (Input, error) {
	var in Input
	var err error
	if in.Exploration, err = plainMap(exploration); err != nil {
		return in, err
	}
	if in.UXAnalysis, err = plainMap(uxAnalysis); err != nil {
		return in, err
	}
	export, err := plainMap(testExport)
	if err != nil {
		return in, err
	}
	in.TestSuites = listOf(export, "test_suites")
	in.TestSummary = mapOf(export, "summary")
	in.QAProgress = mapOf(export, "qa_progress")
	for _, suite := range maps(in.TestSuites) {
		in.TestCases = append(in.TestCases, listOf(suite, "test_cases")...)
	}
	return in, nil
}

func plainMap(v any) (map[string]any, error) {
	p, err := Plain(v)
	if err != nil {
		return nil, err
	}
	m, _ := p.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// progressStage pairs a checklist key with its report label.
type progressStage struct {
	key   string
	camel string
	label string
}

var progressStages = []progressStage{
	{"identify_what_to_test", "identifyWhatToTest", "Identify what to test"},
	{"select_test_type", "selectTestType", "Select appropriate test type"},
	{"write_tests", "writeTests", "Write tests following templates"},
	{"run_tests", "runTests", "Run tests and verify passing"},
	{"coverage_check", "coverageCheck", "Check coverage meets targets"},
	{"fix_tests", "fixTests", "Fix any failing tests"},
}

// suiteOverview describes each suite without repeating its cases.
func (in Input) suiteOverview() []any {
	out := make([]any, 0, len(in.TestSuites))
	for _, suite := range maps(in.TestSuites) {
		out = append(out, map[string]any{
			"name":            suite["name"],
			"description":     suite["description"],
			"test_case_count": len(listOf(suite, "test_cases")),
			"coverage_areas":  nonNil(listOf(suite, "coverage_areas")),
			"execution_order": nonNil(listOf(suite, "execution_order")),
		})
	}
	return out
}

func nonNil(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

func (in Input) progressCamel() map[string]any {
	out := make(map[string]any, len(progressStages))
	for _, s := range progressStages {
		out[s.camel] = boolOf(in.QAProgress, s.key)
	}
	return out
}

func (in Input) progressPercentage() float64 {
	done := 0
	for _, s := range progressStages {
		if boolOf(in.QAProgress, s.key) {
			done++
		}
	}
	return float64(done) / float64(len(progressStages)) * 100
}

func (in Input) anomalies() []string {
	return stringList(in.Exploration["anomalies"])
}

func (in Input) uxSummary() map[string]any {
	return mapOf(in.UXAnalysis, "ux_analysis_summary")
}

func (in Input) totalIssues() int {
	return len(in.anomalies()) + intOf(in.uxSummary(), "total_issues")
}

func mapOf(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func listOf(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

func strOf(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func numOf(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func intOf(m map[string]any, key string) int {
	return int(numOf(m, key))
}

func boolOf(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// stringList collects the string members of a plain list.
func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func maps(v []any) []map[string]any {
	out := make([]map[string]any, 0, len(v))
	for _, item := range v {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// titleCase turns "high" into "High" for display.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
