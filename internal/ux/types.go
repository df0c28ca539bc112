// Package ux evaluates captured screens against usability and accessibility
// heuristics. It is pure: no browser access, no I/O.
package ux

import "fmt"

// Category groups findings by the quality they affect.
type Category string

const (
	Usability       Category = "usability"
	Accessibility   Category = "accessibility"
	Consistency     Category = "consistency"
	Feedback        Category = "feedback"
	Efficiency      Category = "efficiency"
	ErrorPrevention Category = "error_prevention"
)

var categories = []Category{Usability, Accessibility, Consistency, Feedback, Efficiency, ErrorPrevention}

// ParseCategory rejects values outside the closed set.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown UX category %q", s)
}

// Severity ranks how urgently a finding should be fixed.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
	Info     Severity = "info"
)

var severities = []Severity{Critical, High, Medium, Low, Info}

// ParseSeverity rejects values outside the closed set.
func ParseSeverity(s string) (Severity, error) {
	for _, v := range severities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown UX severity %q", s)
}

// Urgent reports whether the severity belongs in the immediate-fix list.
func (s Severity) Urgent() bool {
	return s == Critical || s == High
}

// Issue is one heuristic violation found on a screen.
type Issue struct {
	ID                string   `json:"id"`
	Category          Category `json:"category"`
	Severity          Severity `json:"severity"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Location          string   `json:"location"`
	HeuristicViolated string   `json:"heuristic_violated"`
	Recommendation    string   `json:"recommendation"`
	ImpactAssessment  string   `json:"impact_assessment"`
	FixEffort         string   `json:"fix_effort"`
}

// Metrics are the quantitative scores computed for one screen.
type Metrics struct {
	TotalClicksToGoal            int     `json:"total_clicks_to_goal"`
	FormCompletionComplexity     int     `json:"form_completion_complexity"`
	ErrorMessageClarityScore     float64 `json:"error_message_clarity_score"`
	LabelCoveragePercentage      float64 `json:"label_coverage_percentage"`
	AccessibilityComplianceScore float64 `json:"accessibility_compliance_score"`
	WorkflowEfficiencyScore      float64 `json:"workflow_efficiency_score"`
}

// Workflow carries optional facts about the user journey that reached the
// screen.
type Workflow struct {
	Clicks int
}
