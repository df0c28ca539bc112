// Package testgen turns exploration findings into structured test cases,
// regression suites and a QA progress checklist.
package testgen

import (
	"fmt"
	"strings"
)

// TestType classifies what a test case exercises.
type TestType string

const (
	Functional  TestType = "functional"
	UX          TestType = "ux"
	Integration TestType = "integration"
	E2E         TestType = "e2e"
	Unit        TestType = "unit"
)

// ParseTestType accepts the lowercase wire names.
func ParseTestType(s string) (TestType, error) {
	switch t := TestType(strings.ToLower(strings.TrimSpace(s))); t {
	case Functional, UX, Integration, E2E, Unit:
		return t, nil
	}
	return "", fmt.Errorf("unknown test type %q", s)
}

// Priority orders test execution.
type Priority string

const (
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

// ParsePriority accepts the lowercase wire names.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case High, Medium, Low:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// SourceKind names the artifact a test case was synthesized from.
type SourceKind string

const (
	SourceButton  SourceKind = "button"
	SourceInput   SourceKind = "input"
	SourceError   SourceKind = "error"
	SourceUXIssue SourceKind = "ux_issue"
)

// Source identifies the single artifact behind a test case: an element id,
// an error string or a UX issue id, on the page at URL.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Ref   string     `json:"ref"`
	URL   string     `json:"url"`
	Label string     `json:"label,omitempty"`
}

// TestCase is one generated test.
type TestCase struct {
	ID                 string   `json:"id"`
	Description        string   `json:"description"`
	TestType           TestType `json:"test_type"`
	Priority           Priority `json:"priority"`
	Preconditions      []string `json:"preconditions"`
	Steps              []string `json:"steps"`
	ExpectedResults    []string `json:"expected_results"`
	Tags               []string `json:"tags"`
	EstimatedDuration  string   `json:"estimated_duration"`
	AutomationFeasible bool     `json:"automation_feasible"`
	Source             Source   `json:"source"`
}

// TestSuite groups test cases. ExecutionOrder lists every case id once,
// high priority first.
type TestSuite struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	TestCases      []TestCase `json:"test_cases"`
	CoverageAreas  []string   `json:"coverage_areas"`
	ExecutionOrder []string   `json:"execution_order"`
}

// Stage is one step of the QA progression.
type Stage string

const (
	StageIdentify Stage = "identify_what_to_test"
	StageSelect   Stage = "select_test_type"
	StageWrite    Stage = "write_tests"
	StageRun      Stage = "run_tests"
	StageCoverage Stage = "coverage_check"
	StageFix      Stage = "fix_tests"
)

// Stages in progression order.
var Stages = []Stage{StageIdentify, StageSelect, StageWrite, StageRun, StageCoverage, StageFix}

// Checklist tracks QA progress.
type Checklist struct {
	IdentifyWhatToTest bool `json:"identify_what_to_test"`
	SelectTestType     bool `json:"select_test_type"`
	WriteTests         bool `json:"write_tests"`
	RunTests           bool `json:"run_tests"`
	CoverageCheck      bool `json:"coverage_check"`
	FixTests           bool `json:"fix_tests"`
}

func (c *Checklist) field(s Stage) *bool {
	switch s {
	case StageIdentify:
		return &c.IdentifyWhatToTest
	case StageSelect:
		return &c.SelectTestType
	case StageWrite:
		return &c.WriteTests
	case StageRun:
		return &c.RunTests
	case StageCoverage:
		return &c.CoverageCheck
	case StageFix:
		return &c.FixTests
	}
	return nil
}

// Mark asserts a stage as done.
func (c *Checklist) Mark(s Stage) error {
	f := c.field(s)
	if f == nil {
		return fmt.Errorf("unknown QA stage %q", s)
	}
	*f = true
	return nil
}

// Done reports whether a stage is asserted.
func (c Checklist) Done(s Stage) bool {
	f := c.field(s)
	return f != nil && *f
}

// SyncWriteTests sets write_tests exactly when at least one suite exists.
func (c *Checklist) SyncWriteTests(suites []TestSuite) {
	c.WriteTests = len(suites) > 0
}

// CompletionPercentage is the share of asserted stages.
func (c Checklist) CompletionPercentage() float64 {
	done := 0
	for _, s := range Stages {
		if c.Done(s) {
			done++
		}
	}
	return float64(done) / float64(len(Stages)) * 100
}
