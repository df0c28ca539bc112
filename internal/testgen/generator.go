package testgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lance13c/auditor/internal/ids"
	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/types"
	"github.com/lance13c/auditor/internal/ux"
)

// Generator synthesizes test cases. Every case it creates draws from one
// shared sequence, whatever its prefix, so TC-BTN-001 is followed by
// TC-INPUT-002 and never by another 001.
type Generator struct {
	seq    ids.Sequence
	suites []TestSuite
}

// NewGenerator returns a generator whose sequence starts at 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Suites returns the suites created so far.
func (g *Generator) Suites() []TestSuite {
	return append([]TestSuite{}, g.suites...)
}

// FromButton builds the click test for a button.
func (g *Generator) FromButton(b types.Button, pageURL string) TestCase {
	label := types.Text(b.Label)
	if label == "" {
		label = "Unknown Button"
	}
	lower := strings.ToLower(label)
	priority := Medium
	if strings.Contains(lower, "submit") || strings.Contains(lower, "login") {
		priority = High
	}

	return TestCase{
		ID:            g.seq.Format("TC-BTN"),
		Description:   fmt.Sprintf("Verify %s button functionality", label),
		TestType:      Functional,
		Priority:      priority,
		Preconditions: []string{"Navigate to " + pageURL, "Ensure page is fully loaded"},
		Steps: []string{
			fmt.Sprintf("Locate the '%s' button", label),
			"Verify button is visible and enabled",
			"Click the button",
			"Observe the result",
		},
		ExpectedResults: []string{
			"Button should be clickable",
			"Appropriate action should occur (navigation, form submission, etc.)",
			"No error messages should appear",
		},
		Tags:               []string{"button", "interaction", "functional"},
		EstimatedDuration:  "2 minutes",
		AutomationFeasible: true,
		Source:             Source{Kind: SourceButton, Ref: b.ID, URL: pageURL, Label: types.Text(b.Label)},
	}
}

// FromInput builds the validation test for an input field.
func (g *Generator) FromInput(in types.Input, pageURL string) TestCase {
	label := types.Text(in.Label)
	if label == "" {
		label = "Input Field"
	}
	priority := Medium
	if in.Required {
		priority = High
	}

	return TestCase{
		ID:            g.seq.Format("TC-INPUT"),
		Description:   fmt.Sprintf("Verify %s input field validation", label),
		TestType:      Functional,
		Priority:      priority,
		Preconditions: []string{"Navigate to " + pageURL},
		Steps: []string{
			fmt.Sprintf("Locate the '%s' input field", label),
			"Enter valid data",
			"Enter invalid data (if applicable)",
			"Verify validation behavior",
		},
		ExpectedResults: []string{
			"Field should accept valid input",
			"Field should reject invalid input with clear error message",
			"Required field validation should work correctly",
		},
		Tags:               []string{"input", "validation", "functional"},
		EstimatedDuration:  "3 minutes",
		AutomationFeasible: true,
		Source:             Source{Kind: SourceInput, Ref: in.ID, URL: pageURL, Label: types.Text(in.Label)},
	}
}

// FromError builds an investigation test for an error detected on a page.
func (g *Generator) FromError(msg, pageURL string) TestCase {
	return TestCase{
		ID:            g.seq.Format("TC-ERROR"),
		Description:   "Investigate and resolve: " + msg,
		TestType:      Functional,
		Priority:      High,
		Preconditions: []string{"Navigate to " + pageURL},
		Steps: []string{
			"Reproduce the error condition",
			"Document the exact error message",
			"Identify the root cause",
			"Verify error handling is appropriate",
		},
		ExpectedResults: []string{
			"Error should be handled gracefully",
			"User should receive clear feedback",
			"System should remain stable",
		},
		Tags:               []string{"error", "bug", "critical"},
		EstimatedDuration:  "10 minutes",
		AutomationFeasible: false,
		Source:             Source{Kind: SourceError, Ref: msg, URL: pageURL},
	}
}

// FromUXIssue builds a review test for an analyzer finding.
func (g *Generator) FromUXIssue(issue ux.Issue) TestCase {
	return TestCase{
		ID:            g.seq.Format("TC-UX"),
		Description:   fmt.Sprintf("UX Issue: %s - %s", issue.Title, issue.Description),
		TestType:      UX,
		Priority:      Medium,
		Preconditions: []string{"Navigate to " + issue.Location},
		Steps: []string{
			"Evaluate the user experience issue",
			"Test with different user scenarios",
			"Assess impact on user workflow",
			"Document improvement recommendations",
		},
		ExpectedResults: []string{
			"UX issue should be clearly documented",
			"Impact assessment should be complete",
			"Recommendations should be actionable",
		},
		Tags:               []string{"ux", "usability", "improvement"},
		EstimatedDuration:  "15 minutes",
		AutomationFeasible: false,
		Source:             Source{Kind: SourceUXIssue, Ref: issue.ID, URL: issue.Location, Label: issue.Title},
	}
}

// GenerateFromScreen creates one case per button and input in element
// order, then one per detected error. Links and unknown elements produce
// nothing.
func (g *Generator) GenerateFromScreen(screen types.ScreenCapture) []TestCase {
	cases := []TestCase{}
	for _, el := range screen.InteractiveElements {
		switch v := el.(type) {
		case types.Button:
			cases = append(cases, g.FromButton(v, screen.URL))
		case types.Input:
			cases = append(cases, g.FromInput(v, screen.URL))
		}
	}
	for _, msg := range screen.ErrorsDetected {
		cases = append(cases, g.FromError(msg, screen.URL))
	}
	logging.Debug("generated %d test cases for %s", len(cases), screen.URL)
	return cases
}

// GenerateFromIssues creates one case per UX issue, in order.
func (g *Generator) GenerateFromIssues(issues []ux.Issue) []TestCase {
	cases := make([]TestCase, 0, len(issues))
	for _, issue := range issues {
		cases = append(cases, g.FromUXIssue(issue))
	}
	return cases
}

// CreateRegressionSuite groups cases into a suite and records it.
func (g *Generator) CreateRegressionSuite(cases []TestCase, name string) TestSuite {
	suite := TestSuite{
		Name:           name,
		Description:    fmt.Sprintf("Regression test suite with %d test cases", len(cases)),
		TestCases:      append([]TestCase{}, cases...),
		CoverageAreas:  CoverageAreas(cases),
		ExecutionOrder: ExecutionOrder(cases),
	}
	g.suites = append(g.suites, suite)
	logging.Info("created suite %q with %d test cases", name, len(cases))
	return suite
}

// CoverageAreas is the sorted union of the cases' tags.
func CoverageAreas(cases []TestCase) []string {
	seen := make(map[string]bool)
	areas := []string{}
	for _, tc := range cases {
		for _, tag := range tc.Tags {
			if !seen[tag] {
				seen[tag] = true
				areas = append(areas, tag)
			}
		}
	}
	sort.Strings(areas)
	return areas
}

// ExecutionOrder lists high priority case ids first, then the rest, each
// group keeping input order.
func ExecutionOrder(cases []TestCase) []string {
	order := make([]string, 0, len(cases))
	for _, tc := range cases {
		if tc.Priority == High {
			order = append(order, tc.ID)
		}
	}
	for _, tc := range cases {
		if tc.Priority != High {
			order = append(order, tc.ID)
		}
	}
	return order
}
