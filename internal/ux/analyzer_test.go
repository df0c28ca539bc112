package ux

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lance13c/auditor/internal/types"
)

func screen(summary string, elements ...types.Element) types.ScreenCapture {
	return types.NewScreenCapture("https://example.com/login", time.Unix(0, 0), []string{"snapshot"}, elements, nil, nil, summary)
}

func titles(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Title)
	}
	return out
}

func TestLoginScreenScenario(t *testing.T) {
	sc := screen("Login page",
		types.Input{ID: "1", Required: true},
		types.Button{ID: "2", Label: types.Ptr("Login"), Enabled: false},
	)

	issues := NewAnalyzer().AnalyzeScreen(sc)
	require.Len(t, issues, 4)

	assert.Equal(t, Issue{
		ID:                "UX-001",
		Category:          Accessibility,
		Severity:          High,
		Title:             "Missing Input Label",
		Description:       "Input field 1 lacks a descriptive label",
		Location:          "https://example.com/login",
		HeuristicViolated: "Recognition rather than recall",
		Recommendation:    "Add clear, descriptive label for the input field",
		ImpactAssessment:  "Users may not understand the field's purpose",
		FixEffort:         "Low - Add label element",
	}, issues[0])

	assert.Equal(t, Medium, issues[1].Severity)
	assert.Equal(t, Usability, issues[1].Category)
	assert.Equal(t, "Required field Unknown lacks placeholder text", issues[1].Description)

	assert.Equal(t, Medium, issues[2].Severity)
	assert.Equal(t, Feedback, issues[2].Category)
	assert.Equal(t, "Button 'Login' is disabled without clear reason", issues[2].Description)

	// the aggregate rule adds one critical finding on top of the per-element ones
	assert.Equal(t, Critical, issues[3].Severity)
	assert.Equal(t, "WCAG Violation: Unlabeled Form Controls", issues[3].Title)
	assert.Equal(t, "1 form controls lack proper labels", issues[3].Description)
	assert.Equal(t, WCAGLabels, issues[3].HeuristicViolated)

	m := CalculateMetrics(sc, nil)
	assert.Equal(t, 0.0, m.LabelCoveragePercentage)
}

func TestAnalyzeScreenRules(t *testing.T) {
	tests := []struct {
		name     string
		summary  string
		elements []types.Element
		want     []string
	}{
		{
			name:     "clean form",
			summary:  "Contact page",
			elements: []types.Element{types.Input{ID: "1", Label: types.Ptr("Name"), Required: true, Placeholder: types.Ptr("Jane")}},
			want:     []string{},
		},
		{
			name:     "empty label counts as missing",
			elements: []types.Element{types.Input{ID: "1", Label: types.Ptr("")}},
			want:     []string{"Missing Input Label", "WCAG Violation: Unlabeled Form Controls"},
		},
		{
			name:     "optional field without placeholder is fine",
			elements: []types.Element{types.Input{ID: "1", Label: types.Ptr("Nickname")}},
			want:     []string{},
		},
		{
			name:     "empty placeholder on required field",
			elements: []types.Element{types.Input{ID: "1", Label: types.Ptr("Password"), Required: true, Placeholder: types.Ptr("")}},
			want:     []string{"Missing Placeholder Text"},
		},
		{
			name:     "disabled with reason",
			elements: []types.Element{types.Button{ID: "1", Label: types.Ptr("Pay"), DisabledReason: types.Ptr("Cart is empty")}},
			want:     []string{},
		},
		{
			name:     "ambiguous link",
			elements: []types.Element{types.Link{ID: "1", Label: types.Ptr("Click here")}},
			want:     []string{"Ambiguous Link Text"},
		},
		{
			name:     "descriptive link",
			elements: []types.Element{types.Link{ID: "1", Label: types.Ptr("Pricing details")}},
			want:     []string{},
		},
		{
			name:    "error summary",
			summary: "Form shows an ERROR banner",
			want:    []string{"Unclear Error Message"},
		},
		{
			name:    "clear error summary",
			summary: "Clear error message shown next to the field",
			want:    []string{},
		},
		{
			name: "submit and send",
			elements: []types.Element{
				types.Button{ID: "1", Label: types.Ptr("Submit"), Enabled: true},
				types.Button{ID: "2", Label: types.Ptr("SEND"), Enabled: true},
			},
			want: []string{"Inconsistent Button Labeling"},
		},
		{
			name: "submit only",
			elements: []types.Element{
				types.Button{ID: "1", Label: types.Ptr("Submit"), Enabled: true},
				types.Button{ID: "2", Label: types.Ptr("Send message"), Enabled: true},
			},
			want: []string{},
		},
		{
			name:     "unknown elements are ignored",
			elements: []types.Element{types.Unknown{ID: "1"}, types.Unknown{ID: "2", RawType: "slider"}},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := NewAnalyzer().AnalyzeScreen(screen(tt.summary, tt.elements...))
			assert.Equal(t, tt.want, titles(issues))
		})
	}
}

func TestAmbiguousLinkIsSingleMediumAccessibilityIssue(t *testing.T) {
	issues := NewAnalyzer().AnalyzeScreen(screen("", types.Link{ID: "4", Label: types.Ptr("Click here")}))
	require.Len(t, issues, 1)
	assert.Equal(t, Medium, issues[0].Severity)
	assert.Equal(t, Accessibility, issues[0].Category)
	assert.Equal(t, "Link text 'Click here' is not descriptive", issues[0].Description)
}

func TestUnlabeledInputsProduceOneCriticalEach(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d inputs", n), func(t *testing.T) {
			var es []types.Element
			for i := 0; i < n; i++ {
				es = append(es, types.Input{ID: fmt.Sprint(i)})
			}
			issues := NewAnalyzer().AnalyzeScreen(screen("", es...))

			var high, critical int
			for _, i := range issues {
				switch {
				case i.Severity == High && i.Category == Accessibility:
					high++
				case i.Severity == Critical:
					critical++
					assert.Equal(t, fmt.Sprintf("%d form controls lack proper labels", n), i.Description)
				}
			}
			assert.Equal(t, n, high)
			assert.Equal(t, 1, critical)
		})
	}
}

func TestIssueIDsIncreaseAcrossScreens(t *testing.T) {
	a := NewAnalyzer()
	first := a.AnalyzeScreen(screen("", types.Input{ID: "1"}))
	second := a.AnalyzeScreen(screen("an error", types.Link{ID: "2", Label: types.Ptr("link")}))

	var got []string
	for _, i := range append(first, second...) {
		got = append(got, i.ID)
	}
	assert.Equal(t, []string{"UX-001", "UX-002", "UX-003", "UX-004"}, got)

	fresh := NewAnalyzer().AnalyzeScreen(screen("", types.Input{ID: "1"}))
	assert.Equal(t, "UX-001", fresh[0].ID)
}

func TestParseEnums(t *testing.T) {
	c, err := ParseCategory("error_prevention")
	require.NoError(t, err)
	assert.Equal(t, ErrorPrevention, c)
	_, err = ParseCategory("performance")
	assert.Error(t, err)

	s, err := ParseSeverity("info")
	require.NoError(t, err)
	assert.Equal(t, Info, s)
	_, err = ParseSeverity("blocker")
	assert.Error(t, err)
}

func TestHeuristicTableIsComplete(t *testing.T) {
	assert.Len(t, Heuristics, 10)
	assert.Equal(t, "Prevent errors before they occur", Heuristics[HeuristicErrorPrevention])
}
