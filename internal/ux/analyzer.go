package ux

import (
	"fmt"
	"strings"

	"github.com/lance13c/auditor/internal/ids"
	"github.com/lance13c/auditor/internal/types"
)

// finding is the fixed part of an issue; only the description and location
// vary per occurrence.
type finding struct {
	category       Category
	severity       Severity
	title          string
	heuristic      string
	recommendation string
	impact         string
	effort         string
}

var (
	missingLabel = finding{
		category:       Accessibility,
		severity:       High,
		title:          "Missing Input Label",
		heuristic:      Heuristics[HeuristicRecognition],
		recommendation: "Add clear, descriptive label for the input field",
		impact:         "Users may not understand the field's purpose",
		effort:         "Low - Add label element",
	}
	missingPlaceholder = finding{
		category:       Usability,
		severity:       Medium,
		title:          "Missing Placeholder Text",
		heuristic:      Heuristics[HeuristicErrorPrevention],
		recommendation: "Add helpful placeholder text to guide user input",
		impact:         "Users may enter incorrect format or leave field empty",
		effort:         "Low - Add placeholder attribute",
	}
	unexplainedDisabled = finding{
		category:       Feedback,
		severity:       Medium,
		title:          "Disabled Button Without Explanation",
		heuristic:      Heuristics[HeuristicVisibility],
		recommendation: "Provide tooltip or message explaining why button is disabled",
		impact:         "Users may be confused about why they cannot proceed",
		effort:         "Medium - Add explanatory text or tooltip",
	}
	ambiguousLink = finding{
		category:       Accessibility,
		severity:       Medium,
		title:          "Ambiguous Link Text",
		heuristic:      Heuristics[HeuristicRecognition],
		recommendation: "Use descriptive link text that explains the destination",
		impact:         "Screen readers and users may not understand link purpose",
		effort:         "Low - Update link text",
	}
	unclearError = finding{
		category:       Feedback,
		severity:       High,
		title:          "Unclear Error Message",
		heuristic:      Heuristics[HeuristicErrorRecovery],
		recommendation: "Ensure error messages are specific and actionable",
		impact:         "Users may not understand how to fix the error",
		effort:         "Medium - Improve error message content",
	}
	unlabeledControls = finding{
		category:       Accessibility,
		severity:       Critical,
		title:          "WCAG Violation: Unlabeled Form Controls",
		heuristic:      WCAGLabels,
		recommendation: "Associate labels with form controls using for/id attributes",
		impact:         "Screen readers cannot identify form fields",
		effort:         "Medium - Add proper label associations",
	}
	inconsistentButtons = finding{
		category:       Consistency,
		severity:       Low,
		title:          "Inconsistent Button Labeling",
		heuristic:      Heuristics[HeuristicConsistency],
		recommendation: "Use consistent terminology for similar actions",
		impact:         "Users may be confused by inconsistent language",
		effort:         "Low - Standardize button labels",
	}
)

// ambiguousLinkLabels are link texts that say nothing about the destination.
var ambiguousLinkLabels = map[string]bool{
	"click here": true,
	"read more":  true,
	"link":       true,
}

// Analyzer applies the heuristic rules to screens. Issue ids are sequential
// for the lifetime of one Analyzer; use a fresh one per audit run.
type Analyzer struct {
	seq ids.Sequence
}

// NewAnalyzer returns an analyzer whose first issue is UX-001.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) raise(f finding, location, description string) Issue {
	return Issue{
		ID:                a.seq.Format("UX"),
		Category:          f.category,
		Severity:          f.severity,
		Title:             f.title,
		Description:       description,
		Location:          location,
		HeuristicViolated: f.heuristic,
		Recommendation:    f.recommendation,
		ImpactAssessment:  f.impact,
		FixEffort:         f.effort,
	}
}

// AnalyzeScreen runs every rule over the screen and returns all findings.
// Rules are additive: one element may trigger several of them. Elements of
// unknown type are ignored.
func (a *Analyzer) AnalyzeScreen(screen types.ScreenCapture) []Issue {
	issues := []Issue{}
	issues = append(issues, a.analyzeForm(screen)...)
	issues = append(issues, a.analyzeNavigation(screen)...)
	issues = append(issues, a.analyzeFeedback(screen)...)
	issues = append(issues, a.analyzeAccessibility(screen)...)
	issues = append(issues, a.analyzeConsistency(screen)...)
	return issues
}

func (a *Analyzer) analyzeForm(screen types.ScreenCapture) []Issue {
	var issues []Issue
	for _, in := range screen.InteractiveElements.Inputs() {
		if !types.Present(in.Label) {
			issues = append(issues, a.raise(missingLabel, screen.URL,
				fmt.Sprintf("Input field %s lacks a descriptive label", in.ID)))
		}
		if in.Required && !types.Present(in.Placeholder) {
			issues = append(issues, a.raise(missingPlaceholder, screen.URL,
				fmt.Sprintf("Required field %s lacks placeholder text", labelOr(in.Label, "Unknown"))))
		}
	}
	return issues
}

func (a *Analyzer) analyzeNavigation(screen types.ScreenCapture) []Issue {
	var issues []Issue
	for _, b := range screen.InteractiveElements.Buttons() {
		if !b.Enabled && !types.Present(b.DisabledReason) {
			issues = append(issues, a.raise(unexplainedDisabled, screen.URL,
				fmt.Sprintf("Button '%s' is disabled without clear reason", labelOr(b.Label, "Unknown"))))
		}
	}
	for _, l := range screen.InteractiveElements.Links() {
		if ambiguousLinkLabels[strings.ToLower(types.Text(l.Label))] {
			issues = append(issues, a.raise(ambiguousLink, screen.URL,
				fmt.Sprintf("Link text '%s' is not descriptive", types.Text(l.Label))))
		}
	}
	return issues
}

func (a *Analyzer) analyzeFeedback(screen types.ScreenCapture) []Issue {
	if !hasUnclearError(screen.ScreenshotSummary) {
		return nil
	}
	return []Issue{a.raise(unclearError, screen.URL, "Error message detected but may not be clear to users")}
}

func (a *Analyzer) analyzeAccessibility(screen types.ScreenCapture) []Issue {
	unlabeled := countUnlabeled(screen.InteractiveElements)
	if unlabeled == 0 {
		return nil
	}
	return []Issue{a.raise(unlabeledControls, screen.URL,
		fmt.Sprintf("%d form controls lack proper labels", unlabeled))}
}

func (a *Analyzer) analyzeConsistency(screen types.ScreenCapture) []Issue {
	labels := map[string]bool{}
	for _, b := range screen.InteractiveElements.Buttons() {
		labels[strings.ToLower(types.Text(b.Label))] = true
	}
	if !labels["submit"] || !labels["send"] {
		return nil
	}
	return []Issue{a.raise(inconsistentButtons, screen.URL, "Mixed use of 'Submit' and 'Send' for similar actions")}
}

func hasUnclearError(summary string) bool {
	s := strings.ToLower(summary)
	return strings.Contains(s, "error") && !strings.Contains(s, "clear")
}

func countUnlabeled(es types.Elements) int {
	n := 0
	for _, in := range es.Inputs() {
		if !types.Present(in.Label) {
			n++
		}
	}
	return n
}

func labelOr(label *string, fallback string) string {
	if types.Present(label) {
		return *label
	}
	return fallback
}
