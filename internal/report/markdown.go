package report

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report for documentation.
func RenderMarkdown(in Input, generatedAt time.Time) string {
	var b strings.Builder
	exp := in.Exploration

	fmt.Fprintf(&b, "# QA Audit Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", generatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Application:** %s\n\n", strOf(exp, "start_url", "Unknown"))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "- **Screens Explored:** %d\n", intOf(exp, "screens_explored"))
	fmt.Fprintf(&b, "- **Total Interactions:** %d\n", intOf(exp, "total_interactions"))
	fmt.Fprintf(&b, "- **Coverage:** %.1f%%\n", numOf(exp, "coverage_percentage"))
	fmt.Fprintf(&b, "- **Issues Found:** %d\n", in.totalIssues())
	fmt.Fprintf(&b, "- **Test Cases Generated:** %d\n\n", len(in.TestCases))

	b.WriteString("## QA Progress Status\n\n")
	for _, s := range progressStages {
		mark := "❌"
		if boolOf(in.QAProgress, s.key) {
			mark = "✅"
		}
		fmt.Fprintf(&b, "- %s %s\n", mark, s.label)
	}
	fmt.Fprintf(&b, "\n**Overall Progress:** %.1f%%\n\n", in.progressPercentage())

	if anomalies := in.anomalies(); len(anomalies) > 0 {
		b.WriteString("## Functional Anomalies\n\n")
		for i, a := range anomalies {
			fmt.Fprintf(&b, "%d. %s\n", i+1, a)
		}
		b.WriteString("\n")
	}

	summary := in.uxSummary()
	if intOf(summary, "total_issues") > 0 {
		b.WriteString("## UX Issues Summary\n\n")
		fmt.Fprintf(&b, "- **Total Issues:** %d\n", intOf(summary, "total_issues"))
		fmt.Fprintf(&b, "- **Critical Issues:** %d\n", intOf(summary, "critical_issues"))
		fmt.Fprintf(&b, "- **High Priority Issues:** %d\n", intOf(summary, "high_priority_issues"))
		fmt.Fprintf(&b, "- **Categories Affected:** %s\n\n", strings.Join(stringList(summary["categories_affected"]), ", "))

		fixes := stringList(mapOf(in.UXAnalysis, "recommendations")["immediate_fixes"])
		if len(fixes) > 0 {
			b.WriteString("### Immediate Fixes Required\n\n")
			for _, f := range fixes {
				fmt.Fprintf(&b, "- %s\n", f)
			}
			b.WriteString("\n")
		}
	}

	if suites := maps(in.TestSuites); len(suites) > 0 {
		b.WriteString("## Test Suites\n\n")
		for _, suite := range suites {
			fmt.Fprintf(&b, "### %s\n\n", strOf(suite, "name", "Unnamed suite"))
			if d := strOf(suite, "description", ""); d != "" {
				fmt.Fprintf(&b, "%s\n\n", d)
			}
			if areas := stringList(suite["coverage_areas"]); len(areas) > 0 {
				fmt.Fprintf(&b, "**Coverage Areas:** %s\n\n", strings.Join(areas, ", "))
			}
			if order := stringList(suite["execution_order"]); len(order) > 0 {
				b.WriteString("**Execution Order:**\n")
				for i, id := range order {
					fmt.Fprintf(&b, "%d. %s\n", i+1, id)
				}
				b.WriteString("\n")
			}
		}
	}

	if len(in.TestCases) > 0 {
		b.WriteString("## Generated Test Cases\n\n")
		for _, tc := range maps(in.TestCases) {
			writeTestCase(&b, tc)
		}
	}

	if screens := maps(listOf(exp, "screens")); len(screens) > 0 {
		b.WriteString("## Screen Exploration Details\n\n")
		for _, sc := range screens {
			fmt.Fprintf(&b, "### %s\n\n", strOf(sc, "url", "Unknown URL"))
			if actions := stringList(sc["actions_taken"]); len(actions) > 0 {
				fmt.Fprintf(&b, "**Actions:** %s\n", strings.Join(actions, ", "))
			}
			if errs := stringList(sc["errors_detected"]); len(errs) > 0 {
				fmt.Fprintf(&b, "**Errors:** %s\n", strings.Join(errs, ", "))
			}
			if obs := stringList(sc["ux_observations"]); len(obs) > 0 {
				fmt.Fprintf(&b, "**UX Observations:** %s\n", strings.Join(obs, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeTestCase(b *strings.Builder, tc map[string]any) {
	fmt.Fprintf(b, "### %s: %s\n\n", strOf(tc, "id", "Unknown ID"), strOf(tc, "description", "No description"))
	fmt.Fprintf(b, "**Priority:** %s\n", titleCase(strOf(tc, "priority", "medium")))
	fmt.Fprintf(b, "**Type:** %s\n\n", titleCase(strOf(tc, "test_type", "functional")))

	if pre := stringList(tc["preconditions"]); len(pre) > 0 {
		fmt.Fprintf(b, "**Preconditions:** %s\n\n", strings.Join(pre, "; "))
	}
	if steps := stringList(tc["steps"]); len(steps) > 0 {
		b.WriteString("**Steps:**\n")
		for i, s := range steps {
			fmt.Fprintf(b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}
	if results := stringList(tc["expected_results"]); len(results) > 0 {
		b.WriteString("**Expected Results:**\n")
		for _, r := range results {
			fmt.Fprintf(b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
}
