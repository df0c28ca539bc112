package ux

// Report groups a run's findings for presentation.
type Report struct {
	Summary          Summary              `json:"ux_analysis_summary"`
	IssuesByCategory map[Category][]Issue `json:"issues_by_category"`
	IssuesBySeverity map[Severity][]Issue `json:"issues_by_severity"`
	Metrics          Metrics              `json:"ux_metrics"`
	Recommendations  Recommendations      `json:"recommendations"`
}

// Summary holds the headline counts.
type Summary struct {
	TotalIssues        int        `json:"total_issues"`
	CriticalIssues     int        `json:"critical_issues"`
	HighPriorityIssues int        `json:"high_priority_issues"`
	CategoriesAffected []Category `json:"categories_affected"`
}

// Recommendations splits fix advice by urgency. Info findings are counted
// but produce no recommendation.
type Recommendations struct {
	ImmediateFixes           []string `json:"immediate_fixes"`
	ImprovementOpportunities []string `json:"improvement_opportunities"`
}

// GenerateReport buckets issues by category and by severity; every issue
// lands in exactly one bucket of each. CategoriesAffected keeps first-seen
// order.
func GenerateReport(issues []Issue, metrics Metrics) Report {
	r := Report{
		IssuesByCategory: make(map[Category][]Issue),
		IssuesBySeverity: make(map[Severity][]Issue),
		Metrics:          metrics,
		Summary:          Summary{CategoriesAffected: []Category{}},
		Recommendations: Recommendations{
			ImmediateFixes:           []string{},
			ImprovementOpportunities: []string{},
		},
	}

	for _, issue := range issues {
		if _, seen := r.IssuesByCategory[issue.Category]; !seen {
			r.Summary.CategoriesAffected = append(r.Summary.CategoriesAffected, issue.Category)
		}
		r.IssuesByCategory[issue.Category] = append(r.IssuesByCategory[issue.Category], issue)
		r.IssuesBySeverity[issue.Severity] = append(r.IssuesBySeverity[issue.Severity], issue)

		switch issue.Severity {
		case Critical:
			r.Summary.CriticalIssues++
		case High:
			r.Summary.HighPriorityIssues++
		}
		switch {
		case issue.Severity.Urgent():
			r.Recommendations.ImmediateFixes = append(r.Recommendations.ImmediateFixes, issue.Recommendation)
		case issue.Severity == Medium, issue.Severity == Low:
			r.Recommendations.ImprovementOpportunities = append(r.Recommendations.ImprovementOpportunities, issue.Recommendation)
		}
	}
	r.Summary.TotalIssues = len(issues)
	return r
}
