package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{"join": strings.Join}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>QA Audit Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
        .header { background: #f4f4f4; padding: 20px; border-radius: 5px; }
        .summary { display: flex; justify-content: space-between; margin: 20px 0; }
        .metric { text-align: center; padding: 15px; background: #e9e9e9; border-radius: 5px; }
        .metric h3 { margin: 0; color: #333; }
        .metric p { margin: 5px 0 0 0; font-size: 24px; font-weight: bold; color: #007cba; }
        .section { margin: 30px 0; }
        .issue { background: #fff3cd; border-left: 4px solid #ffc107; padding: 10px; margin: 10px 0; }
        .critical { border-left-color: #dc3545; background: #f8d7da; }
        .test-case { background: #d1ecf1; border-left: 4px solid #17a2b8; padding: 15px; margin: 15px 0; }
        .suite { background: #f8f9fa; border-left: 4px solid #6c757d; padding: 15px; margin: 15px 0; }
        .progress { background: #d4edda; padding: 15px; border-radius: 5px; }
        .progress-bar { background: #28a745; height: 20px; border-radius: 10px; }
        .progress-fill { background: #007cba; height: 100%; border-radius: 10px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>QA Audit Report</h1>
        <p><strong>Generated:</strong> {{.GeneratedAt}}</p>
        <p><strong>Application:</strong> {{.StartURL}}</p>
    </div>

    <div class="summary">
        <div class="metric"><h3>Screens Explored</h3><p>{{.Screens}}</p></div>
        <div class="metric"><h3>Coverage</h3><p>{{printf "%.1f" .Coverage}}%</p></div>
        <div class="metric"><h3>Issues Found</h3><p>{{.IssuesFound}}</p></div>
        <div class="metric"><h3>Test Cases</h3><p>{{len .TestCases}}</p></div>
    </div>

    <div class="section">
        <h2>QA Progress</h2>
        <div class="progress">
            <p><strong>Overall Progress: {{printf "%.1f" .Progress}}%</strong></p>
            <div class="progress-bar">
                <div class="progress-fill" style="width: {{.ProgressWidth}}"></div>
            </div>
        </div>
    </div>
{{- if or .Anomalies .HasUXIssues}}

    <div class="section">
        <h2>Issues Found</h2>
{{- range .Anomalies}}
        <div class="issue">{{.}}</div>
{{- end}}
{{- range .CriticalIssues}}
        <div class="issue critical"><strong>{{.Title}}</strong>: {{.Description}}</div>
{{- end}}
    </div>
{{- end}}
{{- if .Suites}}

    <div class="section">
        <h2>Test Suites</h2>
{{- range .Suites}}
        <div class="suite">
            <h3>{{.Name}}</h3>
            <p>{{.Description}}</p>
{{- if .CoverageAreas}}
            <p><strong>Coverage Areas:</strong> {{join .CoverageAreas ", "}}</p>
{{- end}}
            <ol class="execution-order">
{{- range .ExecutionOrder}}
                <li>{{.}}</li>
{{- end}}
            </ol>
        </div>
{{- end}}
    </div>
{{- end}}
{{- if .TestCases}}

    <div class="section">
        <h2>Generated Test Cases</h2>
{{- range .TestCases}}
        <div class="test-case">
            <h3>{{.ID}}: {{.Description}}</h3>
            <p><strong>Priority:</strong> {{.Priority}} | <strong>Type:</strong> {{.Type}}</p>
        </div>
{{- end}}
    </div>
{{- end}}
</body>
</html>
`))

type htmlIssue struct {
	Title       string
	Description string
}

type htmlSuite struct {
	Name           string
	Description    string
	CoverageAreas  []string
	ExecutionOrder []string
}

type htmlCase struct {
	ID          string
	Description string
	Priority    string
	Type        string
}

type htmlData struct {
	GeneratedAt    string
	StartURL       string
	Screens        int
	Coverage       float64
	IssuesFound    int
	Progress       float64
	ProgressWidth  template.CSS
	Anomalies      []string
	HasUXIssues    bool
	CriticalIssues []htmlIssue
	Suites         []htmlSuite
	TestCases      []htmlCase
}

// RenderHTML renders the stakeholder report. All report text is escaped.
func RenderHTML(in Input, generatedAt time.Time) (string, error) {
	progress := in.progressPercentage()
	data := htmlData{
		GeneratedAt:   generatedAt.Format(time.RFC3339),
		StartURL:      strOf(in.Exploration, "start_url", "Unknown"),
		Screens:       intOf(in.Exploration, "screens_explored"),
		Coverage:      numOf(in.Exploration, "coverage_percentage"),
		IssuesFound:   in.totalIssues(),
		Progress:      progress,
		ProgressWidth: template.CSS(fmt.Sprintf("%.1f%%", progress)),
		Anomalies:     in.anomalies(),
		HasUXIssues:   intOf(in.uxSummary(), "total_issues") > 0,
	}

	for _, issue := range maps(listOf(mapOf(in.UXAnalysis, "issues_by_severity"), "critical")) {
		data.CriticalIssues = append(data.CriticalIssues, htmlIssue{
			Title:       strOf(issue, "title", ""),
			Description: strOf(issue, "description", ""),
		})
	}
	for _, suite := range maps(in.TestSuites) {
		data.Suites = append(data.Suites, htmlSuite{
			Name:           strOf(suite, "name", "Unnamed suite"),
			Description:    strOf(suite, "description", ""),
			CoverageAreas:  stringList(suite["coverage_areas"]),
			ExecutionOrder: stringList(suite["execution_order"]),
		})
	}
	for _, tc := range maps(in.TestCases) {
		data.TestCases = append(data.TestCases, htmlCase{
			ID:          strOf(tc, "id", "Unknown"),
			Description: strOf(tc, "description", "No description"),
			Priority:    titleCase(strOf(tc, "priority", "medium")),
			Type:        titleCase(strOf(tc, "test_type", "functional")),
		})
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.String(), nil
}
