package database

import (
	"time"
)

// AuditRun is one completed audit pipeline run
type AuditRun struct {
	ID                 int64             `db:"id" json:"id"`
	SessionID          string            `db:"session_id" json:"session_id"`
	StartURL           string            `db:"start_url" json:"start_url"`
	Role               string            `db:"role" json:"role,omitempty"`
	Backend            string            `db:"backend" json:"backend"`
	ScreensExplored    int               `db:"screens_explored" json:"screens_explored"`
	TotalInteractions  int               `db:"total_interactions" json:"total_interactions"`
	CoveragePercentage float64           `db:"coverage_percentage" json:"coverage_percentage"`
	TotalIssues        int               `db:"total_issues" json:"total_issues"`
	CriticalIssues     int               `db:"critical_issues" json:"critical_issues"`
	TestCases          int               `db:"test_cases" json:"test_cases"`
	QAProgress         float64           `db:"qa_progress" json:"qa_progress"`
	ReportPaths        map[string]string `db:"report_paths" json:"report_paths,omitempty"`
	StartedAt          time.Time         `db:"started_at" json:"started_at"`
	CompletedAt        time.Time         `db:"completed_at" json:"completed_at"`
}

// ScreenRecord is a captured screen of a run
type ScreenRecord struct {
	ID           int64  `db:"id" json:"id"`
	RunID        int64  `db:"run_id" json:"run_id"`
	URL          string `db:"url" json:"url"`
	Summary      string `db:"summary" json:"summary"`
	Elements     int    `db:"elements" json:"elements"`
	Errors       int    `db:"errors" json:"errors"`
	Observations int    `db:"observations" json:"observations"`
	CapturedAt   string `db:"captured_at" json:"captured_at"` // unix seconds, as captured
}

// IssueRecord is a UX finding of a run
type IssueRecord struct {
	ID             int64  `db:"id" json:"id"`
	RunID          int64  `db:"run_id" json:"run_id"`
	IssueID        string `db:"issue_id" json:"issue_id"`
	Category       string `db:"category" json:"category"`
	Severity       string `db:"severity" json:"severity"`
	Title          string `db:"title" json:"title"`
	Description    string `db:"description" json:"description"`
	Location       string `db:"location" json:"location"`
	Recommendation string `db:"recommendation" json:"recommendation"`
}

// TestCaseRecord is a generated test case of a run
type TestCaseRecord struct {
	ID                 int64  `db:"id" json:"id"`
	RunID              int64  `db:"run_id" json:"run_id"`
	CaseID             string `db:"case_id" json:"case_id"`
	Description        string `db:"description" json:"description"`
	TestType           string `db:"test_type" json:"test_type"`
	Priority           string `db:"priority" json:"priority"`
	AutomationFeasible bool   `db:"automation_feasible" json:"automation_feasible"`
	SourceKind         string `db:"source_kind" json:"source_kind"`
}

// RunRecords is everything saved for one run
type RunRecords struct {
	Run       AuditRun
	Screens   []ScreenRecord
	Issues    []IssueRecord
	TestCases []TestCaseRecord
}
