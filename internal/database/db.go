package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned by GetRun for an unknown id
var ErrRunNotFound = errors.New("audit run not found")

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.InitSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the database tables if they don't exist
func (db *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		start_url TEXT NOT NULL,
		role TEXT,
		backend TEXT NOT NULL,
		screens_explored INTEGER NOT NULL,
		total_interactions INTEGER NOT NULL,
		coverage_percentage REAL NOT NULL,
		total_issues INTEGER NOT NULL,
		critical_issues INTEGER NOT NULL,
		test_cases INTEGER NOT NULL,
		qa_progress REAL NOT NULL,
		report_paths TEXT,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS screens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		summary TEXT,
		elements INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		observations INTEGER NOT NULL,
		captured_at TEXT,
		FOREIGN KEY (run_id) REFERENCES audit_runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS ux_issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		issue_id TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		recommendation TEXT,
		FOREIGN KEY (run_id) REFERENCES audit_runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS test_cases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		case_id TEXT NOT NULL,
		description TEXT,
		test_type TEXT NOT NULL,
		priority TEXT NOT NULL,
		automation_feasible BOOLEAN DEFAULT 0,
		source_kind TEXT,
		FOREIGN KEY (run_id) REFERENCES audit_runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_completed_at ON audit_runs(completed_at);
	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON audit_runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_screens_run_id ON screens(run_id);
	CREATE INDEX IF NOT EXISTS idx_issues_run_id ON ux_issues(run_id);
	CREATE INDEX IF NOT EXISTS idx_issues_severity ON ux_issues(severity);
	CREATE INDEX IF NOT EXISTS idx_cases_run_id ON test_cases(run_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun stores a run with its screens, issues and test cases in one
// transaction and returns the run id
func (db *DB) SaveRun(rec RunRecords) (int64, error) {
	paths, err := json.Marshal(rec.Run.ReportPaths)
	if err != nil {
		return 0, fmt.Errorf("failed to encode report paths: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	run := rec.Run
	result, err := tx.Exec(`
		INSERT INTO audit_runs (
			session_id, start_url, role, backend, screens_explored, total_interactions,
			coverage_percentage, total_issues, critical_issues, test_cases, qa_progress,
			report_paths, started_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.SessionID, run.StartURL, run.Role, run.Backend, run.ScreensExplored, run.TotalInteractions,
		run.CoveragePercentage, run.TotalIssues, run.CriticalIssues, run.TestCases, run.QAProgress,
		string(paths), run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	screenStmt, err := tx.Prepare(`
		INSERT INTO screens (run_id, url, summary, elements, errors, observations, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer screenStmt.Close()
	for _, s := range rec.Screens {
		if _, err := screenStmt.Exec(runID, s.URL, s.Summary, s.Elements, s.Errors, s.Observations, s.CapturedAt); err != nil {
			return 0, fmt.Errorf("failed to save screen: %w", err)
		}
	}

	issueStmt, err := tx.Prepare(`
		INSERT INTO ux_issues (run_id, issue_id, category, severity, title, description, location, recommendation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer issueStmt.Close()
	for _, i := range rec.Issues {
		if _, err := issueStmt.Exec(runID, i.IssueID, i.Category, i.Severity, i.Title, i.Description, i.Location, i.Recommendation); err != nil {
			return 0, fmt.Errorf("failed to save issue: %w", err)
		}
	}

	caseStmt, err := tx.Prepare(`
		INSERT INTO test_cases (run_id, case_id, description, test_type, priority, automation_feasible, source_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer caseStmt.Close()
	for _, c := range rec.TestCases {
		if _, err := caseStmt.Exec(runID, c.CaseID, c.Description, c.TestType, c.Priority, c.AutomationFeasible, c.SourceKind); err != nil {
			return 0, fmt.Errorf("failed to save test case: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return runID, nil
}

const runColumns = `
	id, session_id, start_url, role, backend, screens_explored, total_interactions,
	coverage_percentage, total_issues, critical_issues, test_cases, qa_progress,
	report_paths, started_at, completed_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*AuditRun, error) {
	var run AuditRun
	var role, paths sql.NullString
	err := row.Scan(
		&run.ID,
		&run.SessionID,
		&run.StartURL,
		&role,
		&run.Backend,
		&run.ScreensExplored,
		&run.TotalInteractions,
		&run.CoveragePercentage,
		&run.TotalIssues,
		&run.CriticalIssues,
		&run.TestCases,
		&run.QAProgress,
		&paths,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Role = role.String
	if paths.Valid && paths.String != "" && paths.String != "null" {
		if err := json.Unmarshal([]byte(paths.String), &run.ReportPaths); err != nil {
			return nil, fmt.Errorf("failed to decode report paths: %w", err)
		}
	}
	return &run, nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(id int64) (*AuditRun, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM audit_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// RecentRuns retrieves the most recent runs, newest first
func (db *DB) RecentRuns(limit int) ([]AuditRun, error) {
	rows, err := db.conn.Query(`SELECT `+runColumns+` FROM audit_runs ORDER BY completed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetScreens retrieves the screens of a run in capture order
func (db *DB) GetScreens(runID int64) ([]ScreenRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, url, summary, elements, errors, observations, captured_at
		FROM screens
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query screens: %w", err)
	}
	defer rows.Close()

	var screens []ScreenRecord
	for rows.Next() {
		var s ScreenRecord
		var summary, capturedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.RunID, &s.URL, &summary, &s.Elements, &s.Errors, &s.Observations, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan screen: %w", err)
		}
		s.Summary = summary.String
		s.CapturedAt = capturedAt.String
		screens = append(screens, s)
	}

	return screens, rows.Err()
}

// GetIssues retrieves the UX issues of a run, most severe first
func (db *DB) GetIssues(runID int64) ([]IssueRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, issue_id, category, severity, title, description, location, recommendation
		FROM ux_issues
		WHERE run_id = ?
		ORDER BY CASE severity
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			WHEN 'low' THEN 3
			ELSE 4
		END, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []IssueRecord
	for rows.Next() {
		var i IssueRecord
		var desc, loc, rec sql.NullString
		if err := rows.Scan(&i.ID, &i.RunID, &i.IssueID, &i.Category, &i.Severity, &i.Title, &desc, &loc, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		i.Description, i.Location, i.Recommendation = desc.String, loc.String, rec.String
		issues = append(issues, i)
	}

	return issues, rows.Err()
}

// GetTestCases retrieves the test cases of a run in generation order
func (db *DB) GetTestCases(runID int64) ([]TestCaseRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, case_id, description, test_type, priority, automation_feasible, source_kind
		FROM test_cases
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query test cases: %w", err)
	}
	defer rows.Close()

	var cases []TestCaseRecord
	for rows.Next() {
		var c TestCaseRecord
		var desc, kind sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.CaseID, &desc, &c.TestType, &c.Priority, &c.AutomationFeasible, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan test case: %w", err)
		}
		c.Description, c.SourceKind = desc.String, kind.String
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// Statistics returns database statistics
func (db *DB) Statistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	counts := []struct {
		key   string
		query string
	}{
		{"total_runs", "SELECT COUNT(*) FROM audit_runs"},
		{"total_screens", "SELECT COUNT(*) FROM screens"},
		{"total_issues", "SELECT COUNT(*) FROM ux_issues"},
		{"critical_issues", "SELECT COUNT(*) FROM ux_issues WHERE severity = 'critical'"},
		{"total_test_cases", "SELECT COUNT(*) FROM test_cases"},
		{"automation_ready", "SELECT COUNT(*) FROM test_cases WHERE automation_feasible = 1"},
	}
	for _, c := range counts {
		var n int
		if err := db.conn.QueryRow(c.query).Scan(&n); err != nil {
			return nil, err
		}
		stats[c.key] = n
	}

	var lastRun time.Time
	err := db.conn.QueryRow("SELECT completed_at FROM audit_runs ORDER BY completed_at DESC LIMIT 1").Scan(&lastRun)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		stats["last_run"] = lastRun
	}

	return stats, nil
}
