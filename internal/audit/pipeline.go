// Package audit chains exploration, UX analysis, test generation and report
// assembly into one run.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/database"
	"github.com/lance13c/auditor/internal/exploration"
	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/report"
	"github.com/lance13c/auditor/internal/testgen"
	"github.com/lance13c/auditor/internal/ux"
)

// Options configure a pipeline. Output is skipped for empty directories
// and persistence for a nil DB.
type Options struct {
	Exploration   exploration.Options // StartURL is set per run
	Role          string
	Backend       string
	SuiteName     string
	OutputDir     string
	Formats       []report.Format
	PlaywrightDir string
	DB            *database.DB
	Now           func() time.Time
}

// Result is everything one run produced.
type Result struct {
	Session        *exploration.Session
	Exploration    exploration.Report
	Issues         []ux.Issue
	UXReport       ux.Report
	Artifacts      testgen.Artifacts
	Input          report.Input
	ReportPaths    map[report.Format]string
	PlaywrightFile string
	RunID          int64
}

// Pipeline runs audits through one browser client.
type Pipeline struct {
	client *browser.Client
	opts   Options
}

// NewPipeline applies defaults to opts.
func NewPipeline(client *browser.Client, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Exploration.Now == nil {
		opts.Exploration.Now = opts.Now
	}
	if opts.SuiteName == "" {
		opts.SuiteName = "Exploratory Regression"
	}
	return &Pipeline{client: client, opts: opts}
}

// Run audits the application from startURL. Each run gets a fresh engine,
// so runs do not share visited URLs. An interrupted exploration still
// produces a full result for the partial session, returned together with
// the interruption error.
func (p *Pipeline) Run(ctx context.Context, startURL string) (*Result, error) {
	eopts := p.opts.Exploration
	eopts.StartURL = startURL
	engine := exploration.NewEngine(p.client, eopts)

	session, runErr := engine.ExecuteExploration(ctx)
	if errors.Is(runErr, exploration.ErrAlreadyRunning) || session == nil {
		return nil, runErr
	}

	res := &Result{
		Session:     session,
		Exploration: exploration.GenerateReport(session),
	}
	res.Issues, res.UXReport = Analyze(session)
	res.Artifacts = GenerateTests(session, res.Issues, p.opts.SuiteName)

	in, err := report.NewInput(res.Exploration, res.UXReport, res.Artifacts)
	if err != nil {
		return res, fmt.Errorf("failed to assemble report: %w", err)
	}
	res.Input = in

	if err := p.writeOutputs(res); err != nil {
		return res, err
	}
	if err := p.persist(res); err != nil {
		return res, err
	}

	logging.Info("audit %s finished: %d screens, %d issues, %d test cases",
		session.SessionID, len(session.ScreensVisited), len(res.Issues), res.Artifacts.Summary.TotalTestCases)
	return res, runErr
}

// Analyze runs one analyzer over every screen of the session and averages
// the per-screen metrics.
func Analyze(session *exploration.Session) ([]ux.Issue, ux.Report) {
	analyzer := ux.NewAnalyzer()
	issues := []ux.Issue{}
	var metrics []ux.Metrics
	for _, screen := range session.ScreensVisited {
		issues = append(issues, analyzer.AnalyzeScreen(screen)...)
		metrics = append(metrics, ux.CalculateMetrics(screen, nil))
	}
	return issues, ux.GenerateReport(issues, ux.MeanMetrics(metrics))
}

// GenerateTests derives cases from the screens and the UX issues, wraps
// them in a regression suite when there is at least one, and fills in the
// checklist.
func GenerateTests(session *exploration.Session, issues []ux.Issue, suiteName string) testgen.Artifacts {
	gen := testgen.NewGenerator()
	var cases []testgen.TestCase
	for _, screen := range session.ScreensVisited {
		cases = append(cases, gen.GenerateFromScreen(screen)...)
	}
	cases = append(cases, gen.GenerateFromIssues(issues)...)

	if len(cases) > 0 {
		gen.CreateRegressionSuite(cases, suiteName)
	}
	suites := gen.Suites()
	return testgen.Export(suites, testgen.GenerateChecklist(suites))
}

func (p *Pipeline) writeOutputs(res *Result) error {
	now := p.opts.Now()
	if p.opts.OutputDir != "" {
		w := report.NewWriter(p.opts.OutputDir, p.opts.Formats...)
		w.Now = func() time.Time { return now }
		paths, err := w.Save(res.Input)
		res.ReportPaths = paths
		if err != nil {
			return fmt.Errorf("failed to write reports: %w", err)
		}
	}

	if p.opts.PlaywrightDir != "" && len(res.Artifacts.TestSuites) > 0 {
		f, err := testgen.WritePlaywright(p.opts.PlaywrightDir, res.Artifacts.TestSuites[0], now)
		if err != nil {
			return fmt.Errorf("failed to write playwright tests: %w", err)
		}
		res.PlaywrightFile = f.FilePath
	}
	return nil
}

func (p *Pipeline) persist(res *Result) error {
	if p.opts.DB == nil {
		return nil
	}
	id, err := p.opts.DB.SaveRun(p.records(res))
	if err != nil {
		return fmt.Errorf("failed to save audit run: %w", err)
	}
	res.RunID = id
	return nil
}

func (p *Pipeline) records(res *Result) database.RunRecords {
	s := res.Session
	run := database.AuditRun{
		SessionID:          s.SessionID,
		StartURL:           s.StartURL,
		Role:               p.opts.Role,
		Backend:            p.opts.Backend,
		ScreensExplored:    len(s.ScreensVisited),
		TotalInteractions:  s.TotalInteractions,
		CoveragePercentage: s.CoveragePercentage,
		TotalIssues:        res.UXReport.Summary.TotalIssues,
		CriticalIssues:     res.UXReport.Summary.CriticalIssues,
		TestCases:          res.Artifacts.Summary.TotalTestCases,
		QAProgress:         res.Artifacts.QAProgress.CompletionPercentage(),
		ReportPaths:        make(map[string]string, len(res.ReportPaths)),
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
	}
	for f, path := range res.ReportPaths {
		run.ReportPaths[string(f)] = path
	}

	rec := database.RunRecords{Run: run}
	for _, sc := range s.ScreensVisited {
		rec.Screens = append(rec.Screens, database.ScreenRecord{
			URL:          sc.URL,
			Summary:      sc.ScreenshotSummary,
			Elements:     len(sc.InteractiveElements),
			Errors:       len(sc.ErrorsDetected),
			Observations: len(sc.UXObservations),
			CapturedAt:   sc.Timestamp,
		})
	}
	for _, is := range res.Issues {
		rec.Issues = append(rec.Issues, database.IssueRecord{
			IssueID:        is.ID,
			Category:       string(is.Category),
			Severity:       string(is.Severity),
			Title:          is.Title,
			Description:    is.Description,
			Location:       is.Location,
			Recommendation: is.Recommendation,
		})
	}
	for _, tc := range res.Artifacts.AllCases() {
		rec.TestCases = append(rec.TestCases, database.TestCaseRecord{
			CaseID:             tc.ID,
			Description:        tc.Description,
			TestType:           string(tc.TestType),
			Priority:           string(tc.Priority),
			AutomationFeasible: tc.AutomationFeasible,
			SourceKind:         string(tc.Source.Kind),
		})
	}
	return rec
}
