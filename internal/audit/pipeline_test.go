package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/database"
	"github.com/lance13c/auditor/internal/exploration"
	"github.com/lance13c/auditor/internal/report"
	"github.com/lance13c/auditor/internal/ux"
)

var fixedNow = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

func simulatedClient() *browser.Client {
	return browser.NewClient(browser.NewSimulatedBackend(browser.DefaultSite("https://app.test")))
}

func TestRunWritesReportsAndHistory(t *testing.T) {
	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer db.Close()

	p := NewPipeline(simulatedClient(), Options{
		Role:          "ADMIN",
		Backend:       "simulated",
		SuiteName:     "Login Flow Regression",
		OutputDir:     filepath.Join(dir, "reports"),
		PlaywrightDir: filepath.Join(dir, "e2e"),
		DB:            db,
		Now:           fixedNow,
	})

	res, err := p.Run(context.Background(), "https://app.test")
	require.NoError(t, err)

	assert.Equal(t, exploration.StateCompleted, res.Session.State)
	require.Len(t, res.Session.ScreensVisited, 2)
	assert.Equal(t, 40.0, res.Exploration.CoveragePercentage)

	// login: two inputs and a button, dashboard: one button, plus one case per issue
	assert.NotEmpty(t, res.Issues)
	assert.Equal(t, 4+len(res.Issues), res.Artifacts.Summary.TotalTestCases)
	require.Len(t, res.Artifacts.TestSuites, 1)
	assert.Equal(t, "Login Flow Regression", res.Artifacts.TestSuites[0].Name)
	assert.True(t, res.Artifacts.QAProgress.WriteTests)
	assert.True(t, res.Artifacts.QAProgress.IdentifyWhatToTest)
	assert.True(t, res.Artifacts.QAProgress.SelectTestType)

	require.Len(t, res.ReportPaths, len(report.AllFormats))
	assert.Equal(t, filepath.Join(dir, "reports", "qa_audit_report_20240102_030405.json"), res.ReportPaths[report.FormatJSON])
	for _, path := range res.ReportPaths {
		assert.FileExists(t, path)
	}
	assert.Equal(t, filepath.Join(dir, "e2e", "login-flow-regression.spec.ts"), res.PlaywrightFile)
	assert.FileExists(t, res.PlaywrightFile)

	run, err := db.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Session.SessionID, run.SessionID)
	assert.Equal(t, "ADMIN", run.Role)
	assert.Equal(t, 2, run.ScreensExplored)
	assert.Equal(t, len(res.Issues), run.TotalIssues)
	assert.Equal(t, res.Artifacts.Summary.TotalTestCases, run.TestCases)
	assert.Equal(t, res.ReportPaths[report.FormatHTML], run.ReportPaths["html"])

	cases, err := db.GetTestCases(res.RunID)
	require.NoError(t, err)
	assert.Len(t, cases, res.Artifacts.Summary.TotalTestCases)
}

func TestRunWithoutOutputs(t *testing.T) {
	p := NewPipeline(simulatedClient(), Options{Now: fixedNow})

	res, err := p.Run(context.Background(), "https://app.test")
	require.NoError(t, err)
	assert.Empty(t, res.ReportPaths)
	assert.Empty(t, res.PlaywrightFile)
	assert.Zero(t, res.RunID)
	assert.Equal(t, "https://app.test", res.Input.Exploration["start_url"])
}

func TestRunInterruptedBeforeFirstScreen(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(simulatedClient(), Options{
		OutputDir:     dir,
		Formats:       []report.Format{report.FormatJSON},
		PlaywrightDir: filepath.Join(dir, "e2e"),
		Now:           fixedNow,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx, "https://app.test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "exploration interrupted")

	require.NotNil(t, res)
	assert.Empty(t, res.Session.ScreensVisited)
	assert.Equal(t, 0.0, res.Exploration.CoveragePercentage)
	assert.Zero(t, res.Artifacts.Summary.TotalTestCases)
	assert.Empty(t, res.Artifacts.TestSuites)
	assert.False(t, res.Artifacts.QAProgress.WriteTests)

	assert.FileExists(t, res.ReportPaths[report.FormatJSON])
	assert.Empty(t, res.PlaywrightFile)
	_, statErr := os.Stat(filepath.Join(dir, "e2e"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAnalyzeUsesOneSequencePerRun(t *testing.T) {
	session := runSession(t)

	issues, rep := Analyze(session)
	require.NotEmpty(t, issues)
	assert.Equal(t, "UX-001", issues[0].ID)
	for i := 1; i < len(issues); i++ {
		assert.Less(t, issues[i-1].ID, issues[i].ID)
	}
	assert.Equal(t, len(issues), rep.Summary.TotalIssues)

	again, _ := Analyze(session)
	assert.Equal(t, "UX-001", again[0].ID)
}

func TestGenerateTestsEmptySession(t *testing.T) {
	a := GenerateTests(&exploration.Session{}, []ux.Issue{}, "Empty")
	assert.Empty(t, a.TestSuites)
	assert.Zero(t, a.Summary.TotalTestCases)
	assert.False(t, a.QAProgress.WriteTests)
	assert.True(t, a.QAProgress.IdentifyWhatToTest)
}

func runSession(t *testing.T) *exploration.Session {
	t.Helper()
	e := exploration.NewEngine(simulatedClient(), exploration.Options{StartURL: "https://app.test", Now: fixedNow})
	s, err := e.ExecuteExploration(context.Background())
	require.NoError(t, err)
	return s
}
