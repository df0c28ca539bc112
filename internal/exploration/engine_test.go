package exploration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/types"
)

var fixedNow = func() time.Time { return time.Unix(1700000000, 0) }

func newTestEngine(t *testing.T, site *browser.Site, opts Options) (*Engine, *browser.SimulatedBackend) {
	t.Helper()
	backend := browser.NewSimulatedBackend(site)
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return NewEngine(browser.NewClient(backend), opts), backend
}

func mustSite(t *testing.T, yaml string) *browser.Site {
	t.Helper()
	site, err := browser.ParseSite([]byte(yaml))
	require.NoError(t, err)
	return site
}

func TestExecuteExplorationDefaultCap(t *testing.T) {
	engine, backend := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{StartURL: "https://app.test"})

	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, s.State)
	assert.True(t, strings.HasPrefix(s.SessionID, "qa_audit_1700000000_"))
	require.Len(t, s.ScreensVisited, 2)
	assert.Equal(t, "https://app.test", s.ScreensVisited[0].URL)
	assert.Equal(t, "https://app.test/dashboard", s.ScreensVisited[1].URL)
	assert.Equal(t, 6, s.TotalInteractions)
	assert.Equal(t, 40.0, s.CoveragePercentage)

	assert.Equal(t, []string{"Button disabled without clear reason: Export"}, s.ScreensVisited[1].UXObservations)

	assert.Equal(t, []string{
		"open https://app.test",
		"snapshot",
		`fill @e1 "test_value"`,
		`fill @e2 "test_value"`,
		"click @e3",
		"snapshot",
		"click @e1",
		"click @e2",
		"click @e3",
	}, backend.Requests())

	nav := s.Interactions[2]
	assert.Equal(t, "click @e3", nav.Request)
	assert.Equal(t, browser.NavigationOccurred, nav.Outcome)
	assert.Equal(t, "https://app.test/dashboard", nav.Destination)
}

func TestExecuteExplorationReturnsToParent(t *testing.T) {
	engine, backend := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{
		StartURL:                 "https://app.test",
		MaxInteractionsPerScreen: 5,
	})

	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)

	var urls []string
	for _, sc := range s.ScreensVisited {
		urls = append(urls, sc.URL)
	}
	assert.Equal(t, []string{
		"https://app.test",
		"https://app.test/dashboard",
		"https://app.test/reset",
		"https://app.test/register",
	}, urls)
	assert.Equal(t, 12, s.TotalInteractions)
	assert.Equal(t, 80.0, s.CoveragePercentage)

	register := s.ScreensVisited[3]
	assert.Equal(t, []string{
		"Error message detected on page",
		"Console error: Failed to load resource: the server responded with a status of 500",
	}, register.ErrorsDetected)
	assert.Equal(t, []string{"Input field missing label: 1"}, s.ScreensVisited[2].UXObservations)

	reopened := 0
	for _, r := range backend.Requests() {
		if r == "open https://app.test" {
			reopened++
		}
	}
	assert.Equal(t, 3, reopened, "initial open plus one return after each of the first two navigations")
}

const chainSite = `
pages:
  - url: https://chain.test/a
    summary: A
    elements:
      - {id: "1", type: link, label: To B, href: /b, navigates_to: /b}
  - url: https://chain.test/b
    summary: B
    elements:
      - {id: "1", type: link, label: To C, href: /c, navigates_to: /c}
  - url: https://chain.test/c
    summary: C
    elements:
      - {id: "1", type: link, label: To D, href: /d, navigates_to: /d}
  - url: https://chain.test/d
    summary: D
    elements: []
`

func TestMaxDepthBoundsNavigation(t *testing.T) {
	tests := []struct {
		depth   int
		screens int
	}{
		{1, 2},
		{2, 3},
		{5, 4},
	}
	for _, tt := range tests {
		engine, _ := newTestEngine(t, mustSite(t, chainSite), Options{StartURL: "https://chain.test/a", MaxDepth: tt.depth})
		s, err := engine.ExecuteExploration(context.Background())
		require.NoError(t, err)
		assert.Len(t, s.ScreensVisited, tt.screens, "max depth %d", tt.depth)
	}
}

func TestMaxScreensBoundsNavigation(t *testing.T) {
	engine, _ := newTestEngine(t, mustSite(t, chainSite), Options{StartURL: "https://chain.test/a", MaxScreens: 2})
	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.ScreensVisited, 2)
}

const loopSite = `
pages:
  - url: https://loop.test/
    summary: Home
    elements:
      - {id: "1", type: link, label: Settings, href: /settings, navigates_to: /settings}
  - url: https://loop.test/settings
    summary: Settings
    elements:
      - {id: "1", type: link, label: Home, href: /, navigates_to: /}
      - {id: "2", type: link, label: Docs, href: "https://docs.other.test/", navigates_to: "https://docs.other.test/"}
  - url: https://docs.other.test/
    summary: Docs
    elements: []
`

func TestVisitedURLsAreNeverReexplored(t *testing.T) {
	engine, _ := newTestEngine(t, mustSite(t, loopSite), Options{StartURL: "https://loop.test/"})

	first, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	require.Len(t, first.ScreensVisited, 2, "loop back home and the external docs link are not followed")
	assert.True(t, engine.Visited("https://loop.test/settings"))
	assert.False(t, engine.Visited("https://docs.other.test/"))

	second, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	require.Len(t, second.ScreensVisited, 1, "settings was visited by the first run")
	assert.Equal(t, "https://loop.test/", second.ScreensVisited[0].URL)
	assert.Equal(t, 1, second.TotalInteractions)
}

func TestAllowExternalFollowsOtherHosts(t *testing.T) {
	engine, _ := newTestEngine(t, mustSite(t, loopSite), Options{StartURL: "https://loop.test/", AllowExternal: true})
	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.ScreensVisited, 3)
}

func TestRelativeNavigationURLIsResolved(t *testing.T) {
	current := ""
	backend := browser.BackendFunc(func(ctx context.Context, request string) ([]byte, error) {
		cmd, err := browser.ParseCommand(request)
		require.NoError(t, err)
		switch cmd.Verb {
		case browser.VerbOpen:
			current = cmd.URL
			return []byte(`{"status": "success", "action": "page_loaded", "url": "` + current + `"}`), nil
		case browser.VerbSnapshot:
			if current == "https://app.test/" {
				return []byte(`{"status": "success", "action": "snapshot_taken", "summary": "Home",
					"elements": [{"id": 1, "type": "button", "label": "Go", "enabled": true}]}`), nil
			}
			return []byte(`{"status": "success", "action": "snapshot_taken", "summary": "Dashboard", "elements": []}`), nil
		default:
			current = "https://app.test/dashboard"
			return []byte(`{"status": "success", "action": "element_clicked", "element_id": 1,
				"result": "navigation_occurred", "url": "/dashboard"}`), nil
		}
	})

	engine := NewEngine(browser.NewClient(backend), Options{StartURL: "https://app.test/", Now: fixedNow})
	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)

	require.Len(t, s.ScreensVisited, 2)
	assert.Equal(t, "https://app.test/dashboard", s.ScreensVisited[1].URL)
	assert.Equal(t, "https://app.test/dashboard", s.Interactions[0].Destination)
}

func TestSnapshotFailureIsRecorded(t *testing.T) {
	site := mustSite(t, `
pages:
  - url: https://broken.test/
    summary: never seen
    snapshot_error: renderer crashed
`)
	engine, _ := newTestEngine(t, site, Options{StartURL: "https://broken.test/"})

	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	require.Len(t, s.ScreensVisited, 1)

	sc := s.ScreensVisited[0]
	assert.Equal(t, []string{"snapshot_failed"}, sc.ActionsTaken)
	assert.Equal(t, []string{"Snapshot failed: renderer crashed"}, sc.ErrorsDetected)
	assert.Equal(t, "Failed to capture page", sc.ScreenshotSummary)
	assert.Empty(t, sc.InteractiveElements)
	assert.Equal(t, 0, s.TotalInteractions)
	assert.Equal(t, 20.0, s.CoveragePercentage)
}

func TestOpenFailureDoesNotAbort(t *testing.T) {
	engine, _ := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{StartURL: "https://nowhere.test"})

	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	require.Len(t, s.ScreensVisited, 1)
	assert.Equal(t, []string{
		"Failed to open page: page not found: https://nowhere.test",
		"Snapshot failed: no page loaded",
	}, s.ScreensVisited[0].ErrorsDetected)
	assert.Equal(t, StateCompleted, s.State)
}

func TestEmptyPageHasNoInteractions(t *testing.T) {
	site := mustSite(t, `
pages:
  - url: https://empty.test/
    summary: Nothing here
    elements: []
`)
	engine, backend := newTestEngine(t, site, Options{StartURL: "https://empty.test/"})
	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalInteractions)
	assert.Equal(t, 20.0, s.CoveragePercentage)
	assert.Equal(t, []string{"open https://empty.test/", "snapshot"}, backend.Requests())
}

func TestCancelledContextStillCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, _ := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{StartURL: "https://app.test"})
	s, err := engine.ExecuteExploration(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, s)
	assert.Equal(t, StateCompleted, s.State)
	assert.Empty(t, s.ScreensVisited)
	assert.Equal(t, 0.0, s.CoveragePercentage)
}

func TestExecuteExplorationIsNotReentrant(t *testing.T) {
	var engine *Engine
	var nestedErr error
	engine, _ = newTestEngine(t, browser.DefaultSite("https://app.test"), Options{
		StartURL: "https://app.test",
		OnEvent: func(ev Event) {
			if ev.Kind == EventStarted {
				_, nestedErr = engine.ExecuteExploration(context.Background())
			}
		},
	})

	_, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, ErrAlreadyRunning)
}

func TestEventsReportProgress(t *testing.T) {
	var kinds []EventKind
	var last Event
	engine, _ := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{
		StartURL: "https://app.test",
		OnEvent: func(ev Event) {
			kinds = append(kinds, ev.Kind)
			last = ev
		},
	})
	_, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, EventStarted, kinds[0])
	assert.Equal(t, EventCompleted, last.Kind)
	assert.Equal(t, 2, last.Screens)
	assert.Equal(t, 6, last.Interactions)
}

func TestInitializeSession(t *testing.T) {
	engine := NewEngine(browser.NewClient(nil), Options{StartURL: "https://app.test", Now: fixedNow})
	s := engine.InitializeSession()
	assert.Equal(t, StateExploring, s.State)
	assert.Equal(t, 0, s.TotalInteractions)
	assert.Empty(t, s.ScreensVisited)
	assert.Same(t, s, engine.Session())
}

func TestPlanInteractions(t *testing.T) {
	es := types.Elements{
		types.Button{ID: "1", Label: types.Ptr("Go"), Enabled: true},
		types.Input{ID: "2"},
		types.Unknown{ID: "3"},
		types.Link{ID: "4"},
		types.Input{ID: "5"},
	}
	var reqs []string
	for _, p := range PlanInteractions(es, "probe") {
		reqs = append(reqs, p.Request)
	}
	assert.Equal(t, []string{
		`fill @e2 "probe"`,
		`fill @e5 "probe"`,
		"click @e1",
		"click @e4",
	}, reqs)
	assert.Empty(t, PlanInteractions(nil, "x"))
}

func TestCoverage(t *testing.T) {
	assert.Equal(t, 0.0, Coverage(0))
	assert.Equal(t, 60.0, Coverage(3))
	assert.Equal(t, 100.0, Coverage(5))
	assert.Equal(t, 100.0, Coverage(12))
}

func TestGenerateReportFlattens(t *testing.T) {
	engine, _ := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{
		StartURL:                 "https://app.test",
		MaxInteractionsPerScreen: 5,
	})
	s, err := engine.ExecuteExploration(context.Background())
	require.NoError(t, err)

	r := GenerateReport(s)
	assert.Equal(t, s.SessionID, r.SessionID)
	assert.Equal(t, 4, r.ScreensExplored)
	assert.True(t, r.ExplorationComplete)
	assert.Equal(t, []string{
		"Error message detected on page",
		"Console error: Failed to load resource: the server responded with a status of 500",
	}, r.Anomalies)
	assert.Equal(t, []string{
		"Button disabled without clear reason: Export",
		"Input field missing label: 1",
	}, r.UXObservations)
	assert.Len(t, r.Interactions, 12)
}

func TestExplorePageCapturesCurrentPage(t *testing.T) {
	engine, _ := newTestEngine(t, browser.DefaultSite("https://app.test"), Options{StartURL: "https://app.test"})
	ctx := context.Background()
	require.True(t, engine.client.Open(ctx, "https://app.test/register").OK())

	sc := engine.ExplorePage(ctx, "https://app.test/register", []string{"Failed to open page: slow"})

	assert.Equal(t, "https://app.test/register", sc.URL)
	assert.Equal(t, "1700000000", sc.Timestamp)
	assert.Equal(t, []string{"snapshot"}, sc.ActionsTaken)
	assert.Len(t, sc.InteractiveElements, 2)
	assert.Empty(t, sc.UXObservations)
	assert.Equal(t, []string{
		"Failed to open page: slow",
		"Error message detected on page",
		"Console error: Failed to load resource: the server responded with a status of 500",
	}, sc.ErrorsDetected)
}

func TestDetectErrors(t *testing.T) {
	tests := []struct {
		summary string
		console []string
		want    []string
	}{
		{"Dashboard", nil, nil},
		{"Upload FAILED, try again", nil, []string{"Error message detected on page"}},
		{"Fine", []string{"boom"}, []string{"Console error: boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectErrors(tt.summary, tt.console))
		})
	}
}
