// Package exploration drives a web application through the browser client,
// one page at a time, recording what each page looks like.
package exploration

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/types"
)

// Defaults applied by NewEngine to zero-valued options.
const (
	DefaultMaxDepth                 = 5
	DefaultMaxInteractionsPerScreen = 3
)

// ErrAlreadyRunning is returned when ExecuteExploration is called while a
// run is in progress on the same engine.
var ErrAlreadyRunning = errors.New("exploration already running on this engine")

// Options bound and observe a run.
type Options struct {
	StartURL                 string
	MaxDepth                 int // navigation hops from the start page
	MaxInteractionsPerScreen int
	MaxScreens               int // 0 means no limit beyond MaxDepth
	ProbeValue               string
	AllowExternal            bool // follow navigation to other hosts
	OnEvent                  func(Event)
	Now                      func() time.Time
}

// EventKind identifies a progress event.
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventPage        EventKind = "page"
	EventInteraction EventKind = "interaction"
	EventCompleted   EventKind = "completed"
)

// Event is emitted to Options.OnEvent as the run progresses.
type Event struct {
	Kind         EventKind
	SessionID    string
	URL          string
	Depth        int
	Request      string
	Status       browser.Status
	Screens      int
	Interactions int
}

// Engine explores from a start URL. The visited set belongs to the engine
// and survives across runs, so a URL explored once is never explored again
// by the same engine.
type Engine struct {
	client *browser.Client
	opts   Options

	mu      sync.Mutex
	running bool
	visited map[string]bool
	session *Session
}

// NewEngine applies defaults to opts.
func NewEngine(client *browser.Client, opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxInteractionsPerScreen <= 0 {
		opts.MaxInteractionsPerScreen = DefaultMaxInteractionsPerScreen
	}
	if opts.ProbeValue == "" {
		opts.ProbeValue = DefaultProbeValue
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		client:  client,
		opts:    opts,
		visited: make(map[string]bool),
	}
}

// InitializeSession starts a fresh session in the Exploring state.
func (e *Engine) InitializeSession() *Session {
	now := e.opts.Now()
	s := newSession(e.opts.StartURL, now)
	s.begin(now)
	e.session = s
	return s
}

// Session returns the current or most recent session.
func (e *Engine) Session() *Session {
	return e.session
}

// Visited reports whether a URL has been explored by this engine.
func (e *Engine) Visited(rawURL string) bool {
	return e.visited[browser.NormalizeURL(rawURL)]
}

func (e *Engine) markVisited(rawURL string) {
	e.visited[browser.NormalizeURL(rawURL)] = true
}

func (e *Engine) emit(ev Event) {
	if e.opts.OnEvent == nil {
		return
	}
	if e.session != nil {
		ev.SessionID = e.session.SessionID
		ev.Screens = len(e.session.ScreensVisited)
		ev.Interactions = e.session.TotalInteractions
	}
	e.opts.OnEvent(ev)
}

// ExecuteExploration runs a full session and returns it Completed. Browser
// failures never abort the run; they end up in the screens' error lists.
// The only errors are ErrAlreadyRunning and cancellation of ctx, in which
// case the partial session is still completed and returned.
func (e *Engine) ExecuteExploration(ctx context.Context) (*Session, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	s := e.InitializeSession()
	start := e.opts.StartURL
	logging.Info("exploration %s started at %s (max depth %d, %d interactions per screen)",
		s.SessionID, start, e.opts.MaxDepth, e.opts.MaxInteractionsPerScreen)
	e.emit(Event{Kind: EventStarted, URL: start})

	var openErrs []string
	if res := e.client.Open(ctx, start); !res.OK() {
		logging.Warn("failed to open %s: %s", start, res.Message)
		openErrs = append(openErrs, fmt.Sprintf("Failed to open page: %s", res.Message))
	}
	e.markVisited(start)
	e.explore(ctx, start, 0, openErrs)

	s.complete(e.opts.Now())
	logging.Info("exploration %s completed: %d screens, %d interactions, %.0f%% coverage",
		s.SessionID, len(s.ScreensVisited), s.TotalInteractions, s.CoveragePercentage)
	e.emit(Event{Kind: EventCompleted, URL: start})

	if err := ctx.Err(); err != nil {
		return s, fmt.Errorf("exploration interrupted: %w", err)
	}
	return s, nil
}

// explore captures the page at pageURL, then works through its planned
// interactions, descending into pages they navigate to.
func (e *Engine) explore(ctx context.Context, pageURL string, depth int, priorErrs []string) {
	if ctx.Err() != nil {
		return
	}

	screen := e.ExplorePage(ctx, pageURL, priorErrs)
	e.session.addScreen(screen)
	e.emit(Event{Kind: EventPage, URL: pageURL, Depth: depth})

	plan := PlanInteractions(screen.InteractiveElements, e.opts.ProbeValue)
	if len(plan) > e.opts.MaxInteractionsPerScreen {
		plan = plan[:e.opts.MaxInteractionsPerScreen]
	}

	for i, step := range plan {
		if ctx.Err() != nil {
			return
		}

		res := e.client.Do(ctx, step.Request)
		rec := InteractionRecord{
			ScreenURL: pageURL,
			Request:   step.Request,
			Status:    res.Status,
			Outcome:   res.Outcome,
			Message:   res.Message,
		}
		if !res.Navigated() {
			e.session.addInteraction(rec)
			e.emit(Event{Kind: EventInteraction, URL: pageURL, Depth: depth, Request: step.Request, Status: res.Status})
			continue
		}

		dest := e.destination(res, screen.InteractiveElements, step, pageURL)
		rec.Destination = dest
		e.session.addInteraction(rec)
		e.emit(Event{Kind: EventInteraction, URL: pageURL, Depth: depth, Request: step.Request, Status: res.Status})

		if e.shouldFollow(pageURL, dest, depth) {
			e.markVisited(dest)
			e.explore(ctx, dest, depth+1, nil)
		}

		if i == len(plan)-1 {
			break
		}
		if !e.returnTo(ctx, pageURL) {
			return
		}
	}
}

// destination works out where a navigating click went: the reply's URL if
// the collaborator reported one, else the clicked link's href. Both are
// resolved against pageURL.
func (e *Engine) destination(res browser.Result, elements types.Elements, step PlannedInteraction, pageURL string) string {
	if res.URL != "" {
		return browser.NormalizeURL(browser.ResolveURL(pageURL, res.URL))
	}
	if el, ok := elements.Find(step.ElementID); ok {
		if link, ok := el.(types.Link); ok && types.Present(link.Href) {
			return browser.NormalizeURL(browser.ResolveURL(pageURL, *link.Href))
		}
	}
	logging.Debug("navigation from %s via %s has no known destination", pageURL, step.Request)
	return ""
}

func (e *Engine) shouldFollow(from, dest string, depth int) bool {
	switch {
	case dest == "":
		return false
	case e.Visited(dest):
		logging.Debug("skipping already visited %s", dest)
		return false
	case depth >= e.opts.MaxDepth:
		logging.Debug("not following %s: max depth %d reached", dest, e.opts.MaxDepth)
		return false
	case e.opts.MaxScreens > 0 && len(e.session.ScreensVisited) >= e.opts.MaxScreens:
		logging.Debug("not following %s: screen limit %d reached", dest, e.opts.MaxScreens)
		return false
	case !e.opts.AllowExternal && !sameHost(from, dest):
		logging.Debug("not following external link %s", dest)
		return false
	}
	return true
}

// returnTo reloads the page whose remaining interactions are still pending
// and re-snapshots it so element ids are valid again.
func (e *Engine) returnTo(ctx context.Context, pageURL string) bool {
	if res := e.client.Open(ctx, pageURL); !res.OK() {
		logging.Warn("could not return to %s, abandoning its remaining interactions: %s", pageURL, res.Message)
		return false
	}
	if res := e.client.Snapshot(ctx); !res.OK() {
		logging.Warn("could not re-snapshot %s: %s", pageURL, res.Message)
		return false
	}
	return true
}

// ExplorePage snapshots the page currently loaded and builds its capture.
// A failed snapshot still yields a capture, flagged with the failure.
func (e *Engine) ExplorePage(ctx context.Context, pageURL string, priorErrs []string) types.ScreenCapture {
	logging.Debug("exploring page %s", pageURL)
	now := e.opts.Now()

	res := e.client.Snapshot(ctx)
	if !res.OK() {
		logging.Warn("snapshot of %s failed: %s", pageURL, res.Message)
		errs := append(append([]string{}, priorErrs...), "Snapshot failed: "+res.Message)
		return types.NewScreenCapture(pageURL, now, []string{"snapshot_failed"}, nil, errs, nil, "Failed to capture page")
	}

	observations := ObserveUX(res.Elements)
	errs := append(append([]string{}, priorErrs...), DetectErrors(res.Summary, res.ConsoleErrors)...)
	logging.Debug("%s: %d elements, %d observations, %d errors", pageURL, len(res.Elements), len(observations), len(errs))

	return types.NewScreenCapture(pageURL, now, []string{"snapshot"}, res.Elements, errs, observations, res.Summary)
}

// ObserveUX is the quick per-page check recorded on each capture; the full
// rule set lives in the ux package.
func ObserveUX(elements types.Elements) []string {
	var out []string
	for _, el := range elements {
		switch v := el.(type) {
		case types.Input:
			if !types.Present(v.Label) {
				out = append(out, "Input field missing label: "+v.ID)
			}
		case types.Button:
			if !v.Enabled && !types.Present(v.DisabledReason) {
				label := types.Text(v.Label)
				if label == "" {
					label = "Unknown"
				}
				out = append(out, "Button disabled without clear reason: "+label)
			}
		}
	}
	return out
}

// DetectErrors flags error text in the page summary and passes through
// console errors reported by the browser.
func DetectErrors(summary string, consoleErrors []string) []string {
	var out []string
	s := strings.ToLower(summary)
	if strings.Contains(s, "error") || strings.Contains(s, "failed") {
		out = append(out, "Error message detected on page")
	}
	for _, msg := range consoleErrors {
		out = append(out, "Console error: "+msg)
	}
	return out
}

func sameHost(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}
