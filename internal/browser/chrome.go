package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/types"
)

// ChromeOptions configures a locally launched browser.
type ChromeOptions struct {
	Headless    bool
	Timeout     time.Duration // per request
	SettleDelay time.Duration // wait after clicks before reading the location
	ExecPath    string
	UserAgent   string
}

// ChromeBackend drives a headless Chrome through chromedp. Console errors and
// uncaught exceptions are buffered and attached to the next snapshot.
type ChromeBackend struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	opts        ChromeOptions

	mu            sync.Mutex
	consoleErrors []string
}

// NewChromeBackend launches Chrome and waits until it accepts commands.
func NewChromeBackend(opts ChromeOptions) (*ChromeBackend, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 500 * time.Millisecond
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 900),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		logging.Debug("[chrome] "+format, v...)
	}))

	b := &ChromeBackend{allocCancel: allocCancel, ctx: ctx, cancel: cancel, opts: opts}
	chromedp.ListenTarget(ctx, b.onEvent)

	if err := chromedp.Run(ctx, runtime.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start Chrome: %w", err)
	}
	logging.Info("Chrome started (headless=%v)", opts.Headless)
	return b, nil
}

func (b *ChromeBackend) onEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		if ev.Type != runtime.APITypeError {
			return
		}
		var parts []string
		for _, arg := range ev.Args {
			switch {
			case arg.Description != "":
				parts = append(parts, arg.Description)
			case len(arg.Value) > 0:
				parts = append(parts, strings.Trim(string(arg.Value), `"`))
			}
		}
		b.recordConsoleError(strings.Join(parts, " "))

	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails == nil {
			return
		}
		msg := ev.ExceptionDetails.Text
		if ex := ev.ExceptionDetails.Exception; ex != nil && ex.Description != "" {
			msg = ex.Description
		}
		b.recordConsoleError(msg)
	}
}

func (b *ChromeBackend) recordConsoleError(msg string) {
	if msg == "" {
		return
	}
	b.mu.Lock()
	b.consoleErrors = append(b.consoleErrors, msg)
	b.mu.Unlock()
}

func (b *ChromeBackend) drainConsoleErrors() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.consoleErrors
	b.consoleErrors = nil
	return out
}

// Close shuts the browser down.
func (b *ChromeBackend) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}

// Execute implements Backend.
func (b *ChromeBackend) Execute(ctx context.Context, request string) ([]byte, error) {
	cmd, err := ParseCommand(request)
	if err != nil {
		return json.Marshal(Failure("%s", err.Error()))
	}

	runCtx, cancel := context.WithTimeout(b.ctx, b.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var res Result
	switch cmd.Verb {
	case VerbOpen:
		res = b.open(runCtx, cmd.URL)
	case VerbSnapshot:
		res = b.snapshot(runCtx)
	case VerbClick:
		res = b.click(runCtx, cmd.ElementID)
	case VerbFill:
		res = b.fill(runCtx, cmd.ElementID, cmd.Value)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (b *ChromeBackend) open(ctx context.Context, url string) Result {
	b.drainConsoleErrors()

	var location string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		return Failure("failed to open %s: %v", url, err)
	}
	return Result{Status: StatusSuccess, Action: ActionPageLoaded, URL: location}
}

func (b *ChromeBackend) snapshot(ctx context.Context) Result {
	var (
		page     string
		location string
	)
	err := chromedp.Run(ctx,
		chromedp.Evaluate(tagScript, &page),
		chromedp.Location(&location),
	)
	if err != nil {
		return Failure("snapshot failed: %v", err)
	}

	elements, err := ExtractElements(page)
	if err != nil {
		return Failure("%s", err.Error())
	}
	return Result{
		Status:        StatusSuccess,
		Action:        ActionSnapshotTaken,
		URL:           location,
		Elements:      elements,
		Summary:       Summarize(page),
		ConsoleErrors: b.drainConsoleErrors(),
	}
}

func (b *ChromeBackend) click(ctx context.Context, id string) Result {
	var before, after string
	var found bool
	err := chromedp.Run(ctx,
		chromedp.Location(&before),
		chromedp.Evaluate(clickScript(id), &found),
	)
	if err != nil {
		return Failure("click @e%s failed: %v", id, err)
	}
	if !found {
		return Failure("element @e%s not found", id)
	}

	err = chromedp.Run(ctx,
		chromedp.Sleep(b.opts.SettleDelay),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&after),
	)
	if err != nil {
		return Failure("click @e%s: page did not settle: %v", id, err)
	}

	res := Result{Status: StatusSuccess, Action: ActionElementClicked, ElementID: types.FlexID(id), Outcome: NoChange}
	if NormalizeURL(after) != NormalizeURL(before) {
		res.Outcome = NavigationOccurred
		res.URL = after
	}
	return res
}

func (b *ChromeBackend) fill(ctx context.Context, id, value string) Result {
	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(fillScript(id, value), &found)); err != nil {
		return Failure("fill @e%s failed: %v", id, err)
	}
	if !found {
		return Failure("element @e%s not found", id)
	}
	return Result{Status: StatusSuccess, Action: ActionFieldFilled, ElementID: types.FlexID(id), Value: value}
}
