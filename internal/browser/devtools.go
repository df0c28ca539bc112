package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/types"
)

// DebuggerTarget is one entry of Chrome's /json/list endpoint.
type DebuggerTarget struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ResolveDebuggerURL asks a Chrome started with --remote-debugging-port for
// its first page target. endpoint is e.g. http://127.0.0.1:9222.
func ResolveDebuggerURL(ctx context.Context, endpoint string) (string, error) {
	listURL := strings.TrimRight(endpoint, "/") + "/json/list"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach debugger at %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var targets []DebuggerTarget
	if err := json.Unmarshal(body, &targets); err != nil {
		return "", fmt.Errorf("failed to decode debugger targets: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", fmt.Errorf("no page target found at %s", endpoint)
}

type cdpMessage struct {
	ID     int             `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// DevToolsBackend attaches to a page of an already running Chrome over the
// raw DevTools protocol. Requests are serialized over one connection.
type DevToolsBackend struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  int
	timeout time.Duration
	settle  time.Duration

	consoleErrors []string
}

// DialDevTools connects to a page's WebSocket debugger URL and enables the
// Page and Runtime domains.
func DialDevTools(ctx context.Context, wsURL string, timeout time.Duration) (*DevToolsBackend, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, httpResp, err := dialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		if httpResp != nil {
			logging.Warn("DevTools handshake failed with status %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect to WebSocket %s: %w", wsURL, err)
	}

	b := &DevToolsBackend{conn: conn, nextID: 1, timeout: timeout, settle: 500 * time.Millisecond}
	for _, method := range []string{"Page.enable", "Runtime.enable"} {
		if _, err := b.call(method, map[string]interface{}{}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable %s: %w", method, err)
		}
	}
	logging.Info("attached to DevTools target %s", wsURL)
	return b, nil
}

// Close closes the connection. The browser keeps running.
func (b *DevToolsBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Close()
}

// call sends one method and reads until the matching reply, buffering the
// console events seen in between. Callers hold b.mu.
func (b *DevToolsBackend) call(method string, params interface{}) (json.RawMessage, error) {
	id := b.nextID
	b.nextID++

	deadline := time.Now().Add(b.timeout)
	b.conn.SetWriteDeadline(deadline)
	b.conn.SetReadDeadline(deadline)

	if err := b.conn.WriteJSON(map[string]interface{}{"id": id, "method": method, "params": params}); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}

	for {
		var msg cdpMessage
		if err := b.conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("failed to read %s reply: %w", method, err)
		}
		if msg.ID == 0 {
			b.onEvent(msg)
			continue
		}
		if msg.ID != id {
			continue
		}
		if msg.Error != nil {
			return nil, fmt.Errorf("%s: %s", method, msg.Error.Message)
		}
		return msg.Result, nil
	}
}

func (b *DevToolsBackend) onEvent(msg cdpMessage) {
	switch msg.Method {
	case "Runtime.consoleAPICalled":
		var p struct {
			Type string `json:"type"`
			Args []struct {
				Value       interface{} `json:"value"`
				Description string      `json:"description"`
			} `json:"args"`
		}
		if json.Unmarshal(msg.Params, &p) != nil || p.Type != "error" {
			return
		}
		var parts []string
		for _, a := range p.Args {
			if a.Description != "" {
				parts = append(parts, a.Description)
			} else if a.Value != nil {
				parts = append(parts, fmt.Sprint(a.Value))
			}
		}
		if len(parts) > 0 {
			b.consoleErrors = append(b.consoleErrors, strings.Join(parts, " "))
		}

	case "Runtime.exceptionThrown":
		var p struct {
			ExceptionDetails struct {
				Text      string `json:"text"`
				Exception *struct {
					Description string `json:"description"`
				} `json:"exception"`
			} `json:"exceptionDetails"`
		}
		if json.Unmarshal(msg.Params, &p) != nil {
			return
		}
		text := p.ExceptionDetails.Text
		if ex := p.ExceptionDetails.Exception; ex != nil && ex.Description != "" {
			text = ex.Description
		}
		if text != "" {
			b.consoleErrors = append(b.consoleErrors, text)
		}
	}
}

// evaluate runs an expression in the page and decodes its value into out.
func (b *DevToolsBackend) evaluate(expr string, out interface{}) error {
	raw, err := b.call("Runtime.evaluate", map[string]interface{}{
		"expression":    expr,
		"returnByValue": true,
		"awaitPromise":  true,
	})
	if err != nil {
		return err
	}

	var reply struct {
		Result struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("failed to decode evaluate reply: %w", err)
	}
	if reply.ExceptionDetails != nil {
		return fmt.Errorf("script error: %s", reply.ExceptionDetails.Text)
	}
	if out == nil || len(reply.Result.Value) == 0 {
		return nil
	}
	return json.Unmarshal(reply.Result.Value, out)
}

// waitLoaded polls document.readyState until the page has loaded.
func (b *DevToolsBackend) waitLoaded(ctx context.Context) error {
	deadline := time.Now().Add(b.timeout)
	for {
		var state string
		if err := b.evaluate("document.readyState", &state); err != nil {
			return err
		}
		if state == "complete" || state == "interactive" {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("page did not finish loading")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Execute implements Backend.
func (b *DevToolsBackend) Execute(ctx context.Context, request string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd, err := ParseCommand(request)
	if err != nil {
		return json.Marshal(Failure("%s", err.Error()))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var res Result
	switch cmd.Verb {
	case VerbOpen:
		res = b.open(ctx, cmd.URL)
	case VerbSnapshot:
		res = b.snapshot()
	case VerbClick:
		res = b.click(ctx, cmd.ElementID)
	case VerbFill:
		res = b.fill(cmd.ElementID, cmd.Value)
	}
	return json.Marshal(res)
}

func (b *DevToolsBackend) open(ctx context.Context, url string) Result {
	b.consoleErrors = nil

	raw, err := b.call("Page.navigate", map[string]interface{}{"url": url})
	if err != nil {
		return Failure("failed to open %s: %v", url, err)
	}
	var nav struct {
		ErrorText string `json:"errorText"`
	}
	if json.Unmarshal(raw, &nav) == nil && nav.ErrorText != "" {
		return Failure("navigation failed: %s", nav.ErrorText)
	}
	if err := b.waitLoaded(ctx); err != nil {
		return Failure("failed to open %s: %v", url, err)
	}

	var location string
	if err := b.evaluate(locationScript, &location); err != nil {
		location = url
	}
	return Result{Status: StatusSuccess, Action: ActionPageLoaded, URL: location}
}

func (b *DevToolsBackend) snapshot() Result {
	var page, location string
	if err := b.evaluate(tagScript, &page); err != nil {
		return Failure("snapshot failed: %v", err)
	}
	b.evaluate(locationScript, &location)

	elements, err := ExtractElements(page)
	if err != nil {
		return Failure("%s", err.Error())
	}
	errs := b.consoleErrors
	b.consoleErrors = nil
	return Result{
		Status:        StatusSuccess,
		Action:        ActionSnapshotTaken,
		URL:           location,
		Elements:      elements,
		Summary:       Summarize(page),
		ConsoleErrors: errs,
	}
}

func (b *DevToolsBackend) click(ctx context.Context, id string) Result {
	var before, after string
	if err := b.evaluate(locationScript, &before); err != nil {
		return Failure("click @e%s failed: %v", id, err)
	}

	var found bool
	if err := b.evaluate(clickScript(id), &found); err != nil {
		return Failure("click @e%s failed: %v", id, err)
	}
	if !found {
		return Failure("element @e%s not found", id)
	}

	select {
	case <-ctx.Done():
		return Failure("%v", ctx.Err())
	case <-time.After(b.settle):
	}
	if err := b.waitLoaded(ctx); err != nil {
		return Failure("click @e%s: page did not settle: %v", id, err)
	}
	if err := b.evaluate(locationScript, &after); err != nil {
		return Failure("click @e%s failed: %v", id, err)
	}

	res := Result{Status: StatusSuccess, Action: ActionElementClicked, ElementID: types.FlexID(id), Outcome: NoChange}
	if NormalizeURL(after) != NormalizeURL(before) {
		res.Outcome = NavigationOccurred
		res.URL = after
	}
	return res
}

func (b *DevToolsBackend) fill(id, value string) Result {
	var found bool
	if err := b.evaluate(fillScript(id, value), &found); err != nil {
		return Failure("fill @e%s failed: %v", id, err)
	}
	if !found {
		return Failure("element @e%s not found", id)
	}
	return Result{Status: StatusSuccess, Action: ActionFieldFilled, ElementID: types.FlexID(id), Value: value}
}
