package browser

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lance13c/auditor/internal/logging"
)

// Backend executes one protocol request against a browser-automation
// collaborator and returns its raw JSON reply.
type Backend interface {
	Execute(ctx context.Context, request string) ([]byte, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, request string) ([]byte, error)

func (f BackendFunc) Execute(ctx context.Context, request string) ([]byte, error) {
	return f(ctx, request)
}

// Client turns navigation intents into protocol requests and decodes the
// replies. It never returns a Go error: every failure is reported as a
// Result with StatusError. Requests are not retried.
type Client struct {
	backend Backend
}

// NewClient wraps a backend.
func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// Open loads a URL.
func (c *Client) Open(ctx context.Context, url string) Result {
	return c.Do(ctx, OpenRequest(url))
}

// Snapshot captures the interactive elements and a summary of the page.
func (c *Client) Snapshot(ctx context.Context) Result {
	return c.Do(ctx, SnapshotRequest())
}

// Click activates an element by its snapshot id.
func (c *Client) Click(ctx context.Context, elementID string) Result {
	return c.Do(ctx, ClickRequest(elementID))
}

// Fill types a value into an element by its snapshot id.
func (c *Client) Fill(ctx context.Context, elementID, value string) Result {
	return c.Do(ctx, FillRequest(elementID, value))
}

// Do sends a raw request string.
func (c *Client) Do(ctx context.Context, request string) Result {
	verb, _, _ := strings.Cut(request, " ")
	logging.Debug("browser request: %s", request)

	if c.backend == nil {
		return Failure("no browser backend configured")
	}

	raw, err := c.backend.Execute(ctx, request)
	if err != nil {
		logging.Warn("browser %s failed: %v", verb, err)
		return Failure("%s", err.Error())
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		logging.Warn("browser %s returned an undecodable reply: %v", verb, err)
		return Failure("invalid reply: %v", err)
	}

	switch res.Status {
	case StatusSuccess:
	case StatusError:
		if res.Message == "" {
			res.Message = "unspecified error"
		}
		logging.Debug("browser %s error: %s", verb, res.Message)
	default:
		return Failure("invalid reply status %q", res.Status)
	}

	return res
}
