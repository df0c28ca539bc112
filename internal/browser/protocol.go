package browser

import (
	"fmt"
	"strings"

	"github.com/lance13c/auditor/internal/types"
)

// Status is the outcome of a protocol request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Action names what a successful request did.
type Action string

const (
	ActionPageLoaded     Action = "page_loaded"
	ActionSnapshotTaken  Action = "snapshot_taken"
	ActionElementClicked Action = "element_clicked"
	ActionFieldFilled    Action = "field_filled"
)

// ClickOutcome reports whether a click navigated away.
type ClickOutcome string

const (
	NavigationOccurred ClickOutcome = "navigation_occurred"
	NoChange           ClickOutcome = "no_change"
)

// Result is the decoded reply to one request. Which fields are set depends
// on Action; failures carry only Status and Message.
type Result struct {
	Status        Status         `json:"status"`
	Action        Action         `json:"action,omitempty"`
	URL           string         `json:"url,omitempty"`
	Elements      types.Elements `json:"elements,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	ElementID     types.FlexID   `json:"element_id,omitempty"`
	Outcome       ClickOutcome   `json:"result,omitempty"`
	Value         string         `json:"value,omitempty"`
	Message       string         `json:"message,omitempty"`
	ConsoleErrors []string       `json:"console_errors,omitempty"`
}

// OK reports whether the request succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Navigated reports whether a click reply says the page changed.
func (r Result) Navigated() bool {
	return r.OK() && r.Outcome == NavigationOccurred
}

// Failure builds an error reply.
func Failure(format string, args ...interface{}) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Verb is the first word of a request.
type Verb string

const (
	VerbOpen     Verb = "open"
	VerbSnapshot Verb = "snapshot"
	VerbClick    Verb = "click"
	VerbFill     Verb = "fill"
)

// Command is a parsed request.
type Command struct {
	Verb      Verb
	URL       string
	ElementID string
	Value     string
}

const refPrefix = "@e"

// OpenRequest renders `open <url>`.
func OpenRequest(url string) string {
	return "open " + url
}

// SnapshotRequest renders `snapshot`.
func SnapshotRequest() string {
	return string(VerbSnapshot)
}

// ClickRequest renders `click @e<id>`.
func ClickRequest(elementID string) string {
	return "click " + refPrefix + elementID
}

// FillRequest renders `fill @e<id> "<value>"`.
func FillRequest(elementID, value string) string {
	return "fill " + refPrefix + elementID + " " + quote(value)
}

func quote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}

// ParseCommand is the inverse of the request builders. Backends use it to
// dispatch.
func ParseCommand(request string) (Command, error) {
	request = strings.TrimSpace(request)
	verb, rest, _ := strings.Cut(request, " ")
	rest = strings.TrimSpace(rest)

	switch Verb(verb) {
	case VerbOpen:
		if rest == "" {
			return Command{}, fmt.Errorf("open requires a url")
		}
		return Command{Verb: VerbOpen, URL: rest}, nil

	case VerbSnapshot:
		if rest != "" {
			return Command{}, fmt.Errorf("snapshot takes no arguments")
		}
		return Command{Verb: VerbSnapshot}, nil

	case VerbClick:
		id, err := parseRef(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: VerbClick, ElementID: id}, nil

	case VerbFill:
		ref, value, _ := strings.Cut(rest, " ")
		id, err := parseRef(ref)
		if err != nil {
			return Command{}, err
		}
		return Command{Verb: VerbFill, ElementID: id, Value: unquote(strings.TrimSpace(value))}, nil
	}

	return Command{}, fmt.Errorf("unknown command: %s", request)
}

func parseRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, refPrefix) || len(ref) == len(refPrefix) {
		return "", fmt.Errorf("invalid element reference %q", ref)
	}
	return strings.TrimPrefix(ref, refPrefix), nil
}

// unquote strips the surrounding quotes of a fill value and undoes the
// escaping applied by FillRequest.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		inner := v[1 : len(v)-1]
		r := strings.NewReplacer(`\"`, `"`, `\\`, `\`)
		return r.Replace(inner)
	}
	return v
}
