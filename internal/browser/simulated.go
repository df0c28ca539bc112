package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lance13c/auditor/internal/types"
)

// Site is an in-memory application described in YAML, served by
// SimulatedBackend.
type Site struct {
	Pages []SitePage `yaml:"pages"`
}

// SitePage is one page of a simulated site.
type SitePage struct {
	URL           string        `yaml:"url"`
	Summary       string        `yaml:"summary"`
	ConsoleErrors []string      `yaml:"console_errors,omitempty"`
	SnapshotError string        `yaml:"snapshot_error,omitempty"`
	Elements      []SiteElement `yaml:"elements"`
}

// SiteElement is an element plus the page its click leads to, if any.
type SiteElement struct {
	types.ElementData `yaml:",inline"`
	NavigatesTo       string `yaml:"navigates_to,omitempty"`
}

// LoadSite reads a site map from disk.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}
	return ParseSite(data)
}

// ParseSite decodes a YAML site map.
func ParseSite(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}
	if len(site.Pages) == 0 {
		return nil, fmt.Errorf("site file defines no pages")
	}
	return &site, nil
}

// DefaultSite is a small login flow rooted at base: a login form leading to
// a dashboard, a password reset page and a registration page.
func DefaultSite(base string) *Site {
	base = strings.TrimRight(base, "/")
	yes, no := true, false
	el := func(id, kind, label string) types.ElementData {
		d := types.ElementData{ID: types.FlexID(id), Type: kind}
		if label != "" {
			d.Label = types.Ptr(label)
		}
		return d
	}

	email := el("1", "input", "Email")
	email.Required = true
	email.Placeholder = types.Ptr("Enter your email")
	password := el("2", "input", "Password")
	password.Required = true
	password.Placeholder = types.Ptr("")
	login := el("3", "button", "Login")
	login.Enabled = &yes
	login.Primary = true
	forgot := el("4", "link", "Forgot Password")
	forgot.Href = types.Ptr("/reset")
	signup := el("5", "link", "Sign Up")
	signup.Href = types.Ptr("/register")

	reports := el("1", "link", "Reports")
	reports.Href = types.Ptr("/dashboard/reports")
	export := el("2", "button", "Export")
	export.Enabled = &no
	more := el("3", "link", "Read more")
	more.Href = types.Ptr("/dashboard#news")

	resetEmail := el("1", "input", "")
	resetEmail.Required = true
	send := el("2", "button", "Send")
	send.Enabled = &yes

	name := el("1", "input", "Full name")
	name.Required = true
	name.Placeholder = types.Ptr("Jane Doe")
	submit := el("2", "button", "Submit")
	submit.Enabled = &yes

	return &Site{Pages: []SitePage{
		{
			URL:     base,
			Summary: "Login page with email and password input fields, login button, and links for password reset and registration",
			Elements: []SiteElement{
				{ElementData: email},
				{ElementData: password},
				{ElementData: login, NavigatesTo: "/dashboard"},
				{ElementData: forgot, NavigatesTo: "/reset"},
				{ElementData: signup, NavigatesTo: "/register"},
			},
		},
		{
			URL:     base + "/dashboard",
			Summary: "Dashboard with recent activity, a reports link and an export button",
			Elements: []SiteElement{
				{ElementData: reports},
				{ElementData: export},
				{ElementData: more},
			},
		},
		{
			URL:     base + "/reset",
			Summary: "Password reset page asking for the account email",
			Elements: []SiteElement{
				{ElementData: resetEmail},
				{ElementData: send},
			},
		},
		{
			URL:           base + "/register",
			Summary:       "Registration form. Error: something went wrong",
			ConsoleErrors: []string{"Failed to load resource: the server responded with a status of 500"},
			Elements: []SiteElement{
				{ElementData: name},
				{ElementData: submit},
			},
		},
	}}
}

// SimulatedBackend serves a Site without a browser. It tracks the current
// page and records every request it receives.
type SimulatedBackend struct {
	mu       sync.Mutex
	pages    map[string]*SitePage
	current  *SitePage
	requests []string
}

// NewSimulatedBackend indexes the site's pages by normalized URL.
func NewSimulatedBackend(site *Site) *SimulatedBackend {
	b := &SimulatedBackend{pages: make(map[string]*SitePage)}
	for i := range site.Pages {
		p := &site.Pages[i]
		b.pages[NormalizeURL(p.URL)] = p
	}
	return b
}

// Requests returns a copy of the requests seen so far.
func (b *SimulatedBackend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.requests...)
}

// Execute implements Backend.
func (b *SimulatedBackend) Execute(ctx context.Context, request string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, request)

	cmd, err := ParseCommand(request)
	if err != nil {
		return json.Marshal(Failure("%s", err.Error()))
	}

	var res Result
	switch cmd.Verb {
	case VerbOpen:
		res = b.open(cmd.URL)
	case VerbSnapshot:
		res = b.snapshot()
	case VerbClick:
		res = b.click(cmd.ElementID)
	case VerbFill:
		res = b.fill(cmd.ElementID, cmd.Value)
	}
	return json.Marshal(res)
}

func (b *SimulatedBackend) open(target string) Result {
	page, ok := b.pages[NormalizeURL(target)]
	if !ok {
		return Failure("page not found: %s", target)
	}
	b.current = page
	return Result{Status: StatusSuccess, Action: ActionPageLoaded, URL: page.URL, Message: "Successfully loaded " + page.URL}
}

func (b *SimulatedBackend) snapshot() Result {
	if b.current == nil {
		return Failure("no page loaded")
	}
	if b.current.SnapshotError != "" {
		return Failure("%s", b.current.SnapshotError)
	}

	elements := make(types.Elements, 0, len(b.current.Elements))
	for _, e := range b.current.Elements {
		elements = append(elements, e.Element())
	}
	return Result{
		Status:        StatusSuccess,
		Action:        ActionSnapshotTaken,
		URL:           b.current.URL,
		Elements:      elements,
		Summary:       b.current.Summary,
		ConsoleErrors: append([]string{}, b.current.ConsoleErrors...),
	}
}

func (b *SimulatedBackend) element(id string) (*SiteElement, error) {
	if b.current == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	for i := range b.current.Elements {
		if string(b.current.Elements[i].ID) == id {
			return &b.current.Elements[i], nil
		}
	}
	return nil, fmt.Errorf("element @e%s not found", id)
}

func (b *SimulatedBackend) click(id string) Result {
	el, err := b.element(id)
	if err != nil {
		return Failure("%s", err.Error())
	}

	res := Result{Status: StatusSuccess, Action: ActionElementClicked, ElementID: types.FlexID(id), Outcome: NoChange}
	if el.NavigatesTo == "" {
		return res
	}

	dest := ResolveURL(b.current.URL, el.NavigatesTo)
	page, ok := b.pages[NormalizeURL(dest)]
	if !ok {
		return Failure("navigation to unknown page: %s", dest)
	}
	b.current = page
	res.Outcome = NavigationOccurred
	res.URL = page.URL
	return res
}

func (b *SimulatedBackend) fill(id, value string) Result {
	el, err := b.element(id)
	if err != nil {
		return Failure("%s", err.Error())
	}
	if _, ok := el.Element().(types.Input); !ok {
		return Failure("element @e%s is not fillable", id)
	}
	return Result{Status: StatusSuccess, Action: ActionFieldFilled, ElementID: types.FlexID(id), Value: value}
}

// NormalizeURL drops the fragment and trailing slashes on the path so that
// equivalent addresses compare equal.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// ResolveURL resolves ref against base, as a browser resolves an href.
func ResolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
