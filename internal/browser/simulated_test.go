package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lance13c/auditor/internal/types"
)

const siteYAML = `
pages:
  - url: https://shop.test/
    summary: Storefront
    elements:
      - id: "1"
        type: link
        label: Click here
        href: /cart
        navigates_to: /cart
      - id: "2"
        type: button
        label: Subscribe
  - url: https://shop.test/cart
    summary: Cart is empty
    snapshot_error: renderer crashed
`

func TestParseSite(t *testing.T) {
	site, err := ParseSite([]byte(siteYAML))
	require.NoError(t, err)
	require.Len(t, site.Pages, 2)

	first := site.Pages[0]
	require.Len(t, first.Elements, 2)
	assert.Equal(t, "/cart", first.Elements[0].NavigatesTo)

	link, ok := first.Elements[0].Element().(types.Link)
	require.True(t, ok)
	assert.Equal(t, "Click here", types.Text(link.Label))

	btn, ok := first.Elements[1].Element().(types.Button)
	require.True(t, ok)
	assert.False(t, btn.Enabled)
}

func TestParseSiteRejectsEmpty(t *testing.T) {
	_, err := ParseSite([]byte("pages: []"))
	assert.Error(t, err)
}

func TestLoadSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(siteYAML), 0644))

	site, err := LoadSite(path)
	require.NoError(t, err)
	assert.Len(t, site.Pages, 2)

	_, err = LoadSite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSimulatedBackendFlow(t *testing.T) {
	ctx := context.Background()
	backend := NewSimulatedBackend(DefaultSite("https://app.test"))
	c := NewClient(backend)

	open := c.Open(ctx, "https://app.test/")
	require.True(t, open.OK())
	assert.Equal(t, ActionPageLoaded, open.Action)

	snap := c.Snapshot(ctx)
	require.True(t, snap.OK())
	assert.Len(t, snap.Elements, 5)

	fill := c.Fill(ctx, "1", "test_value")
	require.True(t, fill.OK())
	assert.Equal(t, ActionFieldFilled, fill.Action)
	assert.Equal(t, "test_value", fill.Value)

	noFill := c.Fill(ctx, "3", "x")
	assert.False(t, noFill.OK(), "buttons are not fillable")

	click := c.Click(ctx, "3")
	require.True(t, click.OK())
	assert.True(t, click.Navigated())
	assert.Equal(t, "https://app.test/dashboard", click.URL)

	dash := c.Snapshot(ctx)
	require.True(t, dash.OK())
	assert.Contains(t, dash.Summary, "Dashboard")

	stay := c.Click(ctx, "2")
	require.True(t, stay.OK())
	assert.Equal(t, NoChange, stay.Outcome)

	missing := c.Click(ctx, "99")
	assert.Equal(t, StatusError, missing.Status)

	assert.Equal(t, []string{
		"open https://app.test/",
		"snapshot",
		`fill @e1 "test_value"`,
		`fill @e3 "x"`,
		"click @e3",
		"snapshot",
		"click @e2",
		"click @e99",
	}, backend.Requests())
}

func TestSimulatedBackendFailures(t *testing.T) {
	ctx := context.Background()
	site, err := ParseSite([]byte(siteYAML))
	require.NoError(t, err)
	c := NewClient(NewSimulatedBackend(site))

	before := c.Snapshot(ctx)
	assert.Equal(t, "no page loaded", before.Message)

	unknown := c.Open(ctx, "https://elsewhere.test")
	assert.Equal(t, StatusError, unknown.Status)

	require.True(t, c.Open(ctx, "https://shop.test").OK())
	require.True(t, c.Click(ctx, "1").Navigated())

	snap := c.Snapshot(ctx)
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "renderer crashed", snap.Message)
}

func TestSimulatedBackendHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewClient(NewSimulatedBackend(DefaultSite("https://app.test"))).Open(ctx, "https://app.test")
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "canceled")
}
