package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lance13c/auditor/internal/config"
)

func TestAuditFlagsApply(t *testing.T) {
	base := config.DefaultConfig()
	f := auditFlags{backend: "simulated", output: "out", formats: []string{"md"}, maxDepth: 2, noSave: true}

	cfg, err := f.apply(base)
	require.NoError(t, err)
	assert.Equal(t, config.BackendSimulated, cfg.Browser.Backend)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, []string{"md"}, cfg.Output.Formats)
	assert.Equal(t, 2, cfg.Exploration.MaxDepth)
	assert.False(t, cfg.Database.Enabled)

	assert.Equal(t, config.BackendChrome, base.Browser.Backend, "base config is not modified")
	assert.True(t, base.Database.Enabled)

	_, err = auditFlags{backend: "selenium"}.apply(base)
	assert.Error(t, err)
}

func TestAuditFlagsTargets(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = "https://app.test"
	cfg.Target.StartPath = "/login"
	cfg.Routes = []config.Route{
		{Path: "/dashboard"},
		{Path: "/vehicles", Roles: []string{"MANAGER"}},
		{Path: "/purge", Destructive: true},
	}

	got, err := auditFlags{}.targets(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.test/login"}, got)

	got, err = auditFlags{url: "https://other.test"}.targets(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://other.test"}, got)

	got, err = auditFlags{routes: true, role: "DRIVER"}.targets(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.test/dashboard"}, got)

	got, err = auditFlags{routes: true, role: "MANAGER"}.targets(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.test/dashboard", "https://app.test/vehicles"}, got)

	cfg.Routes = nil
	_, err = auditFlags{routes: true}.targets(cfg)
	assert.ErrorContains(t, err, "no routes configured")
}

func TestAuditTargetsSimulated(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = "https://app.test"
	cfg.Browser.Backend = config.BackendSimulated
	cfg.Output.Dir = filepath.Join(dir, "reports")
	cfg.Output.Formats = []string{"json"}
	cfg.Database.Path = filepath.Join(dir, "history.db")

	var out bytes.Buffer
	err := auditTargets(context.Background(), &out, cfg, "ADMIN", []string{cfg.StartURL()}, false)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Auditing https://app.test (simulated backend)")
	assert.Contains(t, out.String(), "Screens explored")

	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))
	assert.FileExists(t, cfg.Database.Path)
}

func TestWriteSampleSiteLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".auditor", sampleSiteFile)
	require.NoError(t, writeSampleSite(path, "https://app.test"))

	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = "https://app.test"
	cfg.Browser.Backend = config.BackendSimulated
	cfg.Browser.SiteFile = path

	backend, closeBackend, err := openBackend(context.Background(), cfg)
	require.NoError(t, err)
	defer closeBackend()
	assert.NotNil(t, backend)
}
