package browser

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandArgs(t *testing.T) {
	cmd, err := ParseCommand(`fill @e4 "two words"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"fill", "@e4", "two words"}, commandArgs(cmd))

	cmd, err = ParseCommand("snapshot")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshot"}, commandArgs(cmd))
}

func TestCommandBackendRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}

	script := filepath.Join(t.TempDir(), "fake-browser")
	body := "#!/bin/sh\n" +
		"if [ \"$1\" = \"open\" ]; then\n" +
		"  echo '{\"status\":\"success\",\"action\":\"page_loaded\",\"url\":\"'\"$2\"'\"}'\n" +
		"  exit 0\n" +
		"fi\n" +
		"echo 'no such element' >&2\n" +
		"exit 1\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))

	c := NewClient(CommandBackend{Binary: script})

	open := c.Open(context.Background(), "https://app.test")
	require.True(t, open.OK(), open.Message)
	assert.Equal(t, "https://app.test", open.URL)

	click := c.Click(context.Background(), "3")
	assert.Equal(t, StatusError, click.Status)
	assert.Contains(t, click.Message, "no such element")
}
