package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{"error", ERROR, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUninitializedLoggerDiscards(t *testing.T) {
	l := GetLogger()
	if l != discard {
		t.Skip("global logger already initialized by another test")
	}
	Info("nothing %d", 1)
	assert.Empty(t, l.LogPath())
}

func TestInitializeWritesLevelFilteredRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Options{ProjectDir: dir, Level: WARN}))
	t.Cleanup(func() {
		globalMu.Lock()
		if globalLogger != nil {
			globalLogger.Close()
		}
		globalLogger = nil
		globalMu.Unlock()
	})

	Info("hidden record")
	Warn("visible %s", "record")

	path := filepath.Join(dir, ".auditor", "logs", "auditor.log")
	assert.Equal(t, path, GetLogger().LogPath())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[WARN] visible record")
	assert.NotContains(t, string(data), "hidden record")
}
