package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		rel     string
		pattern string
		want    bool
	}{
		{"node_modules/react/index.js", "node_modules/**", true},
		{"node_modules", "node_modules/**", true},
		{"src/node_modules_backup/x.js", "node_modules/**", false},
		{"src/gen/api.ts", "**/api.ts", true},
		{"app/debug.log", "*.log", true},
		{"app/main.ts", "*.log", false},
		{"qa-reports/qa_audit_report.json", "qa-reports/**", true},
	}
	for _, tt := range tests {
		t.Run(tt.rel+"~"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, globMatch(tt.rel, tt.pattern))
		})
	}
}

func TestPathFilter(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	f := newPathFilter(root, cfg.Ignore, cfg.Extensions)

	assert.True(t, f.skipDir(filepath.Join(root, "node_modules")))
	assert.True(t, f.skipDir(filepath.Join(root, ".git")))
	assert.False(t, f.skipDir(root))
	assert.False(t, f.skipDir(filepath.Join(root, "src")))

	assert.True(t, f.accept(filepath.Join(root, "src", "Login.TSX")))
	assert.False(t, f.accept(filepath.Join(root, "src", "logo.png")))
	assert.False(t, f.accept(filepath.Join(root, "dist", "bundle.js")))
	assert.False(t, f.accept(filepath.Join(filepath.Dir(root), "elsewhere.ts")), "outside the root")

	outside := filepath.Join(t.TempDir(), "notes.txt")
	f.explicit[outside] = true
	assert.True(t, f.accept(outside), "explicit files bypass filters")
}

func TestExplicitFileChangeTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(target, []byte("start: https://app.test\n"), 0644))

	w, err := New("", Config{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Watch(target))

	changed := make(chan []string, 1)
	w.OnChange(func(files []string) error {
		select {
		case changed <- files:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, w.Running, time.Second, 10*time.Millisecond)

	// siblings of a watched file are not inputs
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("start: https://app.test/login\n"), 0644))

	select {
	case files := <-changed:
		assert.Equal(t, []string{target}, files)
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.False(t, w.Running())
}

func TestSourceTreeBatchesChanges(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0755))

	w, err := New(root, Config{Debounce: 100 * time.Millisecond, Extensions: []string{".ts"}})
	require.NoError(t, err)

	changed := make(chan []string, 4)
	w.OnChange(func(files []string) error {
		changed <- files
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	require.Eventually(t, func() bool { return len(w.fs.WatchList()) == 2 }, time.Second, 10*time.Millisecond)

	a := filepath.Join(src, "a.ts")
	b := filepath.Join(src, "b.ts")
	require.NoError(t, os.WriteFile(a, []byte("1"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("2"), 0644))

	select {
	case files := <-changed:
		assert.Equal(t, []string{a, b}, files)
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestRunTwice(t *testing.T) {
	w, err := New("", Config{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	require.Eventually(t, w.Running, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, w.Run(ctx), ErrRunning)
}
