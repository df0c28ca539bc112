package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// rotatingFile is an append-only file that moves itself aside once it grows
// past limit bytes. Rotated copies are named <stem>-<stamp><ext> and pruned
// by age and by count.
type rotatingFile struct {
	mu      sync.Mutex
	path    string
	limit   int64
	keep    int
	maxAge  time.Duration
	now     func() time.Time
	f       *os.File
	written int64
}

func openRotating(path string, limit int64, keep int, maxAge time.Duration) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	rf := &rotatingFile{path: path, limit: limit, keep: keep, maxAge: maxAge, now: time.Now}
	if err := rf.reopen(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) reopen() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	rf.written = 0
	if st, err := f.Stat(); err == nil {
		rf.written = st.Size()
	}
	rf.f = f
	return nil
}

func (rf *rotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.f == nil {
		return 0, os.ErrClosed
	}
	if rf.limit > 0 && rf.written+int64(len(p)) > rf.limit && rf.written > 0 {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rf.f.Write(p)
	rf.written += int64(n)
	return n, err
}

func (rf *rotatingFile) rotate() error {
	rf.f.Close()
	rf.f = nil

	ext := filepath.Ext(rf.path)
	stem := strings.TrimSuffix(rf.path, ext)
	target := fmt.Sprintf("%s-%s%s", stem, rf.now().Format("20060102-150405.000"), ext)
	if err := os.Rename(rf.path, target); err != nil {
		// keep logging into the same file rather than losing records
		if rerr := rf.reopen(); rerr != nil {
			return rerr
		}
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	if err := rf.reopen(); err != nil {
		return err
	}
	rf.prune()
	return nil
}

// backups lists rotated copies, oldest first.
func (rf *rotatingFile) backups() []string {
	ext := filepath.Ext(rf.path)
	prefix := strings.TrimSuffix(filepath.Base(rf.path), ext) + "-"
	entries, err := os.ReadDir(filepath.Dir(rf.path))
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ext {
			continue
		}
		out = append(out, filepath.Join(filepath.Dir(rf.path), name))
	}
	sort.Strings(out)
	return out
}

func (rf *rotatingFile) prune() {
	old := rf.backups()
	cutoff := rf.now().Add(-rf.maxAge)
	for i, p := range old {
		expired := rf.keep > 0 && len(old)-i > rf.keep
		if !expired && rf.maxAge > 0 {
			if st, err := os.Stat(p); err == nil && st.ModTime().Before(cutoff) {
				expired = true
			}
		}
		if expired {
			os.Remove(p)
		}
	}
}

func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}
