package watcher

import (
	"path"
	"path/filepath"
	"strings"
)

// pathFilter decides which filesystem events are audit inputs.
type pathFilter struct {
	root     string
	ignore   []string
	exts     map[string]bool
	explicit map[string]bool
}

func newPathFilter(root string, ignore, exts []string) *pathFilter {
	f := &pathFilter{root: root, ignore: ignore, explicit: map[string]bool{}}
	if len(exts) > 0 {
		f.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			f.exts[strings.ToLower(e)] = true
		}
	}
	return f
}

// rel returns p relative to the root in slash form, and whether p is inside it.
func (f *pathFilter) rel(p string) (string, bool) {
	if f.root == "" {
		return "", false
	}
	r, err := filepath.Rel(f.root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// skipDir reports whether a directory under the root is left unwatched.
func (f *pathFilter) skipDir(dir string) bool {
	r, ok := f.rel(dir)
	if !ok || r == "." {
		return false
	}
	return f.ignored(r)
}

func (f *pathFilter) ignored(rel string) bool {
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, pat := range f.ignore {
		if globMatch(rel, pat) {
			return true
		}
	}
	return false
}

// accept reports whether a change to p should schedule a re-run.
func (f *pathFilter) accept(p string) bool {
	if f.explicit[p] {
		return true
	}
	r, ok := f.rel(p)
	if !ok || f.ignored(r) {
		return false
	}
	return f.exts == nil || f.exts[strings.ToLower(path.Ext(r))]
}

// globMatch supports "dir/**" prefixes, "**/suffix" and plain globs, which
// also match against the base name.
func globMatch(rel, pattern string) bool {
	if before, after, found := strings.Cut(pattern, "**"); found {
		dir := strings.TrimSuffix(before, "/")
		tail := strings.TrimPrefix(after, "/")
		if dir != "" && rel != dir && !strings.HasPrefix(rel, dir+"/") {
			return false
		}
		return tail == "" || strings.HasSuffix(rel, tail)
	}
	if ok, _ := path.Match(pattern, rel); ok {
		return true
	}
	ok, _ := path.Match(pattern, path.Base(rel))
	return ok
}
