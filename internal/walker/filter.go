package walker

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skippedDirs are directory names never descended into, whatever the
// configured patterns say.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".docrag":      true,
	".venv":        true,
	".idea":        true,
	".vscode":      true,
	"__MACOSX":     true,
}

// Filter decides which paths under the documents root are indexed.
// Patterns are doublestar globs over slash-separated relative paths; a
// pattern without a slash also matches the bare file name, so "*.docx"
// selects Word files at any depth.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates include and exclude patterns. An empty include list
// admits every supported document.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = cleanPatterns(include); err != nil {
		return nil, err
	}
	if f.exclude, err = cleanPatterns(exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func cleanPatterns(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(p)), "./")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("walker: invalid pattern %q: %w", p, doublestar.ErrBadPattern)
		}
		out = append(out, p)
	}
	return out, nil
}

// SkipDir reports whether the directory at rel is pruned. Besides the
// fixed names, an exclude pattern prunes a directory it covers entirely,
// such as "drafts" or "archive/**".
func (f *Filter) SkipDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	if skippedDirs[path.Base(rel)] {
		return true
	}
	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(strings.TrimSuffix(p, "/**"), rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Keep reports whether the file at rel passes the include and exclude lists.
func (f *Filter) Keep(rel string) bool {
	rel = filepath.ToSlash(rel)
	if len(f.include) > 0 && !matchAny(f.include, rel) {
		return false
	}
	return !matchAny(f.exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
