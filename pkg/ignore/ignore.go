// Package ignore provides gitignore-style filtering of content entries using go-git
package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultFile is the ignore file looked up at the content root.
const DefaultFile = ".childcheckignore"

// Options selects which ignore layers are loaded.
type Options struct {
	// File is the ignore file relative to the content root. Empty means DefaultFile.
	File string
	// Gitignore also honours .gitignore files found under the content root.
	Gitignore bool
	// Extra patterns appended last (highest priority).
	Extra []string
}

// Matcher provides gitignore-based entry filtering
type Matcher struct {
	matcher  gitignore.Matcher
	patterns int
}

// NewMatcher creates a matcher with layered ignore sources:
// 1. .gitignore files under the content root (when enabled)
// 2. the content root ignore file (.childcheckignore)
// 3. extra patterns from configuration
func NewMatcher(fsys billy.Filesystem, opts Options) (*Matcher, error) {
	var allPatterns []gitignore.Pattern

	if opts.Gitignore {
		gitPatterns, err := gitignore.ReadPatterns(fsys, nil)
		if err != nil {
			return nil, err
		}
		allPatterns = append(allPatterns, gitPatterns...)
	}

	file := opts.File
	if file == "" {
		file = DefaultFile
	}
	filePatterns, err := readIgnoreFile(fsys, file)
	if err != nil {
		return nil, err
	}
	for _, p := range filePatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
	}

	for _, p := range opts.Extra {
		if p = strings.TrimSpace(p); p != "" {
			allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
		}
	}

	return &Matcher{
		matcher:  gitignore.NewMatcher(allPatterns),
		patterns: len(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from an ignore file; a missing file yields none.
func readIgnoreFile(fsys billy.Filesystem, name string) ([]string, error) {
	content, err := util.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, sc.Err()
}

// Len returns the number of loaded patterns.
func (m *Matcher) Len() int {
	return m.patterns
}

// Match reports whether relPath (slash-separated, relative to the content
// root) is ignored.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	parts := splitPath(relPath)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}

	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}

	return result
}
