// Package tree enumerates the child entries that actually exist one level
// below a content directory.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"golang.org/x/text/unicode/norm"
)

// Entry is one child discovered on disk.
type Entry struct {
	// Name is the file name as stored on disk, e.g. "intro.md".
	Name string `json:"name"`
	// ID is Name without its final extension, NFC normalized.
	ID string `json:"id"`
}

// Filter selects which entries of a directory count as children.
type Filter struct {
	// Pattern is a doublestar glob matched against the entry name ("*.md").
	// Empty matches every file.
	Pattern string
	// Reserved lists globs for names that are never children, such as a
	// manifest file living in the directory it describes.
	Reserved []string
}

// Matcher reports whether a slash-separated path relative to the content
// root is ignored. *ignore.Matcher satisfies it.
type Matcher interface {
	Match(relPath string, isDir bool) bool
}

// ReadError indicates a directory that was expected to exist is missing or
// could not be listed.
type ReadError struct {
	Dir string
	Err error
}

func (e *ReadError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("directory %s/ does not exist", e.Dir)
	}
	return fmt.Sprintf("cannot read directory %s/: %v", e.Dir, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Reader lists children of directories on a billy filesystem rooted at the
// content root.
type Reader struct {
	fs     billy.Filesystem
	ignore Matcher
}

// Option configures a Reader.
type Option func(*Reader)

// WithIgnore excludes entries matched by m.
func WithIgnore(m Matcher) Option {
	return func(r *Reader) { r.ignore = m }
}

// NewReader creates a Reader over fsys.
func NewReader(fsys billy.Filesystem, opts ...Option) *Reader {
	r := &Reader{fs: fsys}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the entries of dir (slash-separated, relative to the content
// root, "" for the root itself) that pass f, sorted by name. It does not
// recurse. Directories and dotfiles are never children.
func (r *Reader) List(dir string, f Filter) ([]Entry, error) {
	infos, err := r.fs.ReadDir(r.osPath(dir))
	if err != nil {
		return nil, &ReadError{Dir: displayDir(dir), Err: err}
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		isDir, err := r.isDir(dir, info)
		if err != nil {
			return nil, &ReadError{Dir: displayDir(dir), Err: err}
		}
		if isDir {
			continue
		}
		if f.Pattern != "" {
			if ok, _ := doublestar.Match(f.Pattern, name); !ok {
				continue
			}
		}
		if matchesAny(f.Reserved, name) {
			continue
		}
		if r.ignore != nil && r.ignore.Match(path.Join(dir, name), false) {
			continue
		}
		entries = append(entries, Entry{Name: name, ID: StripExt(name)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Exists reports whether dir exists and is a directory.
func (r *Reader) Exists(dir string) (bool, error) {
	info, err := r.fs.Stat(r.osPath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &ReadError{Dir: displayDir(dir), Err: err}
	}
	return info.IsDir(), nil
}

// isDir resolves symlinks so a link to a directory is not counted as a file.
func (r *Reader) isDir(dir string, info os.FileInfo) (bool, error) {
	if info.Mode()&os.ModeSymlink == 0 {
		return info.IsDir(), nil
	}
	target, err := r.fs.Stat(r.osPath(path.Join(dir, info.Name())))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// dangling link; treat as a plain entry like the glob host did
			return false, nil
		}
		return false, err
	}
	return target.IsDir(), nil
}

func (r *Reader) osPath(dir string) string {
	if dir == "" {
		return "."
	}
	return r.fs.Join(strings.Split(dir, "/")...)
}

// IDs returns the ids of entries in order.
func IDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// StripExt removes the final extension of name and normalizes the result,
// so "intro.md" becomes "intro" and "a.b.md" becomes "a.b".
func StripExt(name string) string {
	return NormalizeID(strings.TrimSuffix(name, path.Ext(name)))
}

// NormalizeID returns the NFC form of id. File systems such as APFS hand
// back decomposed names while authors type composed ones.
func NormalizeID(id string) string {
	return norm.NFC.String(id)
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
