/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/childcheck/pkg/manifest"
	"github.com/fulmenhq/childcheck/pkg/tree"
)

// ReadError indicates a directory expected to exist is missing or unreadable.
type ReadError = tree.ReadError

// ParseError indicates a manifest is missing, unreadable, malformed, or has
// no children field.
type ParseError = manifest.ParseError

// CountMismatchError is the mismatch record for one node whose declared
// children disagree with the entries on disk.
type CountMismatchError struct {
	// Node is the node path relative to the content root ("." for the root).
	Node string `json:"node"`
	// Level is the level name, e.g. "group".
	Level string `json:"level"`
	// Manifest is the manifest path relative to the content root.
	Manifest string `json:"manifest"`
	// Dir is the directory whose entries were counted.
	Dir  string `json:"dir"`
	Mode Mode   `json:"mode"`
	Diff
}

func (e *CountMismatchError) Error() string {
	var b strings.Builder
	if e.Declared != e.Actual {
		fmt.Fprintf(&b, "%s lists %d children but %s/ contains %d files", e.Manifest, e.Declared, e.Dir, e.Actual)
	} else {
		fmt.Fprintf(&b, "%s lists %d children and %s/ contains %d files but membership differs", e.Manifest, e.Declared, e.Dir, e.Actual)
	}
	if diff := e.SymmetricDifference(); len(diff) > 0 {
		fmt.Fprintf(&b, " (check: %s)", strings.Join(diff, ", "))
	}
	if len(e.Duplicates) > 0 {
		fmt.Fprintf(&b, " (declared more than once: %s)", strings.Join(e.Duplicates, ", "))
	}
	return b.String()
}

// MultiError carries every failure of a collect-all pass in walk order.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d problems found:", len(m.Errors))
	for _, err := range m.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// IsReadError checks if err is or wraps a ReadError
func IsReadError(err error) bool {
	var readErr *ReadError
	return errors.As(err, &readErr)
}

// IsParseError checks if err is or wraps a ParseError
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsMismatch checks if err is or wraps a CountMismatchError
func IsMismatch(err error) bool {
	var mismatch *CountMismatchError
	return errors.As(err, &mismatch)
}

// Mismatches returns every CountMismatchError inside err.
func Mismatches(err error) []*CountMismatchError {
	var out []*CountMismatchError
	walkErrors(err, func(e error) {
		if m, ok := e.(*CountMismatchError); ok {
			out = append(out, m)
		}
	})
	return out
}

func walkErrors(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walkErrors(e, fn)
		}
	case interface{ Unwrap() error }:
		walkErrors(u.Unwrap(), fn)
	}
}
