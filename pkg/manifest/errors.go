package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ParseError
var (
	// ErrNotFound indicates the manifest file does not exist
	ErrNotFound = errors.New("manifest file not found")

	// ErrUnsupportedFormat indicates a sidecar extension with no decoder
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrNoFrontMatter indicates a content file without a leading metadata block
	ErrNoFrontMatter = errors.New("no leading metadata block")

	// ErrUnterminatedFrontMatter indicates the metadata block never closes
	ErrUnterminatedFrontMatter = errors.New("leading metadata block is not terminated")

	// ErrFrontMatterTooLarge indicates the metadata block exceeds MaxFrontMatterBytes
	ErrFrontMatterTooLarge = errors.New("leading metadata block is too large")

	// ErrInvalidShape indicates the decoded document does not match the manifest schema
	ErrInvalidShape = errors.New("manifest does not match schema")
)

// ParseError indicates a manifest that is missing, unreadable, malformed,
// or lacks the children field.
type ParseError struct {
	// Path is the manifest path relative to the content root
	Path string
	// Form is the manifest representation that was being read
	Form Form
	// Detail is a human-readable explanation, e.g. schema messages
	Detail string
	// Err is the underlying error
	Err error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("cannot read %s manifest %s", e.Form, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError checks if an error is a manifest parse error
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
