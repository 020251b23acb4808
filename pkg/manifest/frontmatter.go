package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// Front matter formats, named after their fence.
const (
	FormatYAML = "yaml" // ---
	FormatTOML = "toml" // +++
)

// MaxFrontMatterBytes bounds how much of a content file is read while
// looking for the closing fence.
const MaxFrontMatterBytes = 1 << 20

// fenceAllowance covers both fence lines on top of MaxFrontMatterBytes.
const fenceAllowance = 64

// ExtractFrontMatter reads the leading metadata block from rd and returns its
// raw contents (without fences) and format. Reading stops at the closing
// fence, so a malformed or huge body never affects the result.
func ExtractFrontMatter(rd io.Reader) ([]byte, string, error) {
	lr := &io.LimitedReader{R: rd, N: MaxFrontMatterBytes + fenceAllowance}
	br := bufio.NewReader(lr)

	first, err := readLine(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	first = strings.TrimPrefix(first, "\ufeff")

	var fence, format string
	switch strings.TrimRight(first, " \t") {
	case "---":
		fence, format = "---", FormatYAML
	case "+++":
		fence, format = "+++", FormatTOML
	default:
		return nil, "", ErrNoFrontMatter
	}

	var block bytes.Buffer
	for {
		line, err := readLine(br)
		if strings.TrimRight(line, " \t") == fence {
			return block.Bytes(), format, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && lr.N <= 0 {
				return nil, "", ErrFrontMatterTooLarge
			}
			if errors.Is(err, io.EOF) {
				return nil, "", ErrUnterminatedFrontMatter
			}
			return nil, "", err
		}
		block.WriteString(line)
		block.WriteByte('\n')
		if block.Len() > MaxFrontMatterBytes {
			return nil, "", ErrFrontMatterTooLarge
		}
	}
}

// readLine returns the next line without its terminator. At end of input it
// returns the final partial line together with io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}
