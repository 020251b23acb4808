// Package report renders checker results for people and tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/childcheck/internal/assets"
	"github.com/fulmenhq/childcheck/pkg/ascii"
	"github.com/fulmenhq/childcheck/pkg/checker"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format selects the output representation.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name; "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, markdown or json)", s)
}

// Failure is the display form of one failed node.
type Failure struct {
	Node       string   `json:"node"`
	Level      string   `json:"level,omitempty"`
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
	Declared   *int     `json:"declared,omitempty"`
	Actual     *int     `json:"actual,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// Failure kinds.
const (
	KindMismatch = "mismatch"
	KindRead     = "read"
	KindParse    = "parse"
	KindError    = "error"
)

// Describe converts a checker failure into its display form.
func Describe(err error) Failure {
	var (
		mismatch *checker.CountMismatchError
		readErr  *checker.ReadError
		parseErr *checker.ParseError
	)
	switch {
	case errors.As(err, &mismatch):
		return Failure{
			Node:       mismatch.Node,
			Level:      mismatch.Level,
			Kind:       KindMismatch,
			Message:    err.Error(),
			Declared:   &mismatch.Declared,
			Actual:     &mismatch.Actual,
			Missing:    mismatch.Missing,
			Unexpected: mismatch.Unexpected,
			Duplicates: mismatch.Duplicates,
		}
	case errors.As(err, &readErr):
		return Failure{Node: readErr.Dir, Kind: KindRead, Message: err.Error()}
	case errors.As(err, &parseErr):
		return Failure{Node: parseErr.Path, Kind: KindParse, Message: err.Error()}
	}
	return Failure{Kind: KindError, Message: err.Error()}
}

// Document is the JSON shape of a report.
type Document struct {
	Status       string              `json:"status"`
	Root         string              `json:"root,omitempty"`
	Mode         checker.Mode        `json:"mode"`
	NodesChecked int                 `json:"nodes_checked"`
	Levels       []checker.LevelStat `json:"levels"`
	DurationMS   float64             `json:"duration_ms"`
	Aborted      string              `json:"aborted,omitempty"`
	Failures     []Failure           `json:"failures"`
}

// NewDocument builds the serializable view of rep.
func NewDocument(rep *checker.Report) Document {
	doc := Document{
		Status:       status(rep),
		Root:         rep.Root,
		Mode:         rep.Mode,
		NodesChecked: rep.NodesChecked,
		Levels:       rep.Levels,
		DurationMS:   float64(rep.Duration.Microseconds()) / 1000,
		Aborted:      abortReason(rep),
		Failures:     make([]Failure, 0, len(rep.Failures)),
	}
	for _, err := range rep.Failures {
		doc.Failures = append(doc.Failures, Describe(err))
	}
	return doc
}

// Render writes rep to w in the given format.
func Render(w io.Writer, rep *checker.Report, format Format) error {
	if rep == nil {
		return errors.New("no report to render")
	}
	switch format {
	case FormatJSON:
		return renderJSON(w, rep)
	case FormatMarkdown:
		return renderMarkdown(w, rep)
	case FormatText, "":
		return renderText(w, rep)
	}
	return fmt.Errorf("unknown format %q", format)
}

func renderJSON(w io.Writer, rep *checker.Report) error {
	data, err := json.MarshalIndent(NewDocument(rep), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// maxBoxWidth keeps the summary box inside an 80 column terminal.
const maxBoxWidth = 76

func renderText(w io.Writer, rep *checker.Report) error {
	lines := []string{
		"childcheck: " + status(rep),
		"root: " + displayRoot(rep.Root),
		"mode: " + string(rep.Mode),
		fmt.Sprintf("nodes: %d%s", rep.NodesChecked, levelBreakdown(rep.Levels)),
		"duration: " + formatDuration(rep.Duration),
	}
	if rep.Aborted != nil {
		lines = append(lines, "aborted: "+abortReason(rep))
	}
	for i, l := range lines {
		lines[i] = ascii.TruncateForBox(l, maxBoxWidth)
	}

	var b strings.Builder
	b.WriteString(ascii.Box(lines))
	for _, err := range rep.Failures {
		f := Describe(err)
		fmt.Fprintf(&b, "  ✗ [%s] %s\n", f.Kind, f.Message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var markdownTemplate = sync.OnceValues(func() (*raymond.Template, error) {
	src, err := assets.GetTemplate("report/report.md.hbs")
	if err != nil {
		return nil, fmt.Errorf("failed to load report template: %w", err)
	}
	return raymond.Parse(string(src))
})

func renderMarkdown(w io.Writer, rep *checker.Report) error {
	tpl, err := markdownTemplate()
	if err != nil {
		return err
	}

	title := cases.Title(language.English)
	levels := make([]map[string]interface{}, 0, len(rep.Levels))
	for _, l := range rep.Levels {
		levels = append(levels, map[string]interface{}{
			"title":  title.String(l.Name),
			"count":  l.Nodes,
			"failed": l.Failed,
		})
	}
	failures := make([]map[string]interface{}, 0, len(rep.Failures))
	for _, err := range rep.Failures {
		f := Describe(err)
		node := f.Node
		if node == "" {
			node = "-"
		}
		failures = append(failures, map[string]interface{}{
			"node":       node,
			"kind":       f.Kind,
			"message":    f.Message,
			"missing":    strings.Join(f.Missing, ", "),
			"unexpected": strings.Join(f.Unexpected, ", "),
			"duplicates": strings.Join(f.Duplicates, ", "),
		})
	}

	out, err := tpl.Exec(map[string]interface{}{
		"status":   status(rep),
		"root":     displayRoot(rep.Root),
		"mode":     string(rep.Mode),
		"nodes":    rep.NodesChecked,
		"duration": formatDuration(rep.Duration),
		"aborted":  abortReason(rep),
		"levels":   levels,
		"failures": failures,
	})
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Report statuses.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusAborted = "ABORTED"
)

func status(rep *checker.Report) string {
	switch {
	case rep.Aborted != nil:
		return StatusAborted
	case rep.Passed():
		return StatusPass
	}
	return StatusFail
}

func abortReason(rep *checker.Report) string {
	if rep.Aborted == nil {
		return ""
	}
	return rep.Aborted.Error()
}

func displayRoot(root string) string {
	if root == "" {
		return "."
	}
	return root
}

func levelBreakdown(levels []checker.LevelStat) string {
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		if l.Nodes == 0 {
			continue
		}
		part := fmt.Sprintf("%s %d", l.Name, l.Nodes)
		if l.Failed > 0 {
			part += fmt.Sprintf(", %d failed", l.Failed)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
