/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Strategy says where a node's declared children are stored.
type Strategy string

const (
	// Sidecar manifests are standalone JSON, YAML or TOML files.
	Sidecar Strategy = "sidecar"
	// Embedded manifests live in the front matter of a content file.
	Embedded Strategy = "embedded"
)

// Mode selects the pass condition for a node.
type Mode string

const (
	// ModeCount passes when declared and actual counts agree. Two lists of
	// the same length with different members pass.
	ModeCount Mode = "count"
	// ModeSet passes only when declared and actual ids are the same set.
	ModeSet Mode = "set"
)

// Level describes one depth of the content tree.
//
// A node at this level reads its own manifest with Manifest and lists its
// children in the directory named after it, keeping entries that match
// ChildPattern. Those children become the nodes of the next level; their
// files are the next level's manifests.
type Level struct {
	Name         string   `mapstructure:"name" json:"name"`
	Manifest     Strategy `mapstructure:"manifest" json:"manifest"`
	ChildPattern string   `mapstructure:"child_pattern" json:"child_pattern"`
	Reserved     []string `mapstructure:"reserved" json:"reserved,omitempty"`
	// OptionalDir treats a missing child directory as empty instead of
	// failing with a ReadError.
	OptionalDir bool `mapstructure:"optional_dir" json:"optional_dir,omitempty"`
}

// DefaultRootManifest is the root manifest of the default layout.
const DefaultRootManifest = "index.json"

// DefaultLevels is the groups → guidelines → child guidelines layout:
//
//	index.json         root manifest (bare list of group ids)
//	<group>.json       group sidecar {"children": [...]}
//	<group>/<id>.md    guideline with front matter children
//	<group>/<id>/*.md  child guidelines (directory optional)
func DefaultLevels() []Level {
	return []Level{
		{Name: "root", Manifest: Sidecar, ChildPattern: "*.json", Reserved: []string{DefaultRootManifest}},
		{Name: "group", Manifest: Sidecar, ChildPattern: "*.md"},
		{Name: "guideline", Manifest: Embedded, ChildPattern: "*.md", OptionalDir: true},
	}
}

// ErrInvalidOptions is wrapped by every Options.Validate failure.
var ErrInvalidOptions = errors.New("invalid checker options")

// Options configures a Checker.
type Options struct {
	Levels       []Level
	RootManifest string
	Mode         Mode
	// Dedupe collapses repeated declared ids before comparing.
	Dedupe bool
	// CollectAll keeps checking after a failure and reports every problem.
	CollectAll bool
	// Concurrency bounds how many siblings are checked at once. 1 is
	// sequential. A fail-fast pass reports the same failure at any value:
	// the first failing sibling in enumeration order.
	Concurrency int
}

// DefaultOptions returns the sequential, fail-fast, count-mode configuration.
func DefaultOptions() Options {
	return Options{
		Levels:       DefaultLevels(),
		RootManifest: DefaultRootManifest,
		Mode:         ModeCount,
		Concurrency:  1,
	}
}

// Validate reports the first problem with o.
func (o Options) Validate() error {
	if len(o.Levels) == 0 {
		return fmt.Errorf("%w: at least one level is required", ErrInvalidOptions)
	}
	if o.RootManifest == "" {
		return fmt.Errorf("%w: root manifest is required", ErrInvalidOptions)
	}
	if strings.Contains(o.RootManifest, "/") {
		return fmt.Errorf("%w: root manifest %q must be a file name in the content root", ErrInvalidOptions, o.RootManifest)
	}
	switch o.Mode {
	case ModeCount, ModeSet:
	default:
		return fmt.Errorf("%w: unknown mode %q (want count or set)", ErrInvalidOptions, o.Mode)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidOptions, o.Concurrency)
	}
	if o.Levels[0].Manifest != Sidecar {
		return fmt.Errorf("%w: the root level must use a sidecar manifest", ErrInvalidOptions)
	}
	for i, l := range o.Levels {
		if l.Name == "" {
			return fmt.Errorf("%w: level %d has no name", ErrInvalidOptions, i)
		}
		switch l.Manifest {
		case Sidecar, Embedded:
		default:
			return fmt.Errorf("%w: level %s: unknown manifest strategy %q", ErrInvalidOptions, l.Name, l.Manifest)
		}
		if l.ChildPattern == "" {
			return fmt.Errorf("%w: level %s: child pattern is required", ErrInvalidOptions, l.Name)
		}
		if !doublestar.ValidatePattern(l.ChildPattern) {
			return fmt.Errorf("%w: level %s: bad child pattern %q", ErrInvalidOptions, l.Name, l.ChildPattern)
		}
		for _, r := range l.Reserved {
			if !doublestar.ValidatePattern(r) {
				return fmt.Errorf("%w: level %s: bad reserved pattern %q", ErrInvalidOptions, l.Name, r)
			}
		}
	}
	return nil
}

// rootReserved returns the reserved names of the root level with the root
// manifest always included, so it can never count as a child of itself.
func (o Options) rootReserved() []string {
	reserved := o.Levels[0].Reserved
	for _, r := range reserved {
		if r == o.RootManifest {
			return reserved
		}
	}
	return append(append([]string(nil), reserved...), o.RootManifest)
}
