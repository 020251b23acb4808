/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
// Package checker verifies that every manifest in a content tree declares
// exactly the children present on disk.
//
// The pass walks the tree one level at a time: the root manifest against the
// root directory, then every group, then every guideline, for as many levels
// as are configured. Each node is checked independently. By default the pass
// stops at the first failing node and never touches the nodes after it.
package checker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/childcheck/pkg/logger"
	"github.com/fulmenhq/childcheck/pkg/manifest"
	"github.com/fulmenhq/childcheck/pkg/tree"
	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"
)

// Node is one entity of the content tree taken from a single pass.
type Node struct {
	// ID is the file stem, NFC normalized. Empty for the root.
	ID string `json:"id"`
	// Path is the node's slash path relative to the content root, without
	// extension. Empty for the root.
	Path string `json:"path"`
	// Level is the index into Options.Levels.
	Level int `json:"level"`
	// Manifest is the file holding the node's declared children.
	Manifest string `json:"manifest"`
	// Declared and Actual are filled in once the node is checked.
	Declared []string `json:"declared,omitempty"`
	Actual   []string `json:"actual,omitempty"`
}

// Dir returns the directory holding the node's children.
func (n Node) Dir() string {
	return n.Path
}

func (n Node) display() string {
	if n.Path == "" {
		return "."
	}
	return n.Path
}

// Checker validates a content tree on a billy filesystem rooted at the
// content root.
type Checker struct {
	opts      Options
	tree      *tree.Reader
	manifests *manifest.Reader
}

// New creates a Checker. ignore may be nil.
func New(fsys billy.Filesystem, opts Options, ignore tree.Matcher) (*Checker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var treeOpts []tree.Option
	if ignore != nil {
		treeOpts = append(treeOpts, tree.WithIgnore(ignore))
	}
	return &Checker{
		opts:      opts,
		tree:      tree.NewReader(fsys, treeOpts...),
		manifests: manifest.NewReader(fsys),
	}, nil
}

// Root returns the root node of the tree.
func (c *Checker) Root() Node {
	return Node{Level: 0, Manifest: c.opts.RootManifest}
}

// Validate runs a full pass. The error is nil when every node passes;
// otherwise it is a *ReadError, *ParseError or *CountMismatchError, or a
// *MultiError when CollectAll is set. Cancelling ctx abandons the pass and
// returns the context error; the report then records it in Aborted.
func (c *Checker) Validate(ctx context.Context) (*Report, error) {
	rec := newRecorder(c.opts)
	start := time.Now()

	err := c.run(ctx, rec)

	report := rec.report(time.Since(start))
	if err != nil {
		if isContextErr(err) {
			report.Aborted = err
		}
		return report, err
	}
	if len(rec.failures) > 0 {
		if len(rec.failures) == 1 {
			return report, rec.failures[0]
		}
		return report, &MultiError{Errors: rec.failures}
	}
	return report, nil
}

// run checks the tree level by level. Every node of a level is checked
// before any node of the next one.
func (c *Checker) run(ctx context.Context, rec *recorder) error {
	frontier := []Node{c.Root()}
	for depth := 0; depth < len(c.opts.Levels) && len(frontier) > 0; depth++ {
		level := c.opts.Levels[depth]
		logger.Debug("checking level", logger.String("level", level.Name), logger.Int("nodes", len(frontier)))

		next, err := c.checkLevel(ctx, frontier, rec)
		if err != nil {
			return err
		}
		logger.Info("level checked",
			logger.String("level", level.Name),
			logger.Int("nodes", len(frontier)),
			logger.Int("failed", rec.failedAt(depth)))

		if depth+1 < len(c.opts.Levels) {
			frontier = next
		}
	}
	return nil
}

type nodeResult struct {
	children []Node
	err      error
}

// checkLevel checks every node of one level and returns the next level's
// nodes in enumeration order.
func (c *Checker) checkLevel(ctx context.Context, nodes []Node, rec *recorder) ([]Node, error) {
	results := make([]nodeResult, len(nodes))

	if c.opts.Concurrency <= 1 || len(nodes) == 1 {
		for i, n := range nodes {
			children, err := c.CheckNode(ctx, n)
			rec.visit(n, err)
			results[i] = nodeResult{children: children, err: err}
			if err != nil && (!c.opts.CollectAll || isContextErr(err)) {
				return nil, c.abort(rec, err)
			}
		}
	} else {
		failed, err := c.checkConcurrently(ctx, nodes, results, rec)
		if err != nil {
			return nil, err
		}
		if failed >= 0 {
			return nil, c.abort(rec, results[failed].err)
		}
	}

	var next []Node
	for _, r := range results {
		if r.err != nil {
			rec.fail(r.err)
		}
		next = append(next, r.children...)
	}
	return next, nil
}

// checkConcurrently checks nodes with at most Concurrency in flight. In
// fail-fast mode it returns the index of the first failing node in
// enumeration order, or -1; nodes after a known failure are not started.
// Nodes before it always run, so the reported failure is the one a
// sequential pass would stop at.
func (c *Checker) checkConcurrently(ctx context.Context, nodes []Node, results []nodeResult, rec *recorder) (int, error) {
	var mu sync.Mutex
	failed := len(nodes)
	skip := func(i int) bool {
		mu.Lock()
		defer mu.Unlock()
		return i > failed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, n := range nodes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if skip(i) {
				return nil
			}
			children, err := c.CheckNode(gctx, n)
			if isContextErr(err) {
				return err
			}
			rec.visit(n, err)
			results[i] = nodeResult{children: children, err: err}
			if err != nil && !c.opts.CollectAll {
				mu.Lock()
				failed = min(failed, i)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return -1, err
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if failed < len(nodes) {
		return failed, nil
	}
	return -1, nil
}

// CheckNode checks a single node: it loads the declared children, lists the
// actual ones, and compares them. It returns the node's children as nodes of
// the next level. On a mismatch the children are still returned so a
// collect-all pass can descend; on a read or parse failure they are nil.
func (c *Checker) CheckNode(ctx context.Context, n Node) ([]Node, error) {
	level := c.opts.Levels[n.Level]

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := c.readManifest(n, level)
	if err != nil {
		return nil, err
	}
	n.Declared = m.Children

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := c.listChildren(n, level)
	if err != nil {
		return nil, err
	}
	n.Actual = tree.IDs(entries)

	children := make([]Node, len(entries))
	for i, e := range entries {
		children[i] = Node{
			ID:       e.ID,
			Path:     path.Join(n.Path, strings.TrimSuffix(e.Name, path.Ext(e.Name))),
			Level:    n.Level + 1,
			Manifest: path.Join(n.Path, e.Name),
		}
	}

	diff := Compare(n.Declared, n.Actual, c.opts.Mode, c.opts.Dedupe)
	logger.Debug("node checked",
		logger.String("node", n.display()),
		logger.String("level", level.Name),
		logger.Int("declared", diff.Declared),
		logger.Int("actual", diff.Actual),
		logger.Bool("pass", diff.Pass))

	if !diff.Pass {
		return children, &CountMismatchError{
			Node:     n.display(),
			Level:    level.Name,
			Manifest: n.Manifest,
			Dir:      n.display(),
			Mode:     c.opts.Mode,
			Diff:     diff,
		}
	}
	return children, nil
}

func (c *Checker) readManifest(n Node, level Level) (*manifest.Manifest, error) {
	if level.Manifest == Embedded {
		return c.manifests.ReadEmbedded(n.Manifest)
	}
	return c.manifests.ReadSidecar(n.Manifest)
}

func (c *Checker) listChildren(n Node, level Level) ([]tree.Entry, error) {
	filter := tree.Filter{Pattern: level.ChildPattern, Reserved: level.Reserved}
	if n.Level == 0 {
		filter.Reserved = c.opts.rootReserved()
	}
	if level.OptionalDir {
		ok, err := c.tree.Exists(n.Dir())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}
	return c.tree.List(n.Dir(), filter)
}

// abort records a fail-fast failure so the report reflects it.
func (c *Checker) abort(rec *recorder, err error) error {
	if !isContextErr(err) {
		rec.fail(err)
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// recorder accumulates per-level statistics and failures. Safe for
// concurrent use.
type recorder struct {
	mu       sync.Mutex
	mode     Mode
	levels   []LevelStat
	failures []error
}

func newRecorder(opts Options) *recorder {
	r := &recorder{mode: opts.Mode, levels: make([]LevelStat, len(opts.Levels))}
	for i, l := range opts.Levels {
		r.levels[i].Name = l.Name
	}
	return r
}

func (r *recorder) visit(n Node, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil && isContextErr(err) {
		return
	}
	r.levels[n.Level].Nodes++
	if err != nil {
		r.levels[n.Level].Failed++
	}
}

func (r *recorder) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger.Error("node failed", logger.Err(err))
	r.failures = append(r.failures, err)
}

func (r *recorder) failedAt(depth int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels[depth].Failed
}

func (r *recorder) report(d time.Duration) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := &Report{
		Mode:     r.mode,
		Levels:   append([]LevelStat(nil), r.levels...),
		Failures: append([]error(nil), r.failures...),
		Duration: d,
	}
	for _, l := range r.levels {
		rep.NodesChecked += l.Nodes
	}
	return rep
}

// Validate is a convenience wrapper that builds a Checker and runs one pass.
func Validate(ctx context.Context, fsys billy.Filesystem, opts Options) (*Report, error) {
	c, err := New(fsys, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("create checker: %w", err)
	}
	return c.Validate(ctx)
}
