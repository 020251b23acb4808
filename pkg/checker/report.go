/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package checker

import "time"

// LevelStat counts the nodes checked at one depth.
type LevelStat struct {
	Name   string `json:"name"`
	Nodes  int    `json:"nodes"`
	Failed int    `json:"failed"`
}

// Report summarizes a pass. It is returned alongside the error, so a failed
// or cancelled pass still says how far it got.
type Report struct {
	// Root is the content root as given by the caller. The checker leaves it
	// empty; hosts fill it in for display.
	Root         string        `json:"root,omitempty"`
	Mode         Mode          `json:"mode"`
	Levels       []LevelStat   `json:"levels"`
	NodesChecked int           `json:"nodes_checked"`
	Failures     []error       `json:"-"`
	// Aborted holds the context error when the pass was cancelled or timed
	// out before every node was checked.
	Aborted  error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Passed reports whether the pass ran to completion and no node failed.
func (r *Report) Passed() bool {
	return r != nil && r.Aborted == nil && len(r.Failures) == 0
}

// FailedNodes returns the number of nodes that failed.
func (r *Report) FailedNodes() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, l := range r.Levels {
		n += l.Failed
	}
	return n
}
