/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package checker

// Diff is the outcome of comparing one node's declared and actual children.
type Diff struct {
	Declared int `json:"declared"`
	Actual   int `json:"actual"`
	// Missing are declared ids with no entry on disk, in manifest order.
	Missing []string `json:"missing,omitempty"`
	// Unexpected are entries on disk that the manifest does not declare, in
	// enumeration order.
	Unexpected []string `json:"unexpected,omitempty"`
	// Duplicates are ids declared more than once, in manifest order.
	Duplicates []string `json:"duplicates,omitempty"`
	Pass       bool     `json:"pass"`
}

// SymmetricDifference returns the ids present on exactly one side.
func (d Diff) SymmetricDifference() []string {
	out := make([]string, 0, len(d.Missing)+len(d.Unexpected))
	out = append(out, d.Missing...)
	return append(out, d.Unexpected...)
}

// Compare evaluates declared against actual under mode. With dedupe the
// declared count ignores repeated ids; otherwise every repeat counts.
func Compare(declared, actual []string, mode Mode, dedupe bool) Diff {
	seen := make(map[string]int, len(declared))
	var unique []string
	var dups []string
	for _, id := range declared {
		seen[id]++
		switch seen[id] {
		case 1:
			unique = append(unique, id)
		case 2:
			dups = append(dups, id)
		}
	}

	onDisk := make(map[string]bool, len(actual))
	for _, id := range actual {
		onDisk[id] = true
	}

	d := Diff{
		Declared:   len(declared),
		Actual:     len(actual),
		Duplicates: dups,
	}
	if dedupe {
		d.Declared = len(unique)
	}
	for _, id := range unique {
		if !onDisk[id] {
			d.Missing = append(d.Missing, id)
		}
	}
	for _, id := range actual {
		if seen[id] == 0 {
			d.Unexpected = append(d.Unexpected, id)
		}
	}

	d.Pass = d.Declared == d.Actual
	if mode == ModeSet {
		d.Pass = d.Pass && len(d.Missing) == 0 && len(d.Unexpected) == 0
	}
	return d
}
