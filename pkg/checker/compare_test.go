/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package checker

import (
	"reflect"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		declared   []string
		actual     []string
		mode       Mode
		dedupe     bool
		pass       bool
		missing    []string
		unexpected []string
		dups       []string
	}{
		{name: "equal sets", declared: []string{"b", "a"}, actual: []string{"a", "b"}, mode: ModeCount, pass: true},
		{name: "both empty", declared: nil, actual: nil, mode: ModeCount, pass: true},
		{name: "extra on disk", declared: []string{"a"}, actual: []string{"a", "b"}, mode: ModeCount, unexpected: []string{"b"}},
		{name: "missing on disk", declared: []string{"a", "b"}, actual: []string{"a"}, mode: ModeCount, missing: []string{"b"}},
		{name: "swap passes in count mode", declared: []string{"a", "b"}, actual: []string{"a", "c"}, mode: ModeCount, pass: true, missing: []string{"b"}, unexpected: []string{"c"}},
		{name: "swap fails in set mode", declared: []string{"a", "b"}, actual: []string{"a", "c"}, mode: ModeSet, missing: []string{"b"}, unexpected: []string{"c"}},
		{name: "duplicates inflate the count", declared: []string{"a", "a"}, actual: []string{"a"}, mode: ModeCount, dups: []string{"a"}},
		{name: "duplicates collapse with dedupe", declared: []string{"a", "a"}, actual: []string{"a"}, mode: ModeSet, dedupe: true, pass: true, dups: []string{"a"}},
		{name: "duplicate reported once", declared: []string{"a", "a", "a", "b"}, actual: []string{"a", "b"}, mode: ModeCount, dups: []string{"a"}},
		{name: "duplicates can hide a missing id", declared: []string{"a", "a"}, actual: []string{"a", "b"}, mode: ModeCount, pass: true, unexpected: []string{"b"}, dups: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Compare(tt.declared, tt.actual, tt.mode, tt.dedupe)
			if d.Pass != tt.pass {
				t.Errorf("Pass = %v, want %v", d.Pass, tt.pass)
			}
			if !reflect.DeepEqual(d.Missing, tt.missing) {
				t.Errorf("Missing = %v, want %v", d.Missing, tt.missing)
			}
			if !reflect.DeepEqual(d.Unexpected, tt.unexpected) {
				t.Errorf("Unexpected = %v, want %v", d.Unexpected, tt.unexpected)
			}
			if !reflect.DeepEqual(d.Duplicates, tt.dups) {
				t.Errorf("Duplicates = %v, want %v", d.Duplicates, tt.dups)
			}
		})
	}
}

func TestCompare_Counts(t *testing.T) {
	d := Compare([]string{"a", "a", "b"}, []string{"a", "b"}, ModeCount, false)
	if d.Declared != 3 || d.Actual != 2 {
		t.Errorf("counts = %d/%d, want 3/2", d.Declared, d.Actual)
	}

	d = Compare([]string{"a", "a", "b"}, []string{"a", "b"}, ModeCount, true)
	if d.Declared != 2 || !d.Pass {
		t.Errorf("deduped declared = %d pass = %v, want 2 and true", d.Declared, d.Pass)
	}
}

func TestSymmetricDifference(t *testing.T) {
	d := Diff{Missing: []string{"b"}, Unexpected: []string{"c", "d"}}
	if got := d.SymmetricDifference(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("SymmetricDifference() = %v", got)
	}
	if got := (Diff{}).SymmetricDifference(); len(got) != 0 {
		t.Errorf("empty diff SymmetricDifference() = %v", got)
	}
}
