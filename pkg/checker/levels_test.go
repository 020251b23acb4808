/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	assert.Equal(t, ModeCount, opts.Mode)
	assert.False(t, opts.Dedupe)
	assert.False(t, opts.CollectAll)
	assert.Equal(t, 1, opts.Concurrency)
	require.Len(t, opts.Levels, 3)
	assert.Equal(t, Sidecar, opts.Levels[1].Manifest)
	assert.Equal(t, Embedded, opts.Levels[2].Manifest)
	assert.True(t, opts.Levels[2].OptionalDir)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		contains string
	}{
		{"no levels", func(o *Options) { o.Levels = nil }, "at least one level"},
		{"no root manifest", func(o *Options) { o.RootManifest = "" }, "root manifest is required"},
		{"nested root manifest", func(o *Options) { o.RootManifest = "a/index.json" }, "must be a file name"},
		{"bad mode", func(o *Options) { o.Mode = "fuzzy" }, `unknown mode "fuzzy"`},
		{"zero concurrency", func(o *Options) { o.Concurrency = 0 }, "concurrency must be at least 1"},
		{"embedded root", func(o *Options) { o.Levels[0].Manifest = Embedded }, "root level must use a sidecar"},
		{"unnamed level", func(o *Options) { o.Levels[1].Name = "" }, "level 1 has no name"},
		{"bad strategy", func(o *Options) { o.Levels[2].Manifest = "inline" }, `unknown manifest strategy "inline"`},
		{"empty pattern", func(o *Options) { o.Levels[1].ChildPattern = "" }, "child pattern is required"},
		{"bad pattern", func(o *Options) { o.Levels[1].ChildPattern = "[*.md" }, "bad child pattern"},
		{"bad reserved", func(o *Options) { o.Levels[0].Reserved = []string{"{a"} }, "bad reserved pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			require.ErrorIs(t, err, ErrInvalidOptions)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRootReservedAlwaysHoldsRootManifest(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, []string{"index.json"}, opts.rootReserved())

	opts.RootManifest = "groups.yaml"
	assert.Equal(t, []string{"index.json", "groups.yaml"}, opts.rootReserved())
	assert.Equal(t, []string{"index.json"}, opts.Levels[0].Reserved, "level must not be mutated")
}
