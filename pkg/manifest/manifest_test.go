package manifest

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fsys := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func TestReadSidecar_Formats(t *testing.T) {
	fsys := newFS(t, map[string]string{
		"index.json":  `["forms", "media"]`,
		"forms.json":  `{"title": "Forms", "children": ["intro", "labels"]}`,
		"media.yaml":  "title: Media\nchildren:\n  - images\n  - video\n",
		"tables.yml":  "children: []\n",
		"layout.toml": "title = \"Layout\"\nchildren = [\"grid\", \"spacing\"]\n",
	})
	r := NewReader(fsys)

	tests := []struct {
		path string
		want []string
	}{
		{"index.json", []string{"forms", "media"}},
		{"forms.json", []string{"intro", "labels"}},
		{"media.yaml", []string{"images", "video"}},
		{"tables.yml", []string{}},
		{"layout.toml", []string{"grid", "spacing"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := r.ReadSidecar(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Children)
			assert.Equal(t, FormSidecar, m.Form)
			assert.Equal(t, tt.path, m.Source)
		})
	}
}

func TestReadSidecar_KeepsOrderAndDuplicates(t *testing.T) {
	fsys := newFS(t, map[string]string{"g.json": `{"children": ["b", "a", "b"]}`})

	m, err := NewReader(fsys).ReadSidecar("g.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "b"}, m.Children)
}

func TestReadSidecar_Errors(t *testing.T) {
	fsys := newFS(t, map[string]string{
		"broken.json":   `{"children": [`,
		"nokids.json":   `{"title": "x"}`,
		"numbers.json":  `{"children": [1, 2]}`,
		"manifest.ini":  `children=a`,
		"empty.yaml":    ``,
		"broken.toml":   `children = [`,
		"sub/deep.json": `{"children": "a"}`,
	})
	r := NewReader(fsys)

	tests := []struct {
		path     string
		sentinel error
		contains string
	}{
		{"missing.json", ErrNotFound, "missing.json"},
		{"broken.json", nil, "invalid JSON"},
		{"nokids.json", ErrInvalidShape, "nokids.json"},
		{"numbers.json", ErrInvalidShape, "does not match schema"},
		{"manifest.ini", ErrUnsupportedFormat, ".ini"},
		{"empty.yaml", ErrInvalidShape, "empty.yaml"},
		{"broken.toml", nil, "invalid TOML"},
		{"sub/deep.json", ErrInvalidShape, "sub/deep.json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := r.ReadSidecar(tt.path)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, IsParseError(err), "expected ParseError, got %T", err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestReadSidecar_MissingWrapsNotExist(t *testing.T) {
	_, err := NewReader(memfs.New()).ReadSidecar("index.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadEmbedded(t *testing.T) {
	fsys := newFS(t, map[string]string{
		"forms/intro.md":   "---\ntitle: Intro\nchildren:\n  - overview\n  - usage\n---\n# Intro\n",
		"forms/empty.md":   "---\nchildren: []\n---\nbody",
		"forms/toml.md":    "+++\ntitle = \"T\"\nchildren = [\"a\"]\n+++\nbody\n",
		"forms/crlf.md":    "---\r\nchildren:\r\n  - a\r\n---\r\nbody\r\n",
		"forms/bodyerr.md": "---\nchildren: [a]\n---\n{{< broken : : [\n---\n: nope",
	})
	r := NewReader(fsys)

	tests := []struct {
		path string
		want []string
	}{
		{"forms/intro.md", []string{"overview", "usage"}},
		{"forms/empty.md", []string{}},
		{"forms/toml.md", []string{"a"}},
		{"forms/crlf.md", []string{"a"}},
		{"forms/bodyerr.md", []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := r.ReadEmbedded(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Children)
			assert.Equal(t, FormEmbedded, m.Form)
		})
	}
}

func TestReadEmbedded_Errors(t *testing.T) {
	fsys := newFS(t, map[string]string{
		"nofm.md":      "# Just a body\n",
		"open.md":      "---\nchildren: [a]\n",
		"bad.md":       "---\nchildren: [a\n---\n",
		"nokids.md":    "---\ntitle: x\n---\n",
		"null.md":      "---\nchildren:\n---\n",
		"emptyfile.md": "",
	})
	r := NewReader(fsys)

	tests := []struct {
		path     string
		sentinel error
	}{
		{"nofm.md", ErrNoFrontMatter},
		{"open.md", ErrUnterminatedFrontMatter},
		{"bad.md", nil},
		{"nokids.md", ErrInvalidShape},
		{"null.md", ErrInvalidShape},
		{"emptyfile.md", ErrNoFrontMatter},
		{"missing.md", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := r.ReadEmbedded(tt.path)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Contains(t, err.Error(), "embedded manifest "+tt.path)
		})
	}
}

// headerOnly serves the header in one Read and fails any further Read.
type headerOnly struct {
	header string
	served bool
}

func (h *headerOnly) Read(p []byte) (int, error) {
	if h.served {
		return 0, errors.New("body must not be read")
	}
	h.served = true
	return copy(p, h.header), nil
}

func TestExtractFrontMatter_StopsAtClosingFence(t *testing.T) {
	block, format, err := ExtractFrontMatter(&headerOnly{header: "---\nchildren: [a]\n---\n"})
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "children: [a]\n", string(block))
}

func TestExtractFrontMatter_BOMAndTrailingSpace(t *testing.T) {
	block, format, err := ExtractFrontMatter(strings.NewReader("\ufeff+++  \nchildren = []\n+++"))
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, "children = []\n", string(block))
}

func TestExtractFrontMatter_TooLarge(t *testing.T) {
	big := "---\n" + strings.Repeat("x: y\n", MaxFrontMatterBytes/4)
	_, _, err := ExtractFrontMatter(strings.NewReader(big))
	assert.ErrorIs(t, err, ErrFrontMatterTooLarge)
}

// endless serves an unbounded stream of one byte and counts what was read.
type endless struct {
	b    byte
	read int
}

func (e *endless) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = e.b
	}
	e.read += len(p)
	return len(p), nil
}

func TestExtractFrontMatter_BoundedRead(t *testing.T) {
	limit := MaxFrontMatterBytes + fenceAllowance

	src := &endless{b: 'x'}
	_, _, err := ExtractFrontMatter(src)
	assert.ErrorIs(t, err, ErrNoFrontMatter)
	assert.LessOrEqual(t, src.read, limit, "an unterminated first line must not be read in full")

	block := io.MultiReader(strings.NewReader("---\n"), &endless{b: 'y'})
	_, _, err = ExtractFrontMatter(block)
	assert.ErrorIs(t, err, ErrFrontMatterTooLarge)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestExtractFrontMatter_ReadFailure(t *testing.T) {
	_, _, err := ExtractFrontMatter(failingReader{})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
