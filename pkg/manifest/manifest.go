package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/fulmenhq/childcheck/internal/assets"
	"github.com/fulmenhq/childcheck/pkg/schema"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Form is the representation a manifest is stored in.
type Form string

const (
	// FormSidecar is a standalone structured file beside the directory it describes.
	FormSidecar Form = "sidecar"
	// FormEmbedded is the leading metadata block of a content file.
	FormEmbedded Form = "embedded"
)

// Manifest is the declared child list of one node.
type Manifest struct {
	// Source is the manifest path relative to the content root.
	Source string `json:"source"`
	Form   Form   `json:"form"`
	// Children are the declared ids in manifest order, NFC normalized.
	// Duplicates are preserved.
	Children []string `json:"children"`
}

// Reader loads manifests from a billy filesystem rooted at the content root.
type Reader struct {
	fs billy.Filesystem
}

// NewReader creates a manifest reader over fsys.
func NewReader(fsys billy.Filesystem) *Reader {
	return &Reader{fs: fsys}
}

// ReadSidecar parses the structured file at p and returns its children.
// The decoder is chosen by extension: .json, .yaml/.yml or .toml.
func (r *Reader) ReadSidecar(p string) (*Manifest, error) {
	data, err := util.ReadFile(r.fs, r.osPath(p))
	if err != nil {
		return nil, readFailure(p, FormSidecar, err)
	}

	doc, err := DecodeSidecar(data, path.Ext(p))
	if err != nil {
		return nil, &ParseError{Path: p, Form: FormSidecar, Err: err}
	}

	return build(p, FormSidecar, doc, assets.SidecarManifestSchema)
}

// ReadEmbedded parses the leading metadata block of the content file at p
// and returns its children. The document body is never read.
func (r *Reader) ReadEmbedded(p string) (*Manifest, error) {
	f, err := r.fs.Open(r.osPath(p))
	if err != nil {
		return nil, readFailure(p, FormEmbedded, err)
	}
	defer func() { _ = f.Close() }()

	block, format, err := ExtractFrontMatter(f)
	if err != nil {
		return nil, &ParseError{Path: p, Form: FormEmbedded, Err: err}
	}

	doc, err := decodeFrontMatter(block, format)
	if err != nil {
		return nil, &ParseError{Path: p, Form: FormEmbedded, Err: err}
	}

	return build(p, FormEmbedded, doc, assets.EmbeddedManifestSchema)
}

// DecodeSidecar decodes a sidecar document into generic values.
func DecodeSidecar(data []byte, ext string) (interface{}, error) {
	var doc interface{}
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	case ".toml":
		var table map[string]interface{}
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
		doc = table
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return doc, nil
}

func decodeFrontMatter(block []byte, format string) (interface{}, error) {
	var doc interface{}
	switch format {
	case FormatTOML:
		var table map[string]interface{}
		if err := toml.Unmarshal(block, &table); err != nil {
			return nil, fmt.Errorf("invalid TOML front matter: %w", err)
		}
		doc = table
	default:
		if err := yaml.Unmarshal(block, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML front matter: %w", err)
		}
	}
	return doc, nil
}

// build checks the decoded document against the manifest schema and pulls
// out the children list.
func build(p string, form Form, doc interface{}, schemaName string) (*Manifest, error) {
	res, err := schema.Validate(doc, schemaName)
	if err != nil {
		return nil, &ParseError{Path: p, Form: form, Err: err}
	}
	if !res.Valid {
		return nil, &ParseError{Path: p, Form: form, Err: ErrInvalidShape, Detail: res.Summary()}
	}

	var raw []interface{}
	switch v := doc.(type) {
	case []interface{}:
		raw = v
	case map[string]interface{}:
		raw, _ = v["children"].([]interface{})
	}

	children := make([]string, 0, len(raw))
	for _, c := range raw {
		s, _ := c.(string)
		children = append(children, norm.NFC.String(s))
	}
	return &Manifest{Source: p, Form: form, Children: children}, nil
}

func readFailure(p string, form Form, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &ParseError{Path: p, Form: form, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}
	return &ParseError{Path: p, Form: form, Err: err}
}

func (r *Reader) osPath(p string) string {
	return r.fs.Join(strings.Split(p, "/")...)
}
