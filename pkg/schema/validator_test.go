package schema

import (
	"strings"
	"testing"

	"github.com/fulmenhq/childcheck/internal/assets"
)

func TestValidate_SidecarManifest(t *testing.T) {
	tests := []struct {
		name  string
		data  interface{}
		valid bool
	}{
		{"object form", map[string]interface{}{"children": []interface{}{"intro", "labels"}}, true},
		{"object with extra keys", map[string]interface{}{"title": "Forms", "children": []interface{}{}}, true},
		{"bare array", []interface{}{"forms", "media"}, true},
		{"empty bare array", []interface{}{}, true},
		{"missing children", map[string]interface{}{"title": "Forms"}, false},
		{"non-string id", map[string]interface{}{"children": []interface{}{"intro", 3}}, false},
		{"empty id", []interface{}{""}, false},
		{"children not a list", map[string]interface{}{"children": "intro"}, false},
		{"scalar document", "intro", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(tt.data, assets.SidecarManifestSchema)
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if res.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v: %s", res.Valid, tt.valid, res.Summary())
			}
			if !tt.valid && len(res.Errors) == 0 {
				t.Error("invalid result should carry errors")
			}
		})
	}
}

func TestValidate_EmbeddedManifest(t *testing.T) {
	res, err := Validate(map[string]interface{}{"title": "Intro", "children": []interface{}{"a"}}, assets.EmbeddedManifestSchema)
	if err != nil || !res.Valid {
		t.Fatalf("front matter with children should be valid: %v %+v", err, res)
	}

	res, err = Validate([]interface{}{"a"}, assets.EmbeddedManifestSchema)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("front matter must be a mapping")
	}

	res, err = Validate(map[string]interface{}{"title": "Intro"}, assets.EmbeddedManifestSchema)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("front matter without children should be invalid")
	}
	if !strings.Contains(res.Summary(), "children") {
		t.Errorf("summary should name the missing key: %s", res.Summary())
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	_, err := Validate(map[string]interface{}{}, "nope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Validate(unknown) error = %v, want 'not found'", err)
	}
}
