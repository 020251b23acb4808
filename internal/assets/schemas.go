package assets

import (
	"embed"
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed embedded_schemas
var schemaFS embed.FS

// Schema names understood by the manifest reader and the config loader.
const (
	SidecarManifestSchema  = "sidecar-manifest-v1.0.0"
	EmbeddedManifestSchema = "embedded-manifest-v1.0.0"
	ConfigSchema           = "childcheck-config-v1.0.0"
)

// SchemaInfo holds schema metadata.
type SchemaInfo struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Draft string `json:"draft"`
}

var knownSchemas = map[string]string{
	SidecarManifestSchema:  "embedded_schemas/manifest/v1.0.0/sidecar-manifest.yaml",
	EmbeddedManifestSchema: "embedded_schemas/manifest/v1.0.0/embedded-manifest.yaml",
	ConfigSchema:           "embedded_schemas/config/v1.0.0/childcheck-config.yaml",
}

// GetSchema returns the embedded schema bytes by path (e.g., "embedded_schemas/manifest/v1.0.0/sidecar-manifest.yaml").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := schemaFS.ReadFile(relPath)
	return data, err == nil
}

// GetSchemaNames returns the available schemas sorted by name.
func GetSchemaNames() []SchemaInfo {
	var infos []SchemaInfo
	for name, path := range knownSchemas {
		if _, ok := GetSchema(path); ok {
			infos = append(infos, SchemaInfo{Name: name, Path: path, Draft: detectDraft(path)})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// detectDraft heuristically detects draft from schema bytes via $schema key.
func detectDraft(path string) string {
	bytes, ok := GetSchema(path)
	if !ok {
		return "Unknown"
	}
	var doc interface{}
	if err := yaml.Unmarshal(bytes, &doc); err != nil {
		if err := json.Unmarshal(bytes, &doc); err != nil {
			return "Unknown"
		}
	}
	if m, ok := doc.(map[string]interface{}); ok {
		if v, ok := m["$schema"].(string); ok {
			if strings.Contains(v, "draft-07") {
				return "Draft-07"
			}
			if strings.Contains(v, "2020-12") {
				return "Draft-2020-12"
			}
		}
	}
	return "Unknown"
}
