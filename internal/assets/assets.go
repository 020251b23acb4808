package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_templates
var templateFS embed.FS

func templatesFS() fs.FS {
	if sub, err := fs.Sub(templateFS, "embedded_templates"); err == nil {
		return sub
	}
	return templateFS
}

// GetTemplate returns an embedded template by path relative to embedded_templates.
func GetTemplate(relPath string) ([]byte, error) {
	return fs.ReadFile(templatesFS(), relPath)
}
