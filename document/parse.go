package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// structuredExtensions are the file extensions parsed as documents.
// Everything else is treated as an opaque resource.
var structuredExtensions = map[string]bool{
	".yml":  true,
	".yaml": true,
	".json": true,
}

// IsStructured reports whether name has a YAML or JSON extension.
func IsStructured(name string) bool {
	return structuredExtensions[strings.ToLower(filepath.Ext(name))]
}

// Parse decodes a YAML or JSON document whose root must be a mapping.
// YAML is a superset of JSON, so a single decoder covers both
// extensions.
func Parse(path string, data []byte) (map[string]any, error) {
	if !IsStructured(path) {
		return nil, fmt.Errorf("unsupported document extension %q", filepath.Ext(path))
	}
	var content map[string]any
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if content == nil {
		return nil, fmt.Errorf("parse %s: document root is not a mapping", path)
	}
	return content, nil
}

// ParseValue decodes a YAML or JSON document with any root shape.
// Used for the graphql catalog, which may be a sequence.
func ParseValue(path string, data []byte) (any, error) {
	var content any
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return content, nil
}

// Checksum returns the hex-encoded sha256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
