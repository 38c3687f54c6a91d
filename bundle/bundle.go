// Package bundle defines the aggregated four-section artifact served
// downstream and the assembly logic that produces it from ingested
// documents. The wire format is a single JSON document with exactly
// the keys data, resources, schemas and graphql.
package bundle

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Resource is an opaque file carried in the bundle. Resources are
// never schema-validated and never subject to reference resolution.
type Resource struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Sha256Sum string `json:"sha256sum"`
}

// Bundle is the terminal artifact. Keys within each section are the
// documents' logical paths; content is embedded verbatim,
// post-resolution if resolution was requested at assembly time.
type Bundle struct {
	Data      map[string]map[string]any `json:"data"`
	Resources map[string]Resource       `json:"resources"`
	Schemas   map[string]map[string]any `json:"schemas"`
	Graphql   any                       `json:"graphql"`

	// dataOrder preserves ingestion order for bundles assembled in
	// this process; bundles loaded from disk fall back to sorted
	// paths, since JSON objects carry no order.
	dataOrder   []string
	schemaOrder []string
}

// DataPaths returns the data document paths in deterministic order.
func (b *Bundle) DataPaths() []string {
	if len(b.dataOrder) == len(b.Data) {
		out := make([]string, len(b.dataOrder))
		copy(out, b.dataOrder)
		return out
	}
	return sortedPaths(b.Data)
}

// SchemaPaths returns the schema paths in deterministic order.
func (b *Bundle) SchemaPaths() []string {
	if len(b.schemaOrder) == len(b.Schemas) {
		out := make([]string, len(b.schemaOrder))
		copy(out, b.schemaOrder)
		return out
	}
	return sortedPaths(b.Schemas)
}

// Encode writes the bundle as compact JSON.
func (b *Bundle) Encode(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// Load decodes a bundle artifact.
func Load(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Data == nil {
		b.Data = map[string]map[string]any{}
	}
	if b.Resources == nil {
		b.Resources = map[string]Resource{}
	}
	if b.Schemas == nil {
		b.Schemas = map[string]map[string]any{}
	}
	return &b, nil
}

func sortedPaths[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
