// Package schema maps schema identifiers to resolved schema documents
// and evaluates data documents against them. The index is built once
// per run and read-only afterwards, so validation can fan out across
// documents without shared mutable state.
package schema

import (
	"fmt"
	"strings"

	"github.com/c360studio/docbundle/document"
	"github.com/c360studio/docbundle/resolver"
)

// NotFoundError is returned when a declared schema identifier does not
// name any ingested schema document. It indicates authoring drift
// between the data and schema trees, never a conformance problem.
type NotFoundError struct {
	Schema string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema not found: %q", e.Schema)
}

// Index maps schema identifiers to schema documents. Lookup is
// exact-match after normalization; there is no fallback schema.
type Index struct {
	schemas map[string]map[string]any
	order   []string
}

// BuildIndex resolves every schema document in store and keys it by
// its logical path. Schemas legitimately reference shared definitions
// in other schema documents, so each one is fully dereferenced up
// front; any integrity error in the schema graph aborts the build.
func BuildIndex(store *document.Store) (*Index, error) {
	r := resolver.New(store)
	idx := &Index{schemas: make(map[string]map[string]any, store.Len())}
	for _, path := range store.Paths() {
		resolved, err := r.ResolvePath(path)
		if err != nil {
			return nil, fmt.Errorf("resolve schema %s: %w", path, err)
		}
		idx.schemas[path] = resolved
		idx.order = append(idx.order, path)
	}
	return idx, nil
}

// Lookup returns the schema document declared by id. Identifiers
// missing a leading slash are normalized to the rooted form used by
// schema paths.
func (i *Index) Lookup(id string) (map[string]any, error) {
	normalized := Normalize(id)
	sch, ok := i.schemas[normalized]
	if !ok {
		return nil, &NotFoundError{Schema: id}
	}
	return sch, nil
}

// Has reports whether id names an indexed schema.
func (i *Index) Has(id string) bool {
	_, ok := i.schemas[Normalize(id)]
	return ok
}

// Paths returns the indexed schema paths in insertion order.
func (i *Index) Paths() []string {
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Normalize roots a schema identifier. Remote identifiers (http/https)
// are left untouched.
func Normalize(id string) string {
	if strings.HasPrefix(id, "http") || strings.HasPrefix(id, "/") {
		return id
	}
	return "/" + id
}
