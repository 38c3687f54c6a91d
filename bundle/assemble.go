package bundle

import (
	"fmt"

	"github.com/c360studio/docbundle/document"
	"github.com/c360studio/docbundle/resolver"
)

// Input carries the ingested contents of the four bundle sections, in
// ingestion order.
type Input struct {
	Schemas   []document.Document
	Data      []document.Document
	Resources []Resource
	Graphql   any
}

// Assemble combines the ingested sections into a bundle. With resolve
// set, data and schema documents are replaced by their fully
// dereferenced form before insertion; resources and the graphql
// catalog are copied verbatim, since they contain no references by
// definition. Assembly fails on any integrity error: a duplicate
// logical path within a section, or a resolution failure when resolve
// is requested. No partial bundle is ever produced.
func Assemble(in Input, resolve bool) (*Bundle, error) {
	schemaStore, err := document.FromDocuments(in.Schemas)
	if err != nil {
		return nil, fmt.Errorf("schemas: %w", err)
	}
	dataStore, err := document.FromDocuments(in.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	b := &Bundle{
		Data:      make(map[string]map[string]any, len(in.Data)),
		Resources: make(map[string]Resource, len(in.Resources)),
		Schemas:   make(map[string]map[string]any, len(in.Schemas)),
		Graphql:   in.Graphql,
	}

	// Schema references target schema documents; data crossrefs
	// target data documents. The two sections resolve against their
	// own stores.
	if err := fillSection(b.Schemas, schemaStore, resolve); err != nil {
		return nil, fmt.Errorf("schemas: %w", err)
	}
	if err := fillSection(b.Data, dataStore, resolve); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	b.schemaOrder = schemaStore.Paths()
	b.dataOrder = dataStore.Paths()

	for _, res := range in.Resources {
		if _, ok := b.Resources[res.Path]; ok {
			return nil, fmt.Errorf("resources: %w", &document.DuplicatePathError{Path: res.Path})
		}
		b.Resources[res.Path] = res
	}

	return b, nil
}

func fillSection(section map[string]map[string]any, store *document.Store, resolve bool) error {
	r := resolver.New(store)
	for _, path := range store.Paths() {
		content, _ := store.Get(path)
		if resolve {
			resolved, err := r.Resolve(path, content)
			if err != nil {
				return err
			}
			content = resolved
		}
		section[path] = content
	}
	return nil
}
