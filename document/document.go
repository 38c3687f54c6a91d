// Package document holds the in-memory representation of ingested
// documents: a store keyed by logical path, location addressing inside
// a document tree, and the YAML/JSON parsing helpers shared by the
// bundling and validation paths.
package document

import "fmt"

// Document is a parsed document together with its logical path.
// The logical path is rooted at the ingestion directory, always begins
// with "/", and is the same string convention used by $schema and $ref
// fields inside document content.
type Document struct {
	Path    string
	Content map[string]any
}

// DuplicatePathError is returned when two distinct source documents
// map to the same logical path.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("duplicate path %q", e.Path)
}

// Store is an ordered mapping from logical path to parsed document
// content. It preserves insertion order so downstream reports can be
// grouped deterministically, and it is read-only after ingestion.
type Store struct {
	docs  map[string]map[string]any
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]map[string]any)}
}

// FromDocuments builds a store from an ordered document list.
func FromDocuments(docs []Document) (*Store, error) {
	s := NewStore()
	for _, d := range docs {
		if err := s.Add(d.Path, d.Content); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts a document under its logical path. Adding a path that is
// already present fails with DuplicatePathError.
func (s *Store) Add(path string, content map[string]any) error {
	if _, ok := s.docs[path]; ok {
		return &DuplicatePathError{Path: path}
	}
	s.docs[path] = content
	s.order = append(s.order, path)
	return nil
}

// Get returns the content stored under path.
func (s *Store) Get(path string) (map[string]any, bool) {
	content, ok := s.docs[path]
	return content, ok
}

// Paths returns the logical paths in insertion order.
func (s *Store) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	return len(s.order)
}
