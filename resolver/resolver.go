// Package resolver dereferences $ref markers across a read-only
// document store. A reference is a mapping node carrying a "$ref"
// string of the form "/other.yml#/sub/path"; the document part may be
// empty (same document) and the pointer part is optional (whole
// document). Resolution is recursive: a resolved target may itself
// contain further references, and chains spanning several documents
// are followed. Cycles are detected with an explicit in-progress set
// instead of unbounded recursion.
package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/docbundle/document"
)

// RefKey is the mapping key that marks a reference node.
const RefKey = "$ref"

// Resolver resolves references against a single document store. The
// store is read-only during resolution, so a Resolver is safe for
// concurrent use.
type Resolver struct {
	store *document.Store
}

// New creates a resolver over store.
func New(store *document.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns a fully dereferenced copy of content. The original
// is never mutated; resolving a document with no references yields an
// equal value, so resolution is idempotent.
func (r *Resolver) Resolve(path string, content map[string]any) (map[string]any, error) {
	resolved, err := r.resolve(content, path, nil)
	if err != nil {
		return nil, err
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("resolve %s: root resolved to a non-mapping", path)
	}
	return m, nil
}

// ResolvePath resolves the document stored under path.
func (r *Resolver) ResolvePath(path string) (map[string]any, error) {
	content, ok := r.store.Get(path)
	if !ok {
		return nil, &UnresolvedReferenceError{Ref: path, Document: path}
	}
	return r.Resolve(path, content)
}

// resolve walks value depth-first. docPath is the document the value
// belongs to, used to anchor same-document references. active is the
// chain of (path#pointer) targets currently being resolved.
func (r *Resolver) resolve(value any, docPath string, active []string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v[RefKey].(string); ok {
			return r.resolveRef(ref, docPath, active)
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := r.resolve(item, docPath, active)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := r.resolve(item, docPath, active)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func (r *Resolver) resolveRef(ref, docPath string, active []string) (any, error) {
	targetPath, pointer := splitRef(ref)
	if targetPath == "" {
		targetPath = docPath
	}

	target, ok := r.store.Get(targetPath)
	if !ok {
		return nil, &UnresolvedReferenceError{Ref: ref, Document: docPath}
	}

	key := targetPath + "#" + pointer
	for _, inProgress := range active {
		if inProgress == key {
			chain := make([]string, len(active), len(active)+1)
			copy(chain, active)
			return nil, &ReferenceCycleError{Chain: append(chain, key)}
		}
	}

	value, err := descend(target, ref, docPath, pointer)
	if err != nil {
		return nil, err
	}
	return r.resolve(value, targetPath, append(active, key))
}

// splitRef separates the document path from the optional pointer part
// of a reference string.
func splitRef(ref string) (path, pointer string) {
	path, pointer, _ = strings.Cut(ref, "#")
	return path, pointer
}

// descend walks the pointer segments into content. Mapping nodes are
// traversed by key, sequence nodes by decimal index.
func descend(content any, ref, docPath, pointer string) (any, error) {
	value := content
	for _, segment := range pointerSegments(pointer) {
		switch node := value.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, &InvalidPointerError{Ref: ref, Document: docPath, Segment: segment}
			}
			value = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, &InvalidPointerError{Ref: ref, Document: docPath, Segment: segment}
			}
			value = node[index]
		default:
			return nil, &InvalidPointerError{Ref: ref, Document: docPath, Segment: segment}
		}
	}
	return value, nil
}

func pointerSegments(pointer string) []string {
	trimmed := strings.Trim(pointer, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
