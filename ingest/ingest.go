// Package ingest is the file-system collaborator feeding the bundling
// path: it walks input directories, parses YAML/JSON documents over a
// bounded worker pool, and hashes opaque resource files. Logical paths
// are rooted at the ingestion directory ("/app/team.yml"), matching
// the convention used by $schema and $ref fields.
package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/docbundle/bundle"
	"github.com/c360studio/docbundle/document"
)

// DocumentPattern matches the files parsed as structured documents.
const DocumentPattern = "**/*.{yml,yaml,json}"

// Documents loads every structured document under dir, in sorted path
// order. Parsing fans out over workers goroutines; any parse failure
// aborts the whole load, since a malformed document cannot be bundled
// by guessing its content.
func Documents(dir string, workers int) ([]document.Document, error) {
	paths, err := matchFiles(dir, DocumentPattern)
	if err != nil {
		return nil, err
	}

	docs := make([]document.Document, len(paths))
	err = forEach(paths, workers, func(i int, rel string) error {
		slog.Debug("Processing document", "path", rel)
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		content, err := document.Parse(rel, data)
		if err != nil {
			return err
		}
		docs[i] = document.Document{Path: "/" + rel, Content: content}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Resources loads every file under dir as an opaque resource with its
// sha256 checksum, in sorted path order.
func Resources(dir string, workers int) ([]bundle.Resource, error) {
	paths, err := matchFiles(dir, "**/*")
	if err != nil {
		return nil, err
	}

	resources := make([]bundle.Resource, len(paths))
	err = forEach(paths, workers, func(i int, rel string) error {
		slog.Debug("Processing resource", "path", rel)
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		resources[i] = bundle.Resource{
			Path:      "/" + rel,
			Content:   string(data),
			Sha256Sum: document.Checksum(data),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// Graphql loads the already-computed type catalog. Its shape is
// opaque: either a sequence of type descriptors or a mapping with a
// confs key, copied verbatim into the bundle.
func Graphql(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graphql catalog: %w", err)
	}
	return document.ParseValue(path, data)
}

// matchFiles returns the relative slash paths of files under dir
// matching pattern, sorted for deterministic downstream ordering.
func matchFiles(dir, pattern string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return fmt.Errorf("match pattern %q: %w", pattern, err)
		}
		if ok {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
