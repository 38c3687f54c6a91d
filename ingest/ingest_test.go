package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/docbundle/document"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "teams/sre.yml", "path: /teams/sre.yml\nname: sre\n")
	writeFile(t, dir, "apps/app.json", `{"name": "app"}`)
	writeFile(t, dir, "README.md", "not a document")

	docs, err := Documents(dir, 4)
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("loaded %d documents, want 2", len(docs))
	}
	// Sorted path order.
	if docs[0].Path != "/apps/app.json" {
		t.Errorf("docs[0].Path = %q, want /apps/app.json", docs[0].Path)
	}
	if docs[1].Path != "/teams/sre.yml" {
		t.Errorf("docs[1].Path = %q, want /teams/sre.yml", docs[1].Path)
	}
	if docs[1].Content["name"] != "sre" {
		t.Errorf("name = %v, want sre", docs[1].Content["name"])
	}
}

func TestDocumentsMalformedFileAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yml", "name: ok\n")
	writeFile(t, dir, "bad.yml", "- sequence\n- root\n")

	if _, err := Documents(dir, 2); err == nil {
		t.Fatal("Documents() accepted a non-mapping document")
	}
}

func TestDocumentsEmptyDir(t *testing.T) {
	docs, err := Documents(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("loaded %d documents from empty dir", len(docs))
	}
}

func TestResources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scripts/run.sh", "#!/bin/sh\necho hi\n")
	writeFile(t, dir, "r.txt", "hello")

	resources, err := Resources(dir, 2)
	if err != nil {
		t.Fatalf("Resources() error = %v", err)
	}

	if len(resources) != 2 {
		t.Fatalf("loaded %d resources, want 2", len(resources))
	}
	if resources[0].Path != "/r.txt" {
		t.Errorf("resources[0].Path = %q, want /r.txt", resources[0].Path)
	}
	if resources[0].Content != "hello" {
		t.Errorf("content = %q, want hello", resources[0].Content)
	}
	if want := document.Checksum([]byte("hello")); resources[0].Sha256Sum != want {
		t.Errorf("sha256sum = %q, want %q", resources[0].Sha256Sum, want)
	}
}

func TestGraphqlSequenceCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "graphql.yml", "- name: Query\n  fields: []\n")

	catalog, err := Graphql(filepath.Join(dir, "graphql.yml"))
	if err != nil {
		t.Fatalf("Graphql() error = %v", err)
	}
	seq, ok := catalog.([]any)
	if !ok {
		t.Fatalf("catalog = %T, want []any", catalog)
	}
	if len(seq) != 1 {
		t.Errorf("catalog has %d entries, want 1", len(seq))
	}
}

func TestGraphqlMissingFile(t *testing.T) {
	_, err := Graphql(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatal("Graphql() accepted a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want wrapped fs.ErrNotExist", err)
	}
}

func TestForEachRunsEveryJob(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e"}
	seen := make([]string, len(paths))

	err := forEach(paths, 3, func(i int, path string) error {
		seen[i] = path
		return nil
	})
	if err != nil {
		t.Fatalf("forEach() error = %v", err)
	}
	for i, p := range paths {
		if seen[i] != p {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], p)
		}
	}
}

func TestForEachReturnsFirstFailureInOrder(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")

	err := forEach([]string{"a", "b", "c"}, 3, func(i int, path string) error {
		switch path {
		case "a":
			return errA
		case "c":
			return errC
		default:
			return nil
		}
	})
	if !errors.Is(err, errA) {
		t.Errorf("error = %v, want the first failure in input order", err)
	}
}
