package document

import (
	"errors"
	"testing"
)

func TestStoreAddAndGet(t *testing.T) {
	s := NewStore()
	if err := s.Add("/a.yml", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	content, ok := s.Get("/a.yml")
	if !ok {
		t.Fatal("Get() did not find /a.yml")
	}
	if content["k"] != "v" {
		t.Errorf("Get() content = %v, want k=v", content)
	}

	if _, ok := s.Get("/missing.yml"); ok {
		t.Error("Get() found a path that was never added")
	}
}

func TestStoreDuplicatePath(t *testing.T) {
	s := NewStore()
	if err := s.Add("/a.yml", map[string]any{}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err := s.Add("/a.yml", map[string]any{"other": true})
	if err == nil {
		t.Fatal("Add() accepted a duplicate path")
	}
	var dup *DuplicatePathError
	if !errors.As(err, &dup) {
		t.Fatalf("Add() error = %T, want *DuplicatePathError", err)
	}
	if dup.Path != "/a.yml" {
		t.Errorf("DuplicatePathError.Path = %q, want /a.yml", dup.Path)
	}
}

func TestStorePreservesOrder(t *testing.T) {
	s := NewStore()
	paths := []string{"/z.yml", "/a.yml", "/m.yml"}
	for _, p := range paths {
		if err := s.Add(p, map[string]any{}); err != nil {
			t.Fatalf("Add(%s) error = %v", p, err)
		}
	}

	got := s.Paths()
	if len(got) != len(paths) {
		t.Fatalf("Paths() returned %d paths, want %d", len(got), len(paths))
	}
	for i, p := range paths {
		if got[i] != p {
			t.Errorf("Paths()[%d] = %q, want %q (insertion order)", i, got[i], p)
		}
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{
			name: "root",
			loc:  Location{},
			want: "",
		},
		{
			name: "single field",
			loc:  Location{}.Child("name"),
			want: "name",
		},
		{
			name: "nested fields",
			loc:  Location{}.Child("spec").Child("name"),
			want: "spec.name",
		},
		{
			name: "field then index",
			loc:  Location{}.Child("roles").Elem(2),
			want: "roles[2]",
		},
		{
			name: "index then field",
			loc:  Location{}.Child("roles").Elem(0).Child("name"),
			want: "roles[0].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocationChildDoesNotAlias(t *testing.T) {
	base := Location{}.Child("a")
	first := base.Child("b")
	second := base.Child("c")

	if first.String() != "a.b" {
		t.Errorf("first = %q, want a.b", first.String())
	}
	if second.String() != "a.c" {
		t.Errorf("second = %q, want a.c (sibling extension must not clobber)", second.String())
	}
}
