package bundle

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/docbundle/document"
	"github.com/c360studio/docbundle/resolver"
)

func testInput() Input {
	return Input{
		Schemas: []document.Document{
			{Path: "/schemas/team.yml", Content: map[string]any{
				"$schema": "/metaschema.json",
				"type":    "object",
			}},
		},
		Data: []document.Document{
			{Path: "/teams/sre.yml", Content: map[string]any{
				"path":    "/teams/sre.yml",
				"$schema": "/schemas/team.yml",
				"name":    "sre",
			}},
		},
		Resources: []Resource{
			{Path: "/r.txt", Content: "hello", Sha256Sum: "abc"},
		},
		Graphql: []any{map[string]any{"name": "Query"}},
	}
}

func TestAssemble(t *testing.T) {
	b, err := Assemble(testInput(), false)
	require.NoError(t, err)

	assert.Len(t, b.Schemas, 1)
	assert.Len(t, b.Data, 1)
	assert.Len(t, b.Resources, 1)
	assert.Equal(t, "sre", b.Data["/teams/sre.yml"]["name"])
	assert.Equal(t, "hello", b.Resources["/r.txt"].Content)
}

func TestAssembleDuplicateResourcePath(t *testing.T) {
	in := testInput()
	in.Resources = append(in.Resources, Resource{Path: "/r.txt", Content: "again"})

	_, err := Assemble(in, false)
	require.Error(t, err)
	var dup *document.DuplicatePathError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "/r.txt", dup.Path)
}

func TestAssembleDuplicateDataPath(t *testing.T) {
	in := testInput()
	in.Data = append(in.Data, in.Data[0])

	_, err := Assemble(in, false)
	var dup *document.DuplicatePathError
	require.ErrorAs(t, err, &dup)
}

func TestAssembleWithoutResolvePassesRefsThrough(t *testing.T) {
	in := testInput()
	in.Data = append(in.Data, document.Document{
		Path: "/teams/app.yml",
		Content: map[string]any{
			"owner": map[string]any{"$ref": "/teams/sre.yml"},
		},
	})

	b, err := Assemble(in, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$ref": "/teams/sre.yml"}, b.Data["/teams/app.yml"]["owner"])
}

func TestAssembleWithResolve(t *testing.T) {
	in := testInput()
	in.Data = append(in.Data, document.Document{
		Path: "/teams/app.yml",
		Content: map[string]any{
			"owner": map[string]any{"$ref": "/teams/sre.yml#/name"},
		},
	})

	b, err := Assemble(in, true)
	require.NoError(t, err)
	assert.Equal(t, "sre", b.Data["/teams/app.yml"]["owner"])
}

func TestAssembleResolveFailsOnDanglingRef(t *testing.T) {
	in := testInput()
	in.Data = append(in.Data, document.Document{
		Path: "/teams/app.yml",
		Content: map[string]any{
			"owner": map[string]any{"$ref": "/teams/missing.yml"},
		},
	})

	_, err := Assemble(in, true)
	require.Error(t, err)
	var unresolved *resolver.UnresolvedReferenceError
	assert.ErrorAs(t, err, &unresolved)
}

func TestAssembleRoundTripMatchesEagerResolution(t *testing.T) {
	// Assembling without resolution and dereferencing the embedded
	// markers afterwards must equal assembling with resolution.
	in := testInput()
	in.Data = append(in.Data, document.Document{
		Path: "/teams/app.yml",
		Content: map[string]any{
			"owner": map[string]any{"$ref": "/teams/sre.yml#/name"},
		},
	})

	eager, err := Assemble(in, true)
	require.NoError(t, err)

	lazy, err := Assemble(in, false)
	require.NoError(t, err)

	store := document.NewStore()
	for _, path := range lazy.DataPaths() {
		require.NoError(t, store.Add(path, lazy.Data[path]))
	}
	r := resolver.New(store)
	rebuilt := make(map[string]map[string]any, len(lazy.Data))
	for _, path := range lazy.DataPaths() {
		resolved, err := r.ResolvePath(path)
		require.NoError(t, err)
		rebuilt[path] = resolved
	}

	assert.Equal(t, eager.Data, rebuilt)
}

func TestEncodeHasExactlyFourSections(t *testing.T) {
	b, err := Assemble(testInput(), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Encode(&buf))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Len(t, raw, 4)
	for _, key := range []string{"data", "resources", "schemas", "graphql"} {
		assert.Contains(t, raw, key)
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	b, err := Assemble(testInput(), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Encode(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, b.DataPaths(), loaded.DataPaths())
	assert.Equal(t, "sre", loaded.Data["/teams/sre.yml"]["name"])
	assert.Equal(t, b.Resources["/r.txt"], loaded.Resources["/r.txt"])
}

func TestLoadRejectsMalformedBundle(t *testing.T) {
	_, err := Load(bytes.NewBufferString("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode bundle")
}

func TestCheckDataReferences(t *testing.T) {
	in := testInput()
	in.Data = append(in.Data, document.Document{
		Path: "/teams/app.yml",
		Content: map[string]any{
			"owner":   map[string]any{"$ref": "/teams/sre.yml"},
			"pointer": map[string]any{"$ref": "/teams/sre.yml#/name"},
			"self":    map[string]any{"$ref": "#/owner"},
			"broken":  map[string]any{"$ref": "/teams/gone.yml"},
			"list": []any{
				map[string]any{"$ref": "/teams/also-gone.yml"},
			},
		},
	})

	b, err := Assemble(in, false)
	require.NoError(t, err)

	errs := b.CheckDataReferences()
	require.Len(t, errs, 2)
	assert.Equal(t, "/teams/app.yml", errs[0].Path)
	assert.Equal(t, "broken", errs[0].Location.String())
	assert.Equal(t, "list[0]", errs[1].Location.String())
}

func TestDataPathsDeterministicAfterLoad(t *testing.T) {
	loaded, err := Load(bytes.NewBufferString(`{
		"data": {"/z.yml": {}, "/a.yml": {}},
		"resources": {},
		"schemas": {},
		"graphql": []
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.yml", "/z.yml"}, loaded.DataPaths())
}
