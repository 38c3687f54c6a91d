package bundle

import (
	"sort"
	"strings"

	"github.com/c360studio/docbundle/document"
	"github.com/c360studio/docbundle/report"
	"github.com/c360studio/docbundle/resolver"
)

// CheckDataReferences walks every data document for crossref markers
// and reports each one whose target is not a data document in this
// bundle. Missing targets are conformance findings in the report, not
// integrity aborts: a bundle assembled without resolution legitimately
// carries its references verbatim, and authors need the complete list
// of dangling ones. Bundles assembled with resolution contain no
// markers and produce no findings.
func (b *Bundle) CheckDataReferences() []report.Error {
	var errs []report.Error
	for _, path := range b.DataPaths() {
		errs = append(errs, b.checkRefs(path, b.Data[path], nil)...)
	}
	return errs
}

func (b *Bundle) checkRefs(path string, value any, loc document.Location) []report.Error {
	var errs []report.Error
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v[resolver.RefKey].(string); ok {
			// Only the document part of "/file.yml#/sub/path" has to
			// exist; same-document refs ("#/sub/path") always do.
			target, _, _ := strings.Cut(ref, "#")
			if target == "" {
				target = path
			}
			if _, found := b.Data[target]; !found {
				errs = append(errs, report.Error{
					Path:     path,
					Location: loc,
					Message:  "reference to missing file " + ref,
					Keyword:  resolver.RefKey,
				})
			}
			return errs
		}
		for _, key := range sortedKeys(v) {
			errs = append(errs, b.checkRefs(path, v[key], loc.Child(key))...)
		}
	case []any:
		for i, item := range v {
			errs = append(errs, b.checkRefs(path, item, loc.Elem(i))...)
		}
	}
	return errs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
