package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/docbundle/document"
	"github.com/c360studio/docbundle/report"
)

// Validator evaluates data documents against resolved schema
// documents. Evaluation never stops at the first violation within a
// document: authors get the complete fix list in one run. A Validator
// carries no per-document state and is safe for concurrent use.
type Validator struct {
	index    *Index
	patterns sync.Map // pattern string -> *regexp.Regexp
}

// NewValidator creates a validator dispatching through index.
func NewValidator(index *Index) *Validator {
	return &Validator{index: index}
}

// ValidateDocument resolves the document's declared schema and
// evaluates the document against it. A missing declaration is a
// conformance error for this document only; a declaration naming a
// schema that does not exist at all is an integrity error returned to
// the caller, since it indicates drift between the data and schema
// trees rather than a malformed document.
func (v *Validator) ValidateDocument(path string, doc map[string]any) ([]report.Error, error) {
	id, ok := doc["$schema"].(string)
	if !ok || id == "" {
		return []report.Error{{
			Path:    path,
			Message: "missing $schema declaration",
			Keyword: "$schema",
		}}, nil
	}

	sch, err := v.index.Lookup(id)
	if err != nil {
		return nil, err
	}
	return v.Validate(path, doc, sch), nil
}

// ValidateSchemaDocument evaluates a schema document against its
// declared metaschema. Remote metaschemas (http) are skipped: the run
// performs no network I/O. A local metaschema that is not indexed is
// an integrity error, same as for data documents.
func (v *Validator) ValidateSchemaDocument(path string, sch map[string]any) ([]report.Error, error) {
	id, ok := sch["$schema"].(string)
	if !ok || id == "" {
		return []report.Error{{
			Path:    path,
			Message: "missing $schema declaration",
			Keyword: "$schema",
		}}, nil
	}
	if strings.HasPrefix(id, "http") {
		return nil, nil
	}

	meta, err := v.index.Lookup(id)
	if err != nil {
		return nil, err
	}
	return v.Validate(path, sch, meta), nil
}

// Validate evaluates value against an already-resolved schema and
// returns every violation in traversal order.
func (v *Validator) Validate(path string, value any, sch map[string]any) []report.Error {
	e := &evaluation{validator: v, path: path}
	e.eval(value, sch, nil)
	return e.errs
}

// evaluation accumulates violations for a single document.
type evaluation struct {
	validator *Validator
	path      string
	errs      []report.Error
}

func (e *evaluation) add(loc document.Location, keyword, format string, args ...any) {
	e.errs = append(e.errs, report.Error{
		Path:     e.path,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
		Keyword:  keyword,
	})
}

// eval applies every constraint of sch to value at loc. Keyword order
// is fixed and object keys are visited sorted, so the emitted error
// order is deterministic.
func (e *evaluation) eval(value any, sch map[string]any, loc document.Location) {
	e.evalType(value, sch, loc)
	e.evalEnum(value, sch, loc)
	e.evalConst(value, sch, loc)
	e.evalString(value, sch, loc)
	e.evalNumber(value, sch, loc)
	e.evalObject(value, sch, loc)
	e.evalArray(value, sch, loc)
	e.evalComposition(value, sch, loc)
}

// evalSubschema handles the draft-6 boolean schema forms alongside
// mapping schemas.
func (e *evaluation) evalSubschema(value any, sub any, loc document.Location) {
	switch s := sub.(type) {
	case bool:
		if !s {
			e.add(loc, "false", "value not allowed by schema")
		}
	case map[string]any:
		e.eval(value, s, loc)
	}
}

func (e *evaluation) evalType(value any, sch map[string]any, loc document.Location) {
	switch t := sch["type"].(type) {
	case string:
		if !hasType(value, t) {
			e.add(loc, "type", "expected %s, got %s", t, typeName(value))
		}
	case []any:
		for _, option := range t {
			if name, ok := option.(string); ok && hasType(value, name) {
				return
			}
		}
		e.add(loc, "type", "expected one of %v, got %s", t, typeName(value))
	}
}

func (e *evaluation) evalEnum(value any, sch map[string]any, loc document.Location) {
	options, ok := sch["enum"].([]any)
	if !ok {
		return
	}
	for _, option := range options {
		if equalValue(value, option) {
			return
		}
	}
	e.add(loc, "enum", "value %v is not one of %v", value, options)
}

func (e *evaluation) evalConst(value any, sch map[string]any, loc document.Location) {
	expected, ok := sch["const"]
	if !ok {
		return
	}
	if !equalValue(value, expected) {
		e.add(loc, "const", "value %v does not equal const %v", value, expected)
	}
}

func (e *evaluation) evalString(value any, sch map[string]any, loc document.Location) {
	s, ok := value.(string)
	if !ok {
		return
	}
	if pattern, ok := sch["pattern"].(string); ok {
		re, err := e.validator.compilePattern(pattern)
		if err != nil {
			e.add(loc, "pattern", "invalid pattern %q: %v", pattern, err)
		} else if !re.MatchString(s) {
			e.add(loc, "pattern", "%q does not match pattern %q", s, pattern)
		}
	}
	if min, ok := asNumber(sch["minLength"]); ok && float64(len([]rune(s))) < min {
		e.add(loc, "minLength", "string shorter than %v characters", min)
	}
	if max, ok := asNumber(sch["maxLength"]); ok && float64(len([]rune(s))) > max {
		e.add(loc, "maxLength", "string longer than %v characters", max)
	}
}

func (e *evaluation) evalNumber(value any, sch map[string]any, loc document.Location) {
	n, ok := asNumber(value)
	if !ok {
		return
	}
	if min, ok := asNumber(sch["minimum"]); ok && n < min {
		e.add(loc, "minimum", "%v is less than minimum %v", value, min)
	}
	if max, ok := asNumber(sch["maximum"]); ok && n > max {
		e.add(loc, "maximum", "%v is greater than maximum %v", value, max)
	}
	if min, ok := asNumber(sch["exclusiveMinimum"]); ok && n <= min {
		e.add(loc, "exclusiveMinimum", "%v is not greater than %v", value, min)
	}
	if max, ok := asNumber(sch["exclusiveMaximum"]); ok && n >= max {
		e.add(loc, "exclusiveMaximum", "%v is not less than %v", value, max)
	}
}

func (e *evaluation) evalObject(value any, sch map[string]any, loc document.Location) {
	obj, ok := value.(map[string]any)
	if !ok {
		return
	}

	if required, ok := sch["required"].([]any); ok {
		for _, entry := range required {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			if _, present := obj[name]; !present {
				e.add(loc, "required", "missing required property %q", name)
			}
		}
	}

	properties, _ := sch["properties"].(map[string]any)
	for _, key := range sortedKeys(obj) {
		if sub, ok := properties[key]; ok {
			e.evalSubschema(obj[key], sub, loc.Child(key))
			continue
		}
		switch additional := sch["additionalProperties"].(type) {
		case bool:
			if !additional {
				e.add(loc.Child(key), "additionalProperties", "property %q is not allowed", key)
			}
		case map[string]any:
			e.eval(obj[key], additional, loc.Child(key))
		}
	}
}

func (e *evaluation) evalArray(value any, sch map[string]any, loc document.Location) {
	items, ok := value.([]any)
	if !ok {
		return
	}

	switch sub := sch["items"].(type) {
	case map[string]any, bool:
		for i, item := range items {
			e.evalSubschema(item, sub, loc.Elem(i))
		}
	case []any:
		for i, item := range items {
			if i >= len(sub) {
				break
			}
			e.evalSubschema(item, sub[i], loc.Elem(i))
		}
	}

	if min, ok := asNumber(sch["minItems"]); ok && float64(len(items)) < min {
		e.add(loc, "minItems", "array has fewer than %v items", min)
	}
	if max, ok := asNumber(sch["maxItems"]); ok && float64(len(items)) > max {
		e.add(loc, "maxItems", "array has more than %v items", max)
	}
}

func (e *evaluation) evalComposition(value any, sch map[string]any, loc document.Location) {
	if branches, ok := sch["allOf"].([]any); ok {
		// allOf reports every sub-failure at its own location.
		for _, branch := range branches {
			e.evalSubschema(value, branch, loc)
		}
	}

	if branches, ok := sch["anyOf"].([]any); ok {
		if !anyMatch(e, value, branches, loc) {
			e.add(loc, "anyOf", "value does not match any of the %d anyOf schemas", len(branches))
		}
	}

	if branches, ok := sch["oneOf"].([]any); ok {
		matches := countMatches(e, value, branches, loc)
		if matches != 1 {
			e.add(loc, "oneOf", "value matches %d of the %d oneOf schemas, expected exactly one", matches, len(branches))
		}
	}

	if sub, ok := sch["not"]; ok {
		if e.branchPasses(value, sub, loc) {
			e.add(loc, "not", "value must not be valid against the not schema")
		}
	}
}

func anyMatch(e *evaluation, value any, branches []any, loc document.Location) bool {
	for _, branch := range branches {
		if e.branchPasses(value, branch, loc) {
			return true
		}
	}
	return false
}

func countMatches(e *evaluation, value any, branches []any, loc document.Location) int {
	matches := 0
	for _, branch := range branches {
		if e.branchPasses(value, branch, loc) {
			matches++
		}
	}
	return matches
}

// branchPasses trial-evaluates value against a branch schema without
// contributing to the accumulated error list.
func (e *evaluation) branchPasses(value any, branch any, loc document.Location) bool {
	trial := &evaluation{validator: e.validator, path: e.path}
	trial.evalSubschema(value, branch, loc)
	return len(trial.errs) == 0
}

func (v *Validator) compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := v.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	v.patterns.Store(pattern, re)
	return re, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case int, int64, uint64, float32, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func hasType(value any, name string) bool {
	switch name {
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "null":
		return value == nil
	case "number":
		_, ok := asNumber(value)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int64, uint64:
			return true
		case float64:
			return v == math.Trunc(v)
		default:
			return false
		}
	default:
		return false
	}
}

// asNumber widens the numeric representations produced by the YAML
// and JSON decoders to float64.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// equalValue compares two decoded values with numeric widening, so 1
// and 1.0 compare equal regardless of which decoder produced them.
func equalValue(a, b any) bool {
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		return ok && na == nb
	}
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !equalValue(v, bval) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
