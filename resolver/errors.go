package resolver

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError is returned when a reference names a
// document that is not present in the store.
type UnresolvedReferenceError struct {
	Ref      string // the reference string as written
	Document string // the document containing the reference
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q in %s", e.Ref, e.Document)
}

// InvalidPointerError is returned when a reference names an existing
// document but its sub-path does not exist inside the target.
type InvalidPointerError struct {
	Ref      string
	Document string
	Segment  string // the pointer segment that failed to traverse
}

func (e *InvalidPointerError) Error() string {
	return fmt.Sprintf("invalid pointer %q in %s: segment %q does not exist", e.Ref, e.Document, e.Segment)
}

// ReferenceCycleError is returned when resolution re-enters a target
// that is already being resolved on the active chain.
type ReferenceCycleError struct {
	Chain []string // (path#pointer) pairs in resolution order
}

func (e *ReferenceCycleError) Error() string {
	return fmt.Sprintf("reference cycle: %s", strings.Join(e.Chain, " -> "))
}
