// Package report aggregates per-document validation output into the
// final pass/fail report. The builder preserves the order documents
// were validated in; errors within a document keep the engine's
// traversal order. The overall OK flag always reflects the unfiltered
// error count, even when clean documents are suppressed from output.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360studio/docbundle/document"
)

// Status is the per-document validation outcome.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Error is a single conformance violation, qualified by the document
// it occurred in and the location inside that document.
type Error struct {
	Path     string            `json:"path"`
	Location document.Location `json:"location"`
	Message  string            `json:"message"`
	Keyword  string            `json:"keyword,omitempty"`
}

func (e Error) String() string {
	loc := e.Location.String()
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, loc, e.Message)
}

// DocumentSummary is the per-document roll-up included in the report.
type DocumentSummary struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	Errors int    `json:"errors"`
}

// Report is the terminal validation artifact.
type Report struct {
	OK        bool              `json:"ok"`
	Documents []DocumentSummary `json:"documents"`
	Errors    []Error           `json:"errors"`
}

// Builder accumulates validation output document by document.
type Builder struct {
	errors    []Error
	documents []DocumentSummary
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddDocument records the validation outcome for one document. Call
// order determines report order.
func (b *Builder) AddDocument(path string, errs []Error) {
	status := StatusOK
	if len(errs) > 0 {
		status = StatusError
	}
	b.documents = append(b.documents, DocumentSummary{
		Path:   path,
		Status: status,
		Errors: len(errs),
	})
	b.errors = append(b.errors, errs...)
}

// Build produces the final report. OK is true iff no document
// reported any error.
func (b *Builder) Build() *Report {
	return &Report{
		OK:        len(b.errors) == 0,
		Documents: b.documents,
		Errors:    b.errors,
	}
}

// Write encodes the report as indented JSON. With onlyErrors set,
// documents with zero errors are omitted from the emitted report; the
// OK flag is unaffected by filtering.
func (r *Report) Write(w io.Writer, onlyErrors bool) error {
	out := r
	if onlyErrors {
		filtered := &Report{OK: r.OK, Errors: r.Errors}
		for _, doc := range r.Documents {
			if doc.Errors > 0 {
				filtered.Documents = append(filtered.Documents, doc)
			}
		}
		out = filtered
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
