package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c360studio/docbundle/bundle"
	"github.com/c360studio/docbundle/document"
	"github.com/c360studio/docbundle/report"
	"github.com/c360studio/docbundle/schema"
)

var errValidationFailed = errors.New("validation failed")

func validateCmd() *cobra.Command {
	var (
		onlyErrors bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "validate BUNDLE_FILE",
		Short: "Validate every data document in a bundle against its declared schema",
		Long: `Validate loads a bundle artifact, checks every schema document
against its declared metaschema and every data document against its
declared schema, and prints the full report as JSON. The exit status
is zero only if no error was found.

With --only-errors, documents with zero errors are omitted from the
printed report; the exit status still reflects the unfiltered count.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], onlyErrors, workers)
		},
	}

	cmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "Omit documents with zero errors from the report")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Number of parallel validation workers")

	return cmd
}

func runValidate(bundlePath string, onlyErrors bool, workers int) error {
	runID := uuid.NewString()
	slog.Info("Validation run starting", "run_id", runID, "bundle", bundlePath)

	f, err := os.Open(bundlePath)
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	b, err := bundle.Load(f)
	if err != nil {
		return err
	}

	rep, err := validateBundle(b, workers)
	if err != nil {
		return err
	}

	if err := rep.Write(os.Stdout, onlyErrors); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !rep.OK {
		slog.Info("Validation run failed", "run_id", runID, "errors", len(rep.Errors))
		return errValidationFailed
	}
	slog.Info("Validation run passed", "run_id", runID, "documents", len(rep.Documents))
	return nil
}

// validateBundle runs the validation path over a loaded bundle.
// Integrity errors (unresolvable schema graph, unknown declared
// schema) abort with no partial report; conformance errors accumulate
// into the returned report.
func validateBundle(b *bundle.Bundle, workers int) (*report.Report, error) {
	schemaStore := document.NewStore()
	for _, path := range b.SchemaPaths() {
		if err := schemaStore.Add(path, b.Schemas[path]); err != nil {
			return nil, fmt.Errorf("schemas: %w", err)
		}
	}

	index, err := schema.BuildIndex(schemaStore)
	if err != nil {
		return nil, err
	}
	validator := schema.NewValidator(index)

	builder := report.NewBuilder()

	// Schemas first, then data, mirroring bundle section order.
	for _, path := range b.SchemaPaths() {
		errs, err := validator.ValidateSchemaDocument(path, b.Schemas[path])
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", path, err)
		}
		builder.AddDocument(path, errs)
	}

	dataPaths := b.DataPaths()
	results, err := validator.ValidateAll(dataPaths, b.Data, workers)
	if err != nil {
		return nil, err
	}

	refErrs := make(map[string][]report.Error)
	for _, e := range b.CheckDataReferences() {
		refErrs[e.Path] = append(refErrs[e.Path], e)
	}

	for _, res := range results {
		builder.AddDocument(res.Path, append(res.Errors, refErrs[res.Path]...))
	}

	return builder.Build(), nil
}
