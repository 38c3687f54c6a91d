package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c360studio/docbundle/bundle"
	"github.com/c360studio/docbundle/ingest"
)

type bundleOptions struct {
	resolve bool
	workers int
	output  string
	watch   bool
}

func bundleCmd() *cobra.Command {
	var opts bundleOptions

	cmd := &cobra.Command{
		Use:   "bundle SCHEMA_DIR GRAPHQL_FILE DATA_DIR RESOURCE_DIR",
		Short: "Aggregate document trees into a single bundle artifact",
		Long: `Bundle walks the schema, data and resource directories, parses every
structured document, and emits the four-section bundle as JSON. With
--resolve, $ref markers in data and schema documents are replaced by
the content they point to; without it they pass through verbatim.

Any integrity error (duplicate path, dangling reference, reference
cycle) fails the whole run: no partial bundle is written.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := bundleDirs{
				schemaDir:   args[0],
				graphqlFile: args[1],
				dataDir:     args[2],
				resourceDir: args[3],
			}
			if opts.watch {
				return watchAndBundle(cmd.Context(), dirs, opts)
			}
			return runBundle(dirs, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.resolve, "resolve", false, "Resolve references before assembly")
	cmd.Flags().IntVar(&opts.workers, "workers", runtime.NumCPU(), "Number of parallel ingestion workers")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the bundle to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-assemble the bundle whenever an input directory changes")

	return cmd
}

type bundleDirs struct {
	schemaDir   string
	graphqlFile string
	dataDir     string
	resourceDir string
}

func runBundle(dirs bundleDirs, opts bundleOptions) error {
	runID := uuid.NewString()
	slog.Info("Bundle run starting",
		"run_id", runID,
		"schema_dir", dirs.schemaDir,
		"data_dir", dirs.dataDir,
		"resource_dir", dirs.resourceDir,
		"resolve", opts.resolve)

	schemas, err := ingest.Documents(dirs.schemaDir, opts.workers)
	if err != nil {
		return fmt.Errorf("ingest schemas: %w", err)
	}
	data, err := ingest.Documents(dirs.dataDir, opts.workers)
	if err != nil {
		return fmt.Errorf("ingest data: %w", err)
	}
	resources, err := ingest.Resources(dirs.resourceDir, opts.workers)
	if err != nil {
		return fmt.Errorf("ingest resources: %w", err)
	}
	graphql, err := ingest.Graphql(dirs.graphqlFile)
	if err != nil {
		return fmt.Errorf("ingest graphql catalog: %w", err)
	}

	b, err := bundle.Assemble(bundle.Input{
		Schemas:   schemas,
		Data:      data,
		Resources: resources,
		Graphql:   graphql,
	}, opts.resolve)
	if err != nil {
		return fmt.Errorf("assemble bundle: %w", err)
	}

	out, closeOut, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := b.Encode(out); err != nil {
		return err
	}

	slog.Info("Bundle run complete",
		"run_id", runID,
		"schemas", len(b.Schemas),
		"data", len(b.Data),
		"resources", len(b.Resources))
	return nil
}

// openOutput returns stdout or a freshly created file. The close
// function is a no-op for stdout.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
