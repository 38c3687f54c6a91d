package schema

import (
	"sync"

	"github.com/c360studio/docbundle/report"
)

// DocumentResult is the validation outcome for a single document.
type DocumentResult struct {
	Path   string
	Errors []report.Error
}

// ValidateAll validates documents over a bounded worker pool. Each
// document's evaluation reads only the read-only index, so fan-out is
// safe; results come back in input order regardless of scheduling.
// Conformance errors accumulate per document, but the first integrity
// error in input order aborts the whole run.
func (v *Validator) ValidateAll(paths []string, docs map[string]map[string]any, workers int) ([]DocumentResult, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]DocumentResult, len(paths))
	failures := make([]error, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				path := paths[i]
				errs, err := v.ValidateDocument(path, docs[path])
				results[i] = DocumentResult{Path: path, Errors: errs}
				failures[i] = err
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range failures {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
