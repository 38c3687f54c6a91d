package ingest

import "sync"

// forEach runs fn over every path on a bounded worker pool. Results
// are written by index, so output order is independent of scheduling.
// The first failure in input order is returned.
func forEach(paths []string, workers int, fn func(i int, path string) error) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	failures := make([]error, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				failures[i] = fn(i, paths[i])
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
			return err
		}
	}
	return nil
}
