package parsers

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultBatchWorkers is the worker count used when BatchOptions.Workers is unset
const DefaultBatchWorkers = 4

// BatchOptions configure ParseFiles
type BatchOptions struct {
	Workers int
	// ContinueOnError parses every file even after a failure
	ContinueOnError bool
	Config          *ParserConfig
}

// FileResult is the outcome for one path
type FileResult struct {
	Path   string
	Result *ParseResult
	Err    error
}

// ParseFile parses the document at path with the parser registered for its
// extension, or the "All Data" parser when the extension is unknown
func (pf *ParserFactory) ParseFile(ctx context.Context, path string, config *ParserConfig) (*ParseResult, error) {
	parserType := ParserTypeAllData
	if ext := filepath.Ext(path); pf.IsExtensionSupported(ext) {
		parserType = pf.extensionMap[strings.ToLower(ext)]
	}
	parser, err := pf.GetParser(parserType)
	if err != nil {
		return nil, err
	}
	return parser.ParseFile(ctx, path, config)
}

// ParseFiles parses paths on a pool of workers. Results are returned in the
// order of paths. Unless opts.ContinueOnError is set the first failure, in
// path order, is also returned as the error and pending files are skipped.
func (pf *ParserFactory) ParseFiles(ctx context.Context, paths []string, opts BatchOptions) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	workers = min(workers, len(paths))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, len(paths))
	for i := range paths {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := FileResult{Path: paths[i]}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					res.Result, res.Err = pf.ParseFile(ctx, paths[i], opts.Config)
				}
				if res.Err != nil && !opts.ContinueOnError {
					cancel()
				}
				results[i] = res
			}
		}()
	}
	wg.Wait()

	if opts.ContinueOnError {
		return results, nil
	}

	var first error
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		// a sibling's cancellation is not the failure worth reporting
		if first == nil || (stderrors.Is(first, context.Canceled) && !stderrors.Is(r.Err, context.Canceled)) {
			first = fmt.Errorf("%s: %w", r.Path, r.Err)
		}
	}
	return results, first
}
