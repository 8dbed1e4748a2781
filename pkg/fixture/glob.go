package fixture

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// MaxWorkers caps the number of fixtures read concurrently.
const MaxWorkers = 64

// GlobOptions configures Glob.
type GlobOptions struct {
	// Workers is the number of concurrent loaders.
	// Zero or negative values use runtime.GOMAXPROCS(0).
	Workers int
}

// GlobOption is a functional option for Glob.
type GlobOption func(*GlobOptions)

// WithWorkers sets the number of concurrent loaders. Negative values are
// ignored.
func WithWorkers(n int) GlobOption {
	return func(o *GlobOptions) {
		if n >= 0 {
			o.Workers = n
		}
	}
}

// LoadError is a fixture that matched a pattern but could not be loaded.
type LoadError struct {
	Err  error
	Path string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// GlobResult holds the tables loaded by Glob, sorted by path.
type GlobResult struct {
	Errors []LoadError
	Tables []*Table
}

// Glob loads every file matching any of patterns (doublestar syntax, "**"
// crosses directories). A file matched by several patterns is loaded once.
// Per-file failures are collected in the result; only a malformed pattern or
// a cancelled context fails the call.
func Glob(ctx context.Context, patterns []string, opts ...GlobOption) (*GlobResult, error) {
	options := GlobOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	paths, err := expand(patterns)
	if err != nil {
		return nil, err
	}

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	var (
		mu     sync.Mutex
		result = &GlobResult{
			Errors: make([]LoadError, 0),
			Tables: make([]*Table, 0, len(paths)),
		}
	)

	for _, path := range paths {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			tbl, err := Load(path)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Errors = append(result.Errors, LoadError{Err: err, Path: path})
				return nil
			}
			result.Tables = append(result.Tables, tbl)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "fixture loading interrupted").
			WithTextCode("GLOB_INTERRUPTED")
	}

	// Loaders finish in arbitrary order.
	sort.Slice(result.Tables, func(i, j int) bool {
		return result.Tables[i].Path < result.Tables[j].Path
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})

	return result, nil
}

func expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid fixture pattern").
				WithTextCode("BAD_PATTERN").
				WithMetadata(map[string]any{"pattern": pattern})
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	return paths, nil
}
