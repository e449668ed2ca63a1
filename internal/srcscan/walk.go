package srcscan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Options configures a source-tree scan.
type Options struct {
	// Jobs bounds the number of files read and parsed concurrently.
	// Zero defaults to runtime.NumCPU().
	Jobs int
	// TargetPhase is compared against each driver's DM_PHASE tag to
	// resolve same-named duplicate drivers.
	TargetPhase string
	// Progress, when true, drives a progress bar on stderr over the file
	// count; whether stderr is a terminal is not checked.
	Progress bool
}

// ScanTree walks root (skipping build*/.git* directories), scans every .c
// and .h file found, and returns the merged index. Per-file scanning is
// parallelized; the merge step runs single-threaded over files in sorted
// path order so duplicate-resolution and warning order stay deterministic
// regardless of how scheduling interleaved the actual file reads.
func ScanTree(ctx context.Context, root string, opts Options) (*Scanner, error) {
	paths, err := collectPaths(root)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(len(paths)), "scanning sources")
	}

	results := make([]*fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if len(data) > MaxSourceFileSize {
				slog.Warn("skipping oversized source file", "path", path, "size", len(data))
				return nil
			}
			res, err := ScanFile(path, data)
			if err != nil {
				return err
			}
			results[i] = res
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scanner := NewScanner()
	for _, res := range results {
		if res == nil {
			continue
		}
		scanner.Merge(res, opts.TargetPhase)
	}
	scanner.BuildCompatIndex()

	slog.Info("scanned source tree", "files", len(paths), "drivers", len(scanner.Drivers),
		"uclasses", len(scanner.Uclasses), "structs", len(scanner.Structs))
	return scanner, nil
}

func collectPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name != "." && (strings.HasPrefix(name, "build") || strings.HasPrefix(name, ".git")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".c") || strings.HasSuffix(name, ".h") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
