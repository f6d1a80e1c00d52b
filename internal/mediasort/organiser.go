package mediasort

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/acm19/media-sort/internal/logger"
	"github.com/barasher/go-exiftool"
)

// MediaOrganiser relocates files from a source tree into date buckets
// under a destination root.
type MediaOrganiser interface {
	// Organise processes every file under sourceDir and returns the run
	// tally. Per-file failures are counted and reported, never fatal; the
	// returned error covers startup problems only.
	Organise(sourceDir string, opts Options) (*RunTally, error)
}

// mediaOrganiser implements the MediaOrganiser interface.
type mediaOrganiser struct {
	dates     *DateResolver
	conflicts ConflictResolver
	stats     FileStats
	out       io.Writer
}

// NewMediaOrganiser creates a MediaOrganiser writing per-file status lines
// to out. et may be nil when the exiftool binary is unavailable; date
// resolution then starts at the embedded EXIF decoder.
func NewMediaOrganiser(et *exiftool.Exiftool, out io.Writer) MediaOrganiser {
	return &mediaOrganiser{
		dates:     NewDateResolver(et),
		conflicts: NewConflictResolver(),
		stats:     NewFileStats(),
		out:       out,
	}
}

// Organise walks the source tree with filepath.WalkDir, which visits
// entries in lexical order per directory, so runs over an unmodified tree
// are deterministic. Dot files and dot directories are skipped, as is the
// destination subtree when it is nested inside the source — otherwise
// files moved early in the run would be rediscovered later in the walk.
func (o *mediaOrganiser) Organise(sourceDir string, opts Options) (*RunTally, error) {
	if err := o.stats.ValidateSourceDir(sourceDir); err != nil {
		return nil, err
	}

	destRoot, err := NormaliseDestRoot(opts.DestRoot)
	if err != nil {
		return nil, err
	}

	absDest, err := filepath.Abs(destRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve destination root: %w", err)
	}

	count, err := o.stats.GetFileCount(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("count source files: %w", err)
	}
	logger.Info("Starting organisation", "source", sourceDir, "destination", destRoot, "files", count, "force", opts.Force, "dryRun", opts.DryRun)

	executor := NewExecutor(o.out, opts.DryRun)

	walkErr := filepath.WalkDir(sourceDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are per-file failures, not batch aborts.
			executor.Apply(Decision{Action: Fail, Source: path, Cause: err})
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != sourceDir {
				return filepath.SkipDir
			}
			if isWithin(absDest, path) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		o.processFile(path, destRoot, opts.Force, executor)
		return nil
	})
	if walkErr != nil {
		return executor.Tally(), fmt.Errorf("walk %s: %w", sourceDir, walkErr)
	}

	return executor.Tally(), nil
}

// processFile runs the per-file pipeline: resolve date, map bucket, decide,
// apply. Nothing in here can abort the batch.
func (o *mediaOrganiser) processFile(path, destRoot string, force bool, executor *Executor) {
	date := o.dates.Resolve(path)
	if date.Raw != "" && !date.MonthValid() {
		logger.Warn("Anomalous capture date", "file", path, "timestamp", date.Raw)
	}

	destDir := BucketPath(destRoot, date)
	executor.Apply(o.conflicts.Decide(path, destDir, force))
}

// isWithin reports whether path is dir or lies under it. Both arguments
// are compared in absolute form.
func isWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if abs == absDir {
		return true
	}
	return strings.HasPrefix(abs, absDir+string(filepath.Separator))
}
