package mediasort

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/acm19/media-sort/internal/logger"
)

// Executor carries out conflict decisions, or simulates them in dry-run
// mode. It is the only component allowed to mutate the filesystem, and it
// owns the run tally.
type Executor struct {
	out    io.Writer
	tally  *RunTally
	dryRun bool
}

// NewExecutor creates an Executor writing status lines to out.
func NewExecutor(out io.Writer, dryRun bool) *Executor {
	return &Executor{
		out:    out,
		tally:  &RunTally{},
		dryRun: dryRun,
	}
}

// Tally returns the counters accumulated so far.
func (e *Executor) Tally() *RunTally {
	return e.tally
}

// Apply executes one decision, updates exactly one terminal counter and
// emits one status line. Dry runs update the TEST counters and never call
// the mutating primitives; duplicate classification counters are recorded
// identically in both modes so dry-run statistics match a real run.
func (e *Executor) Apply(d Decision) {
	if d.Duplicate {
		e.tally.DuplicateFiles++
		if d.Action != Fail {
			if d.HashesEqual {
				e.tally.MD5Matches++
			} else {
				e.tally.MD5Diffs++
			}
		}
	}

	switch d.Action {
	case Move:
		e.applyMove(d)
	case OverwriteDeleteSource:
		e.applyDelete(d)
	case RenameAndMove:
		e.applyRename(d)
	case SkipReport:
		e.applySkip(d)
	case Fail:
		e.applyFail(d)
	}
}

func (e *Executor) applyMove(d Decision) {
	if e.dryRun {
		e.tally.TestMoved++
		e.report(d.Source, fmt.Sprintf("would be moved to %s", d.DestDir))
		return
	}
	if err := e.moveInto(d.Source, d.DestDir, filepath.Base(d.Source)); err != nil {
		e.applyFail(fail(d, err))
		return
	}
	e.tally.Moved++
	e.report(d.Source, fmt.Sprintf("moved to %s", d.DestDir))
}

func (e *Executor) applyDelete(d Decision) {
	if e.dryRun {
		e.tally.TestDeleted++
		e.report(d.Source, fmt.Sprintf("would be deleted, identical copy at %s", d.DestDir))
		return
	}
	if err := os.Remove(d.Source); err != nil {
		e.applyFail(fail(d, fmt.Errorf("delete %s: %w", d.Source, err)))
		return
	}
	e.tally.Deleted++
	e.report(d.Source, fmt.Sprintf("deleted, identical copy at %s", d.DestDir))
}

func (e *Executor) applyRename(d Decision) {
	if e.dryRun {
		e.tally.TestRenamed++
		e.report(d.Source, fmt.Sprintf("would be moved to %s as %s", d.DestDir, d.NewName))
		return
	}
	if err := e.moveInto(d.Source, d.DestDir, d.NewName); err != nil {
		e.applyFail(fail(d, err))
		return
	}
	e.tally.Renamed++
	e.report(d.Source, fmt.Sprintf("moved to %s as %s", d.DestDir, d.NewName))
}

func (e *Executor) applySkip(d Decision) {
	switch {
	case d.SamePath:
		e.report(d.Source, "already in place, nothing to do")
	case d.HashesEqual:
		e.report(d.Source, fmt.Sprintf("skipped, identical copy at %s", d.DestDir))
	default:
		e.report(d.Source, fmt.Sprintf("skipped, name collision with different content at %s", d.DestDir))
	}
}

func (e *Executor) applyFail(d Decision) {
	e.tally.Failed++
	logger.Warn("File could not be processed", "file", d.Source, "error", d.Cause)
	e.report(d.Source, fmt.Sprintf("FAILED: %v", d.Cause))
}

// report emits the per-file status line: left-justified source path, an
// arrow, and the outcome description.
func (e *Executor) report(source, outcome string) {
	fmt.Fprintf(e.out, "%-70s -> %s\n", source, outcome)
}

// moveInto creates destDir if needed and moves source into it under name.
// Directory creation is idempotent.
func (e *Executor) moveInto(source, destDir, name string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}
	if err := moveFile(source, filepath.Join(destDir, name)); err != nil {
		return fmt.Errorf("move %s: %w", source, err)
	}
	return nil
}

// moveFile renames src to dst, falling back to copy and delete when the
// rename crosses devices. The copy is synced before the source is removed
// so an interrupted run never loses the only copy.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFilePreserveTime(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFilePreserveTime copies a file keeping its mode and modification
// time, so date resolution stays stable for files that fell back to mtime.
func copyFilePreserveTime(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	if err := dstFile.Sync(); err != nil {
		return err
	}

	return os.Chtimes(dst, time.Now(), srcInfo.ModTime())
}
