package mediasort

// CaptureDate is the year/month a media file was captured. A zero Year
// means the date could not be resolved from any source.
type CaptureDate struct {
	// Year is the four-digit capture year, or 0 when unknown.
	Year int
	// Month is the capture month. Values outside 1-12 indicate a parsing
	// anomaly in the metadata and are surfaced rather than silently fixed.
	Month int
	// Raw is the original metadata string the date was parsed from, kept
	// for diagnostics. Empty when the date came from the filesystem.
	Raw string
}

// Unknown reports whether no capture date could be resolved.
func (d CaptureDate) Unknown() bool {
	return d.Year == 0
}

// MonthValid reports whether Month maps to a calendar month.
func (d CaptureDate) MonthValid() bool {
	return d.Month >= 1 && d.Month <= 12
}

// Action is the kind of operation the conflict resolver decided on.
type Action int

const (
	// Move relocates the source into the destination directory.
	Move Action = iota
	// OverwriteDeleteSource deletes the source because the destination
	// already holds an identical copy.
	OverwriteDeleteSource
	// RenameAndMove relocates the source under a disambiguated name.
	RenameAndMove
	// SkipReport reports a name collision without mutating anything.
	SkipReport
	// Fail reports an I/O error for this file.
	Fail
)

func (a Action) String() string {
	switch a {
	case Move:
		return "Move"
	case OverwriteDeleteSource:
		return "OverwriteDeleteSource"
	case RenameAndMove:
		return "RenameAndMove"
	case SkipReport:
		return "SkipReport"
	case Fail:
		return "Fail"
	}
	return "Unknown"
}

// Decision is the outcome of the conflict resolver for one source file.
// It is a pure value: the executor is the only component that acts on it,
// so dry runs and real runs cannot diverge in decision logic.
type Decision struct {
	// Action is the operation to carry out.
	Action Action
	// Source is the file the decision applies to.
	Source string
	// DestDir is the resolved destination bucket directory.
	DestDir string
	// NewName is the disambiguated basename for RenameAndMove.
	NewName string
	// Duplicate records that a name collision was observed, including on
	// decisions that subsequently failed.
	Duplicate bool
	// HashesEqual records the content comparison for duplicate decisions.
	HashesEqual bool
	// SamePath marks a collision where source and destination are the
	// same file, which degrades to a reported no-op.
	SamePath bool
	// Cause is the underlying error for Fail decisions.
	Cause error
}

// RestoreFilter defines the date range filter for restoring backups.
type RestoreFilter struct {
	// FromYear is the lower bound year (0 means no lower bound).
	FromYear int
	// FromMonth is the lower bound month (0 means January if FromYear is set).
	FromMonth int
	// ToYear is the upper bound year (0 means no upper bound).
	ToYear int
	// ToMonth is the upper bound month (0 means December if ToYear is set).
	ToMonth int
}

// Options holds the per-run configuration for the organiser.
type Options struct {
	// DestRoot is the destination root directory. It is normalised at the
	// start of the run and rejected if it resolves to the filesystem root.
	DestRoot string
	// Force enables overwrite-or-rename behaviour on name collisions.
	Force bool
	// DryRun computes every decision, including content hashes, without
	// mutating the filesystem.
	DryRun bool
}
