package mediasort

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/acm19/media-sort/internal/logger"
	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
)

// dateSource yields a capture date for a file, or an error when this
// source has nothing to offer and the next one should be tried.
type dateSource interface {
	resolve(filePath string) (CaptureDate, error)
	name() string
}

// exiftoolSource reads capture timestamps through an external exiftool
// process. A nil handle (binary not installed) fails per call so the
// resolver moves on to the next source.
type exiftoolSource struct {
	et *exiftool.Exiftool
}

func newExiftoolSource(et *exiftool.Exiftool) *exiftoolSource {
	return &exiftoolSource{et: et}
}

func (s *exiftoolSource) name() string {
	return "Exiftool"
}

// Fields are tried in order of preference: DateTimeOriginal is the actual
// capture moment, CreationDate survives edits on iPhone videos, and
// CreateDate is the generic fallback.
var exiftoolDateFields = []string{"DateTimeOriginal", "CreationDate", "CreateDate"}

func (s *exiftoolSource) resolve(filePath string) (CaptureDate, error) {
	if s.et == nil {
		return CaptureDate{}, fmt.Errorf("exiftool not initialised")
	}

	fileInfos := s.et.ExtractMetadata(filePath)
	if len(fileInfos) == 0 {
		return CaptureDate{}, fmt.Errorf("no metadata found")
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return CaptureDate{}, fileInfo.Err
	}

	for _, field := range exiftoolDateFields {
		if val, err := fileInfo.GetString(field); err == nil {
			logger.Debug("Using exiftool date field", "file", filepath.Base(filePath), "field", field, "date", val)
			return parseCaptureStamp(val)
		}
	}

	return CaptureDate{}, fmt.Errorf("no date field found")
}

// exifDecodeSource is the pure-Go EXIF reader used when exiftool is not
// available. It only understands JPEG-family containers, which is fine:
// failure just falls through to the modification time.
type exifDecodeSource struct{}

func newExifDecodeSource() *exifDecodeSource {
	return &exifDecodeSource{}
}

func (s *exifDecodeSource) name() string {
	return "EXIF"
}

func (s *exifDecodeSource) resolve(filePath string) (CaptureDate, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return CaptureDate{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return CaptureDate{}, err
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		tag, err = x.Get(exif.DateTime)
	}
	if err != nil {
		return CaptureDate{}, err
	}

	raw, err := tag.StringVal()
	if err != nil {
		return CaptureDate{}, err
	}
	logger.Debug("Using EXIF date tag", "file", filepath.Base(filePath), "date", raw)
	return parseCaptureStamp(raw)
}

// modTimeSource derives the date from the file modification time. It is
// the terminal fallback and only fails when the file cannot be stat'ed.
type modTimeSource struct{}

func newModTimeSource() *modTimeSource {
	return &modTimeSource{}
}

func (s *modTimeSource) name() string {
	return "ModTime"
}

func (s *modTimeSource) resolve(filePath string) (CaptureDate, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return CaptureDate{}, err
	}
	t := info.ModTime()
	logger.Debug("Using file modification time", "file", filepath.Base(filePath), "modTime", t)
	return CaptureDate{Year: t.Year(), Month: int(t.Month())}, nil
}

// parseCaptureStamp extracts year and month from the leading portion of a
// metadata timestamp. Metadata sources inconsistently separate date
// segments with ":" or "/", so slashes are normalised first. A year that
// does not parse as a plausible four-digit value fails the source; a month
// that does not parse is surfaced as 0 with the raw string retained, which
// the path mapper renders as a visibly invalid bucket.
func parseCaptureStamp(raw string) (CaptureDate, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "/", ":")
	fields := strings.Split(s, ":")
	if len(fields) < 2 {
		return CaptureDate{}, fmt.Errorf("timestamp has no year:month prefix: %q", raw)
	}

	year, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || year < 1000 || year > 9999 {
		return CaptureDate{}, fmt.Errorf("implausible year in timestamp: %q", raw)
	}

	month, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		logger.Warn("Unparseable month in timestamp", "timestamp", raw)
		return CaptureDate{Year: year, Raw: raw}, nil
	}

	return CaptureDate{Year: year, Month: month, Raw: raw}, nil
}

// DateResolver iterates through date sources until one succeeds.
type DateResolver struct {
	sources []dateSource
}

// NewDateResolver creates a DateResolver with the default fallback chain:
//
//   - exiftool metadata, when the external binary is available
//   - embedded EXIF via the pure-Go decoder
//   - file modification time
//
// et may be nil, in which case the exiftool source fails per call and the
// chain starts at the EXIF decoder.
func NewDateResolver(et *exiftool.Exiftool) *DateResolver {
	return &DateResolver{
		sources: []dateSource{
			newExiftoolSource(et),
			newExifDecodeSource(),
			newModTimeSource(),
		},
	}
}

// Resolve derives the capture date for a file. It never returns an error:
// metadata failures are treated as "no timestamp found" and handed to the
// next source, and if every source fails the date is Unknown.
func (r *DateResolver) Resolve(filePath string) CaptureDate {
	for _, source := range r.sources {
		date, err := source.resolve(filePath)
		if err == nil {
			return date
		}
		logger.Debug("Date source failed, trying next", "source", source.name(), "file", filepath.Base(filePath), "error", err)
	}
	return CaptureDate{}
}
