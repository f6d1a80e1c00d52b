package mediasort

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// minTrustedYear is the oldest capture year treated as reliable.
	// Bogus EXIF data often carries epoch-era years, so anything earlier
	// is bucketed as unknown.
	minTrustedYear = 1995
	// unknownDateBucket is the bucket for files with no trusted date.
	unknownDateBucket = "unknown_date"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// NormaliseDestRoot cleans a destination root for use as a bucket prefix:
// a leading "./" and trailing slashes are stripped, an empty root means the
// current directory, and the filesystem root is rejected outright.
func NormaliseDestRoot(root string) (string, error) {
	r := strings.TrimPrefix(root, "./")
	for len(r) > 1 && strings.HasSuffix(r, "/") {
		r = strings.TrimSuffix(r, "/")
	}
	if r == "/" {
		return "", fmt.Errorf("destination must not be the filesystem root: %s", root)
	}
	if r == "" {
		r = "."
	}
	return r, nil
}

// Bucket returns the destination subdirectory for a capture date. Dates
// older than minTrustedYear or unresolved dates fall into the unknown
// bucket regardless of month. An out-of-range month renders a visibly
// invalid segment so miscategorised files stand out to the operator.
func Bucket(d CaptureDate) string {
	if d.Unknown() || d.Year < minTrustedYear {
		return unknownDateBucket
	}
	name := "Unknown"
	if d.MonthValid() {
		name = monthNames[d.Month-1]
	}
	return filepath.Join(strconv.Itoa(d.Year), fmt.Sprintf("%02d-%s", d.Month, name))
}

// BucketPath joins a normalised destination root with the bucket for the
// given date. A root of "." means the current directory.
func BucketPath(root string, d CaptureDate) string {
	return filepath.Join(root, Bucket(d))
}
