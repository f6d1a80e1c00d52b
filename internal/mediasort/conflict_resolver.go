package mediasort

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ConflictResolver decides what to do with a source file given its
// destination directory. Decisions are pure values; nothing here mutates
// the filesystem beyond reading it.
type ConflictResolver interface {
	// Decide computes the action for sourceFile landing in destDir.
	Decide(sourceFile, destDir string, force bool) Decision
}

// conflictResolver implements the ConflictResolver interface.
type conflictResolver struct{}

// NewConflictResolver creates a new ConflictResolver instance.
func NewConflictResolver() ConflictResolver {
	return &conflictResolver{}
}

// Decide applies the collision decision table. Content identity is always
// settled by hashing both files in full, never by size or mtime, so
// metadata-only differences cannot cause a false duplicate match.
func (r *conflictResolver) Decide(sourceFile, destDir string, force bool) Decision {
	d := Decision{Source: sourceFile, DestDir: destDir}

	destFile := filepath.Join(destDir, filepath.Base(sourceFile))
	destInfo, err := os.Stat(destFile)
	if errors.Is(err, fs.ErrNotExist) {
		d.Action = Move
		return d
	}
	if err != nil {
		return fail(d, fmt.Errorf("stat %s: %w", destFile, err))
	}

	// Name collision from here on.
	d.Duplicate = true

	srcInfo, err := os.Stat(sourceFile)
	if err != nil {
		return fail(d, fmt.Errorf("stat %s: %w", sourceFile, err))
	}

	// Source and destination are the same file: it is the only copy, so
	// never delete it. Degrade to a reported no-op.
	if os.SameFile(srcInfo, destInfo) {
		d.Action = SkipReport
		d.HashesEqual = true
		d.SamePath = true
		return d
	}

	equal, err := r.contentsEqual(sourceFile, destFile)
	if err != nil {
		return fail(d, err)
	}
	d.HashesEqual = equal

	if !force {
		d.Action = SkipReport
		return d
	}

	if equal {
		d.Action = OverwriteDeleteSource
		return d
	}

	newName, err := r.disambiguate(destDir, filepath.Base(sourceFile))
	if err != nil {
		return fail(d, err)
	}
	d.Action = RenameAndMove
	d.NewName = newName
	return d
}

func fail(d Decision, cause error) Decision {
	d.Action = Fail
	d.Cause = cause
	return d
}

// contentsEqual compares the whole-file MD5 digests of both files.
func (r *conflictResolver) contentsEqual(a, b string) (bool, error) {
	hashA, err := hashFile(a)
	if err != nil {
		return false, err
	}
	hashB, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return hashA == hashB, nil
}

// hashFile calculates the MD5 hash of a file's full content.
func hashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", filePath, err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", filePath, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// disambiguate finds a free basename in destDir by inserting a numeric
// suffix before the extension: photo.jpg becomes photo_1.jpg, then
// photo_2.jpg, and so on until a name does not exist yet.
func (r *conflictResolver) disambiguate(destDir, base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d%s", stem, i, ext)
		_, err := os.Stat(filepath.Join(destDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", filepath.Join(destDir, name), err)
		}
	}
}
