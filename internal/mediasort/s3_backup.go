package mediasort

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/acm19/media-sort/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Backup defines the interface for backing up and restoring the
// date-bucketed destination tree.
type S3Backup interface {
	// BackupBuckets archives every bucket directory under destRoot
	// (YYYY/MM-MonthName and unknown_date) and uploads each archive to S3,
	// skipping archives whose MD5 already matches the stored ETag.
	BackupBuckets(ctx context.Context, destRoot, bucket string, maxConcurrent int) error
	// RestoreBuckets downloads and extracts archives from S3 into
	// targetDir, restricted by the given date-range filter.
	RestoreBuckets(ctx context.Context, bucket, targetDir string, filter RestoreFilter, maxConcurrent int) error
}

// s3API is the slice of the S3 client used here, kept narrow for testing.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// s3Backup implements the S3Backup interface.
type s3Backup struct {
	client s3API
	stats  FileStats
}

// NewS3Backup creates a new S3Backup instance using the default AWS
// configuration chain.
func NewS3Backup(ctx context.Context) (S3Backup, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &s3Backup{
		client: s3.NewFromConfig(cfg),
		stats:  NewFileStats(),
	}, nil
}

const tempDirPrefix = "media-sort-backup"

// bucketKeyPattern matches archive keys like "2020/05-May (12 files).tar.gz".
var bucketKeyPattern = regexp.MustCompile(`^(\d{4})/(\d{2})-`)

// BackupBuckets archives each bucket directory in parallel.
func (b *s3Backup) BackupBuckets(ctx context.Context, destRoot, bucket string, maxConcurrent int) error {
	buckets, err := collectBucketDirs(destRoot)
	if err != nil {
		return err
	}
	if len(buckets) == 0 {
		logger.Info("No bucket directories found to backup", "root", destRoot)
		return nil
	}

	logger.Info("Starting S3 backup", "buckets", len(buckets), "s3Bucket", bucket, "concurrency", maxConcurrent)

	err = runWorkerPool(buckets, maxConcurrent, func(dir string) error {
		if err := b.backupBucketDir(ctx, destRoot, dir, bucket); err != nil {
			logger.Error("Failed to backup bucket directory", "directory", dir, "error", err)
			return fmt.Errorf("bucket %s: %w", dir, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Backup completed successfully", "buckets_backed_up", len(buckets))
	return nil
}

// collectBucketDirs lists the bucket directories under destRoot relative
// to it: unknown_date plus every MM-MonthName directory inside a
// four-digit year directory. Anything else in the tree is ignored.
func collectBucketDirs(destRoot string) ([]string, error) {
	entries, err := os.ReadDir(destRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", destRoot, err)
	}

	var buckets []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == unknownDateBucket {
			buckets = append(buckets, name)
			continue
		}
		if year, err := strconv.Atoi(name); err != nil || year < 1000 || year > 9999 {
			continue
		}
		months, err := os.ReadDir(filepath.Join(destRoot, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Join(destRoot, name), err)
		}
		for _, month := range months {
			if month.IsDir() {
				buckets = append(buckets, filepath.Join(name, month.Name()))
			}
		}
	}
	return buckets, nil
}

// backupBucketDir archives one bucket directory and uploads it.
func (b *s3Backup) backupBucketDir(ctx context.Context, destRoot, bucketDir, bucket string) error {
	dirPath := filepath.Join(destRoot, bucketDir)

	fileCount, err := b.stats.GetFileCount(dirPath)
	if err != nil {
		return fmt.Errorf("count files: %w", err)
	}

	s3Key := archiveKey(bucketDir, fileCount)

	tmpDir, cleanup, err := createTempDir(tempDirPrefix)
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer cleanup()

	archivePath := filepath.Join(tmpDir, filepath.Base(s3Key))
	logger.Info("Creating archive", "directory", bucketDir, "files", fileCount)

	if err := createTarGz(dirPath, archivePath); err != nil {
		return fmt.Errorf("create tar.gz: %w", err)
	}
	if err := isValidFile(archivePath); err != nil {
		return fmt.Errorf("archive %s: %w", archivePath, err)
	}

	localHash, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}

	headOutput, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(s3Key),
	})
	if err == nil {
		if extractETag(headOutput.ETag) == localHash {
			logger.Info("Archive already in S3 with matching hash, skipping", "key", s3Key)
			return nil
		}
		return fmt.Errorf("hash mismatch for %q: S3 object exists with different content (local: %s, remote: %s), manual intervention required",
			s3Key, localHash, extractETag(headOutput.ETag))
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("check S3 object existence: %w", err)
	}

	logger.Info("Uploading to S3", "bucket", bucket, "key", s3Key, "hash", localHash)
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(s3Key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("upload to S3: %w", err)
	}

	logger.Info("Successfully backed up bucket directory", "directory", bucketDir, "key", s3Key)
	return nil
}

// RestoreBuckets downloads matching archives and extracts each into its
// original bucket path under targetDir.
func (b *s3Backup) RestoreBuckets(ctx context.Context, bucket, targetDir string, filter RestoreFilter, maxConcurrent int) error {
	var keys []string
	var token *string
	for {
		out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil && matchesFilter(*obj.Key, filter) {
				keys = append(keys, *obj.Key)
			}
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	if len(keys) == 0 {
		logger.Info("No archives match the restore filter", "bucket", bucket)
		return nil
	}

	logger.Info("Starting S3 restore", "archives", len(keys), "target", targetDir, "concurrency", maxConcurrent)

	return runWorkerPool(keys, maxConcurrent, func(key string) error {
		if err := b.restoreArchive(ctx, bucket, key, targetDir); err != nil {
			logger.Error("Failed to restore archive", "key", key, "error", err)
			return fmt.Errorf("archive %s: %w", key, err)
		}
		return nil
	})
}

// restoreArchive downloads one archive and extracts it into the bucket
// directory the key encodes.
func (b *s3Backup) restoreArchive(ctx context.Context, bucket, key, targetDir string) error {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer out.Body.Close()

	destDir := filepath.Join(targetDir, bucketDirFromKey(key))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}

	logger.Info("Extracting archive", "key", key, "into", destDir)
	return extractTarGz(out.Body, destDir)
}

// archiveKey builds the S3 key for a bucket directory, embedding the file
// count so archives are self-describing in bucket listings.
func archiveKey(bucketDir string, fileCount int) string {
	return fmt.Sprintf("%s (%d files).tar.gz", filepath.ToSlash(bucketDir), fileCount)
}

// bucketDirFromKey strips the file-count suffix and extension from an
// archive key, recovering the bucket directory it was created from.
func bucketDirFromKey(key string) string {
	name := strings.TrimSuffix(key, ".tar.gz")
	if idx := strings.LastIndex(name, " ("); idx != -1 && strings.HasSuffix(name, ")") {
		name = name[:idx]
	}
	return filepath.FromSlash(name)
}

// matchesFilter reports whether an archive key falls inside the filter's
// year/month range. Keys that do not encode a year/month bucket (including
// unknown_date) only match an unbounded filter.
func matchesFilter(key string, filter RestoreFilter) bool {
	unbounded := filter.FromYear == 0 && filter.ToYear == 0

	if strings.HasPrefix(key, unknownDateBucket) {
		return unbounded
	}

	m := bucketKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	ym := year*100 + month

	if filter.FromYear != 0 {
		fromMonth := filter.FromMonth
		if fromMonth == 0 {
			fromMonth = 1
		}
		if ym < filter.FromYear*100+fromMonth {
			return false
		}
	}
	if filter.ToYear != 0 {
		toMonth := filter.ToMonth
		if toMonth == 0 {
			toMonth = 12
		}
		if ym > filter.ToYear*100+toMonth {
			return false
		}
	}
	return true
}

// extractETag returns the ETag value without surrounding quotes.
func extractETag(etag *string) string {
	if etag == nil {
		return ""
	}
	return strings.Trim(*etag, `"`)
}

// isNotFoundError checks if the error is an S3 NotFound error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return true
	}

	return false
}

// isValidFile checks if a file exists and is not empty (0 bytes).
func isValidFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is 0 bytes (corrupted)")
	}
	return nil
}

// createTempDir creates a unique temporary directory and returns it with
// a cleanup function.
func createTempDir(prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Error("Failed to remove temporary directory", "path", dir, "error", err)
		}
	}
	return dir, cleanup, nil
}

// runWorkerPool runs fn over jobs with the given number of workers and
// reports how many jobs failed.
func runWorkerPool[T any](jobs []T, workers int, fn func(T) error) error {
	if len(jobs) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	jobChan := make(chan T, len(jobs))
	results := make(chan error, len(jobs))
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				results <- fn(job)
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	wg.Wait()
	close(results)

	failed := 0
	for err := range results {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}

// createTarGz creates a tar.gz archive of a directory, with entry names
// relative to it.
func createTarGz(sourceDir, targetFile string) error {
	file, err := os.Create(targetFile)
	if err != nil {
		return err
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tarWriter, f)
		return err
	})
}

// extractTarGz unpacks a tar.gz stream into destDir, refusing entries
// that would escape it.
func extractTarGz(r io.Reader, destDir string) error {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !isWithin(destDir, target) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tarReader); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
	}
}
