package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/acm19/media-sort/internal/logger"
	"github.com/acm19/media-sort/internal/mediasort"
	"github.com/barasher/go-exiftool"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "media-sort",
	Short: "Relocate media files into year/month directories",
	Long: `Media-sort moves photos and videos from a source tree into
<destination>/<YYYY>/<MM-MonthName>/ buckets, deriving the date from
embedded capture metadata with a fallback to the file modification time.
Name collisions are settled by MD5 content comparison: identical copies
are deduplicated, differing ones renamed, and nothing is overwritten.`,
	Version: version,
	RunE:    runSort,
}

var backupCmd = &cobra.Command{
	Use:   "backup DEST_ROOT BUCKET",
	Short: "Backup bucket directories to S3",
	Long:  `Creates a tar.gz archive of each year/month bucket directory and uploads it to S3, skipping archives already stored with a matching MD5 hash.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore BUCKET TARGET_DIR",
	Short: "Restore bucket directories from S3",
	Long:  `Downloads and extracts backup archives from S3 into their original bucket paths, with optional date-range filtering.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runRestore,
}

var (
	sourceDir     string
	destRoot      string
	force         bool
	dryRun        bool
	maxConcurrent int
	fromFilter    string
	toFilter      string
)

func init() {
	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "Source directory to relocate files from")
	rootCmd.Flags().StringVarP(&destRoot, "destination", "d", "", "Destination root for the year/month buckets")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Delete or rename on name collisions instead of skipping")
	rootCmd.Flags().BoolVarP(&dryRun, "test", "t", false, "Dry run: report decisions without touching the filesystem")
	rootCmd.MarkFlagRequired("source")
	rootCmd.MarkFlagRequired("destination")

	backupCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "c", 5, "Maximum concurrent operations")

	restoreCmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "c", 5, "Maximum concurrent operations")
	restoreCmd.Flags().StringVar(&fromFilter, "from", "", "Lower bound in format YYYY or MM/YYYY")
	restoreCmd.Flags().StringVar(&toFilter, "to", "", "Upper bound in format YYYY or MM/YYYY")

	rootCmd.AddCommand(backupCmd, restoreCmd)

	// Long flags are case-insensitive: --Source and --SOURCE both work.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})
}

func main() {
	rootCmd.SetArgs(rewriteHelpAlias(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rewriteHelpAlias maps the conventional "-?" to cobra's help flag.
func rewriteHelpAlias(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg == "-?" {
			arg = "--help"
		}
		out[i] = arg
	}
	return out
}

func runSort(cmd *cobra.Command, args []string) error {
	et, err := exiftool.NewExiftool()
	if err != nil {
		logger.Warn("Exiftool unavailable, relying on embedded EXIF and file times", "error", err)
		et = nil
	} else {
		defer et.Close()
	}

	organiser := mediasort.NewMediaOrganiser(et, os.Stdout)
	tally, err := organiser.Organise(sourceDir, mediasort.Options{
		DestRoot: destRoot,
		Force:    force,
		DryRun:   dryRun,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, tally.Render())
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	root := args[0]
	bucket := args[1]

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("destination root is not a valid directory: %s", root)
	}

	ctx := context.Background()
	backup, err := mediasort.NewS3Backup(ctx)
	if err != nil {
		return err
	}

	return backup.BackupBuckets(ctx, root, bucket, maxConcurrent)
}

func runRestore(cmd *cobra.Command, args []string) error {
	bucket := args[0]
	targetDir := args[1]

	var filter mediasort.RestoreFilter
	if fromFilter != "" {
		year, month, err := parseYearMonth(fromFilter)
		if err != nil {
			return fmt.Errorf("invalid --from value %q: %w", fromFilter, err)
		}
		filter.FromYear = year
		filter.FromMonth = month
	}
	if toFilter != "" {
		year, month, err := parseYearMonth(toFilter)
		if err != nil {
			return fmt.Errorf("invalid --to value %q: %w", toFilter, err)
		}
		filter.ToYear = year
		filter.ToMonth = month
	}

	if info, err := os.Stat(targetDir); err != nil || !info.IsDir() {
		return fmt.Errorf("target is not a valid directory: %s", targetDir)
	}

	ctx := context.Background()
	backup, err := mediasort.NewS3Backup(ctx)
	if err != nil {
		return err
	}

	return backup.RestoreBuckets(ctx, bucket, targetDir, filter, maxConcurrent)
}

// parseYearMonth parses a date string in format "YYYY" or "MM/YYYY".
// Returns (year, month, error). Month is 0 if not specified.
func parseYearMonth(s string) (int, int, error) {
	parts := strings.Split(s, "/")

	switch len(parts) {
	case 1:
		year, err := strconv.Atoi(parts[0])
		if err != nil || year < 1000 || year > 9999 {
			return 0, 0, fmt.Errorf("invalid year: %s", parts[0])
		}
		return year, 0, nil
	case 2:
		month, err := strconv.Atoi(parts[0])
		if err != nil || month < 1 || month > 12 {
			return 0, 0, fmt.Errorf("invalid month (must be 1-12): %s", parts[0])
		}
		year, err := strconv.Atoi(parts[1])
		if err != nil || year < 1000 || year > 9999 {
			return 0, 0, fmt.Errorf("invalid year: %s", parts[1])
		}
		return year, month, nil
	}

	return 0, 0, fmt.Errorf("invalid format (expected YYYY or MM/YYYY): %s", s)
}
