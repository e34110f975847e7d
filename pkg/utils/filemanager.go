// =============================================================================
// Retail ETL - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a pipeline run:
//   - Atomic artifact writes (temp file + fsync + rename)
//   - Reject logs (CSV of rows dropped by validation)
//   - Processing summary logs
//   - Archival of the ingested source file
//
// ARCHIVAL STRATEGY:
//   - The source file is moved to the archive directory after a successful run
//   - A name already present in the archive gets the run timestamp appended
//   - Failed runs leave the source in place so it can be fixed and re-run
//
// =============================================================================

package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the files written or moved around a run.
type FileManager struct {
	// LogDir is where reject logs and processing summaries are written.
	LogDir string

	// ArchiveDir is where the source file is moved after a successful run.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/train.csv
	UseTimestampSubdirs bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a FileManager. Empty directories disable the
// corresponding feature.
func NewFileManager(logDir, archiveDir string) *FileManager {
	return &FileManager{
		LogDir:     logDir,
		ArchiveDir: archiveDir,
		Now:        time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// EnsureDirectories creates the configured directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.LogDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// AtomicWriteFile writes data to path so that readers see either the old
// file or the complete new one, never a partial write.
//
// PARAMETERS:
//   - path: The destination file.
//   - data: The full file contents.
//   - perm: The permission bits of the new file.
//
// RETURNS:
//   - An error if any step fails; the temp file is removed in that case.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	fail := func(format string, err error) error {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf(format, path, err)
	}

	if _, err := f.Write(data); err != nil {
		return fail("failed to write %s: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fail("failed to sync %s: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves the source file to the archive directory.
//
// RETURNS:
//   - The path to the archived file, or filePath unchanged when archival is
//     disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs a free archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	now := fm.now()
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	name := filepath.Base(filePath)
	path := filepath.Join(dir, name)
	if !FileExists(path) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, now.Format("20060102_150405"), ext))
}

// =============================================================================
// LOG FILE NAMING
// =============================================================================

// GenerateLogFileName generates a log file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {uuid}      - A random UUID
//               any key of params, e.g. {run}
//   - params: A map of placeholder values.
//   - now: The time used for the timestamp placeholders.
//
// EXAMPLE:
//   format: "rejected_rows_{timestamp}_{run}.csv"
//   params: {"run": "1b4e28ba"}
//   output: "rejected_rows_20240115_143022_1b4e28ba.csv"
func GenerateLogFileName(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.NewString()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// shortRunID returns the first block of a uuid run id.
func shortRunID(runID string) string {
	if i := strings.IndexByte(runID, '-'); i > 0 {
		return runID[:i]
	}
	return runID
}

// =============================================================================
// REJECT LOG
// =============================================================================

// RejectLogHeader is the header row of a reject log.
var RejectLogHeader = []string{"row", "order_id", "order_date", "reason"}

// WriteRejectLog writes the rows dropped by validation as CSV.
//
// RETURNS:
//   - The path to the reject log, or "" when there is nothing to write or
//     no log directory is configured.
//   - An error if writing fails.
func (fm *FileManager) WriteRejectLog(runID string, rejects []types.Rejection) (string, error) {
	if fm.LogDir == "" || len(rejects) == 0 {
		return "", nil
	}

	name := GenerateLogFileName("rejected_rows_{timestamp}_{run}.csv",
		map[string]string{"run": shortRunID(runID)}, fm.now())
	path := filepath.Join(fm.LogDir, name)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(RejectLogHeader); err != nil {
		return "", err
	}
	for _, r := range rejects {
		if err := w.Write([]string{strconv.Itoa(r.Row), r.OrderID, r.Value, r.Reason}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to encode reject log: %w", err)
	}

	if err := AtomicWriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write reject log: %w", err)
	}
	return path, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID       string
	SourceFile  string
	ArchivePath string
	SummaryPath string
	RejectLog   string
	DryRun      bool

	StartTime time.Time
	EndTime   time.Time

	RowsRead         int
	RowsDropped      int
	Products         int
	SalesInserted    int
	SalesSkipped     int
	SalesRepeated    int
	QuantitiesFilled int
	ProfitsFilled    int

	// Error is the failure message of a failed run.
	Error string
}

// WriteSummaryLog writes a processing summary to the log directory.
//
// RETURNS:
//   - The path to the summary file, or "" when no log directory is set.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	if fm.LogDir == "" {
		return "", nil
	}

	name := GenerateLogFileName("processing_summary_{timestamp}_{run}.txt",
		map[string]string{"run": shortRunID(summary.RunID)}, fm.now())
	path := filepath.Join(fm.LogDir, name)

	status := "SUCCESS"
	if summary.Error != "" {
		status = "FAILED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Retail ETL - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Status:         %s\n"+
		"  Dry Run:        %t\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n",
		summary.RunID,
		status,
		summary.DryRun,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String())

	fmt.Fprintf(&b, "Files:\n"+
		"  Source:         %s\n", summary.SourceFile)
	if summary.ArchivePath != "" {
		fmt.Fprintf(&b, "  Archived To:    %s\n", summary.ArchivePath)
	}
	if summary.SummaryPath != "" {
		fmt.Fprintf(&b, "  Dashboard JSON: %s\n", summary.SummaryPath)
	}
	if summary.RejectLog != "" {
		fmt.Fprintf(&b, "  Reject Log:     %s\n", summary.RejectLog)
	}

	fmt.Fprintf(&b, "\nStatistics:\n"+
		"  Rows Read:          %d\n"+
		"  Rows Dropped:       %d\n"+
		"  Quantities Filled:  %d\n"+
		"  Profits Filled:     %d\n"+
		"  Products Upserted:  %d\n"+
		"  Sales Inserted:     %d\n"+
		"  Sales Skipped:      %d\n"+
		"  Sales Repeated:     %d\n",
		summary.RowsRead,
		summary.RowsDropped,
		summary.QuantitiesFilled,
		summary.ProfitsFilled,
		summary.Products,
		summary.SalesInserted,
		summary.SalesSkipped,
		summary.SalesRepeated)

	if summary.Error != "" {
		fmt.Fprintf(&b, "\nError:\n  %s\n", summary.Error)
	}

	b.WriteString("\n================================================================================\n" +
		"End of Summary\n")

	if err := AtomicWriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
