package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

var fixedNow = time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "logs"), filepath.Join(root, "archive"))
	fm.Now = func() time.Time { return fixedNow }
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func TestAtomicWriteFile_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dashboard_summary.json")

	require.NoError(t, AtomicWriteFile(path, []byte(`{"a":1}`), 0o644))
	require.NoError(t, AtomicWriteFile(path, []byte(`{"a":2}`), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestAtomicWriteFile_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "x"), nil, 0o644))

	err := AtomicWriteFile(target, []byte("data"), 0o644)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed after a failed rename")
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(src, []byte("Order ID\n"), 0o644))

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "train.csv"), archived)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(archived))

	require.NoError(t, os.WriteFile(src, []byte("Order ID\n"), 0o644))
	archived, err = fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "train_20240115_143022.csv"), archived)
}

func TestArchiveInputFile_TimestampSubdirs(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true
	src := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "2024", "01", "15", "orders.xlsx"), archived)
}

func TestArchiveInputFile_Disabled(t *testing.T) {
	fm := NewFileManager("", "")
	got, err := fm.ArchiveInputFile("train.csv")
	require.NoError(t, err)
	assert.Equal(t, "train.csv", got)
}

func TestWriteRejectLog(t *testing.T) {
	fm := newTestManager(t)
	rejects := []types.Rejection{
		{Row: 3, OrderID: "CA-1", Value: "31/13/2021", Reason: "unparseable order date"},
		{Row: 9, OrderID: "CA-2", Value: "", Reason: "empty order date"},
	}

	path, err := fm.WriteRejectLog("1b4e28ba-2fa1-11d2-883f-0016d3cca427", rejects)
	require.NoError(t, err)
	assert.Equal(t, "rejected_rows_20240115_143022_1b4e28ba.csv", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		RejectLogHeader,
		{"3", "CA-1", "31/13/2021", "unparseable order date"},
		{"9", "CA-2", "", "empty order date"},
	}, rows)

	path, err = fm.WriteRejectLog("run", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestWriteSummaryLog(t *testing.T) {
	fm := newTestManager(t)
	path, err := fm.WriteSummaryLog(ProcessingSummary{
		RunID:         "abcd-ef",
		SourceFile:    "train.csv",
		StartTime:     fixedNow,
		EndTime:       fixedNow.Add(1500 * time.Millisecond),
		RowsRead:      10,
		RowsDropped:   1,
		Products:      4,
		SalesInserted: 9,
		Error:         "ingest: boom",
	})
	require.NoError(t, err)
	assert.Equal(t, "processing_summary_20240115_143022_abcd.txt", filepath.Base(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "Status:         FAILED")
	assert.Contains(t, text, "Duration:       1.5s")
	assert.Contains(t, text, "Rows Dropped:       1")
	assert.True(t, strings.HasSuffix(text, "End of Summary\n"))
}

func TestGenerateLogFileName(t *testing.T) {
	got := GenerateLogFileName("{date}_{kind}_{uuid}.log", map[string]string{"kind": "rejects"}, fixedNow)
	assert.True(t, strings.HasPrefix(got, "20240115_rejects_"))
	assert.Len(t, got, len("20240115_rejects_.log")+36)
}
