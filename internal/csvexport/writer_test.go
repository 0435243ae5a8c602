package csvexport

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configllm/internal/domain"
)

func sampleAttempt(succeeded bool) domain.AttemptResult {
	r := domain.AttemptResult{
		WorkItem: domain.WorkItem{
			FilePath:        "/files/report.pdf",
			FileName:        "report.pdf",
			ContentHash:     "d41d8cd98f00b204e9800998ecf8427e",
			Iteration:       2,
			TotalIterations: 3,
		},
		Provider:       domain.ProviderClaude,
		ModelID:        "claude-3-7-sonnet-20250219",
		ResultText:     "All good",
		Succeeded:      succeeded,
		OutputFilePath: "/out/outputs/output_report.pdf_d41d8cd9_iter2_20250115_103000.txt",
		Timestamp:      time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	if !succeeded {
		r.ResultText = "Error: API returned status 500: boom"
		r.ErrorMessage = r.ResultText
	}
	return r
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	assert.Len(t, row, 9)
	assert.Equal(t, "Timestamp", row[0])
	assert.Equal(t, "MD5_Hash", row[2])
	assert.Equal(t, "Error", row[8])
}

func TestAttemptRow_Succeeded(t *testing.T) {
	r := sampleAttempt(true)
	row := AttemptRow(&r)

	assert.Equal(t, []string{
		"2025-01-15 10:30:00",
		"report.pdf",
		"d41d8cd98f00b204e9800998ecf8427e",
		"2",
		"claude",
		"claude-3-7-sonnet-20250219",
		"All good",
		"/out/outputs/output_report.pdf_d41d8cd9_iter2_20250115_103000.txt",
		"",
	}, row)
}

func TestAttemptRow_Failed(t *testing.T) {
	r := sampleAttempt(false)
	row := AttemptRow(&r)

	assert.Equal(t, "Error: API returned status 500: boom", row[6])
	assert.Equal(t, "Error: API returned status 500: boom", row[8])
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "line one line two", Snippet("line one\n\nline two  "))

	long := strings.Repeat("é", 150)
	s := Snippet(long)
	assert.Equal(t, SnippetLength, len([]rune(s)))
	assert.True(t, strings.HasSuffix(s, "..."))
}

func TestAppendSummary_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processing_log.csv")

	ok := sampleAttempt(true)
	bad := sampleAttempt(false)
	require.NoError(t, AppendSummary(path, &ok))
	require.NoError(t, AppendSummary(path, &bad))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, BOM))
	assert.Equal(t, 1, bytes.Count(data, BOM))

	header, rows, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, SummaryColumns, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0][8])
	assert.Equal(t, "Error: API returned status 500: boom", rows[1][8])
}

func TestAppendSummary_ExistingLogNotReheadered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processing_log.csv")
	require.NoError(t, os.WriteFile(path, []byte("Timestamp,Filename\n"), 0o644))

	r := sampleAttempt(true)
	require.NoError(t, AppendSummary(path, &r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "Timestamp"))
	assert.False(t, bytes.HasPrefix(data, BOM))
}

func TestAppendSummary_BadDirectory(t *testing.T) {
	r := sampleAttempt(true)
	err := AppendSummary(filepath.Join(t.TempDir(), "missing", "log.csv"), &r)
	assert.Error(t, err)
}

func TestWriteTable_PadsShortRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteTable([]string{"a", "b", "c"}, [][]string{{"1"}, {"1", "2", "3"}}))
	w.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "", ""}, {"1", "2", "3"}}, records)
}

func TestReadTable_Missing(t *testing.T) {
	_, _, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Merged LLM Table", "Merged_LLM_Table"},
		{"special chars", "run 2025-01 / batch (A–B)", "run_2025-01_batch_A_B"},
		{"hyphens and underscores preserved", "my-run_2025", "my-run_2025"},
		{"consecutive underscores collapsed", "test___run", "test_run"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{
			"long name truncated",
			"abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-extra",
			"abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrstuvwxyz-abcdefghijklmnopqrs",
		},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	filename := BuildFilename("merged llm table", "xlsx")
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, "merged_llm_table_"+today+".xlsx", filename)
}
