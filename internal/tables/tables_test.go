package tables_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"configllm/internal/audit"
	"configllm/internal/csvexport"
	"configllm/internal/domain"
	"configllm/internal/tables"
)

func block(file, md5, iter, model, body string) string {
	r := domain.AttemptResult{
		WorkItem:   domain.WorkItem{FileName: file, ContentHash: md5, Iteration: atoi(iter)},
		Provider:   domain.ProviderClaude,
		ModelID:    model,
		ResultText: body,
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return audit.TranscriptBlock(&r)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func TestParseTranscript_Sections(t *testing.T) {
	content := "stray preamble" + block("a.txt", "aaa", "1", "m1", "body one") + block("b.txt", "bbb", "2", "m2", "body two")

	sections := tables.ParseTranscript(content)

	require.Len(t, sections, 3)
	assert.Equal(t, "N/A", sections[0].ModelID)
	assert.Equal(t, "a.txt", sections[1].FileName)
	assert.Equal(t, "aaa", sections[1].MD5)
	assert.Equal(t, "1", sections[1].Iteration)
	assert.Equal(t, "claude", sections[1].Provider)
	assert.Equal(t, "\n\nbody one\n\n", sections[1].Body[:len("\n\nbody one\n\n")])
	assert.Equal(t, "m2", sections[2].ModelID)
	assert.Equal(t, "\n\nbody two", sections[2].Body)
}

func TestParseTranscript_NoHeaders(t *testing.T) {
	sections := tables.ParseTranscript("```csv\na,b\n1,2\n```")
	require.Len(t, sections, 1)
	assert.Equal(t, "N/A", sections[0].MD5)

	assert.Empty(t, tables.ParseTranscript("  \n"))
}

func TestExtractTables(t *testing.T) {
	body := "Here:\n```csv\nName, \"Score\"\nalice,10\nbob\n```\nprose\n```\nonly one line\n```\n```\nx\ty\n1\t2\n```"
	got := tables.ExtractTables([]tables.Section{{ModelID: "m", MD5: "h", Iteration: "3", Body: body}})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"Name", "Score"}, got[0].Header)
	assert.Equal(t, [][]string{{"alice", "10"}, {"bob", ""}}, got[0].Rows)
	assert.Equal(t, "3", got[0].Iteration)
	assert.Equal(t, []string{"x", "y"}, got[1].Header)
	assert.Equal(t, [][]string{{"1", "2"}}, got[1].Rows)
}

func TestExtractTables_SkipsBlocksWithoutSeparator(t *testing.T) {
	got := tables.ExtractTables([]tables.Section{{Body: "```\nplain\ntext\n```"}})
	assert.Empty(t, got)
}

func TestMerge_UnionOfHeaders(t *testing.T) {
	m := tables.Merge([]tables.Table{
		{ModelID: "m1", MD5: "h1", Iteration: "1", Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
		{ModelID: "m2", MD5: "h2", Iteration: "2", Header: []string{"b", "c", "MODEL_ID"}, Rows: [][]string{{"3", "4", "ignored"}}},
	})

	assert.Equal(t, []string{"a", "b", "c", "MODEL_ID", "MD5_Hash", "Iteration_Num"}, m.Header)
	assert.Equal(t, [][]string{
		{"1", "2", "", "m1", "h1", "1"},
		{"", "3", "4", "m2", "h2", "2"},
	}, m.Rows)
	assert.Equal(t, 2, m.SourceTables)
}

func TestBuild_FromTranscript(t *testing.T) {
	content := block("a.txt", "aaa", "1", "m1", "```csv\nk,v\nx,1\n```") +
		block("a.txt", "aaa", "2", "m1", "no tables here") +
		block("b.txt", "bbb", "1", "m2", "```csv\nk,w\ny,2\n```")

	m := tables.Build(content)

	assert.Equal(t, []string{"k", "v", "w", "MODEL_ID", "MD5_Hash", "Iteration_Num"}, m.Header)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, []string{"y", "", "2", "m2", "bbb", "1"}, m.Rows[1])
}

func TestLoad_MissingTranscript(t *testing.T) {
	m, err := tables.Load(filepath.Join(t.TempDir(), "merged_output.txt"))
	require.NoError(t, err)
	assert.True(t, m.Empty())
	assert.Equal(t, []string{"MODEL_ID", "MD5_Hash", "Iteration_Num"}, m.Header)
}

func TestWriteCSV(t *testing.T) {
	m := tables.Build(block("a.txt", "aaa", "1", "m1", "```csv\nk,v\nx,1\n```"))

	var buf bytes.Buffer
	require.NoError(t, tables.WriteCSV(&buf, m))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), csvexport.BOM))
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), csvexport.BOM))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"k", "v", "MODEL_ID", "MD5_Hash", "Iteration_Num"},
		{"x", "1", "m1", "aaa", "1"},
	}, records)
}

func TestWriteXLSX_WithSummary(t *testing.T) {
	dir := t.TempDir()
	l := audit.NewLogger(audit.Options{OutputDir: dir})
	l.Record(context.Background(), audit.Entry{
		Item:       domain.WorkItem{FileName: "a.txt", ContentHash: "aaa", Iteration: 1},
		Provider:   domain.ProviderClaude,
		ModelID:    "m1",
		ResultText: "```csv\nk,v\nx,1\n```",
		Succeeded:  true,
	})

	m, err := tables.Load(l.TranscriptPath())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tables.WriteXLSX(&buf, m, l.SummaryPath()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(tables.SheetTables)
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "v", "MODEL_ID", "MD5_Hash", "Iteration_Num"}, rows[0])
	assert.Equal(t, []string{"x", "1", "m1", "aaa", "1"}, rows[1])

	summary, err := f.GetRows(tables.SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, csvexport.SummaryColumns, summary[0])
}

func TestWriteXLSX_NoSummaryLog(t *testing.T) {
	var buf bytes.Buffer
	err := tables.WriteXLSX(&buf, tables.Merge(nil), filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{tables.SheetTables}, f.GetSheetList())
}

func TestExport_UnknownFormat(t *testing.T) {
	err := tables.Export(&bytes.Buffer{}, tables.Merge(nil), "pdf", "")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestLoad_ReadError(t *testing.T) {
	dir := t.TempDir()
	_, err := tables.Load(dir)
	assert.Error(t, err)
	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr)
}
