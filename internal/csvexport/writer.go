package csvexport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"configllm/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// SummaryColumns is the header row of the processing summary log.
var SummaryColumns = []string{
	"Timestamp",
	"Filename",
	"MD5_Hash",
	"Iteration_Num",
	"API_Type",
	"Model_ID",
	"Result_Snippet",
	"Output_File_Path",
	"Error",
}

// SnippetLength is the maximum number of characters kept in Result_Snippet.
const SnippetLength = 100

// TimestampLayout formats attempt timestamps in the summary log and transcript.
const TimestampLayout = "2006-01-02 15:04:05"

// Writer wraps csv.Writer for the summary log and table exports.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the summary log header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(SummaryColumns)
}

// WriteAttempts converts attempt results to summary rows and writes them.
func (w *Writer) WriteAttempts(results []domain.AttemptResult) error {
	for i := range results {
		if err := w.csv.Write(AttemptRow(&results[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes a header row followed by rows. Short rows are padded
// to the header width.
func (w *Writer) WriteTable(header []string, rows [][]string) error {
	if err := w.csv.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// AttemptRow converts a single attempt result to a summary row.
// Failed attempts carry their error message in the Error column.
func AttemptRow(r *domain.AttemptResult) []string {
	row := make([]string, len(SummaryColumns))
	row[0] = r.Timestamp.UTC().Format(TimestampLayout)
	row[1] = r.WorkItem.FileName
	row[2] = r.WorkItem.ContentHash
	row[3] = strconv.Itoa(r.WorkItem.Iteration)
	row[4] = string(r.Provider)
	row[5] = r.ModelID
	row[6] = Snippet(r.ResultText)
	row[7] = r.OutputFilePath
	if !r.Succeeded {
		row[8] = r.ErrorMessage
		if row[8] == "" {
			row[8] = r.ResultText
		}
	}
	return row
}

// Snippet flattens line breaks and truncates s to SnippetLength characters.
func Snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= SnippetLength {
		return s
	}
	r := []rune(s)
	return string(r[:SnippetLength-3]) + "..."
}

// AppendSummary appends one row to the summary log at path. A missing or
// empty file gets the BOM and header row first; an existing log is only
// appended to.
func AppendSummary(path string, r *domain.AttemptResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening summary log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat summary log: %w", err)
	}

	bw := bufio.NewWriter(f)
	w := NewWriter(bw)
	if info.Size() == 0 {
		if _, err := bw.Write(BOM); err != nil {
			return fmt.Errorf("writing summary log BOM: %w", err)
		}
		if err := w.WriteHeader(); err != nil {
			return fmt.Errorf("writing summary log header: %w", err)
		}
	}
	if err := w.csv.Write(AttemptRow(r)); err != nil {
		return fmt.Errorf("writing summary log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing summary log: %w", err)
	}
	return bw.Flush()
}

// ReadTable reads a CSV file, dropping a leading BOM, and returns the header
// row and the data rows. Rows may have fewer fields than the header.
func ReadTable(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in artifact file names and
// Content-Disposition. Replaces non-alphanumeric chars (except - _) with _,
// collapses consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized download name.
// Format: {sanitized_base}_{YYYY-MM-DD}.{ext}
func BuildFilename(base, ext string) string {
	sanitized := SanitizeFilename(base)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
