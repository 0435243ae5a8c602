// Package tables pulls CSV code blocks out of the cumulative transcript and
// merges them into one exportable table.
package tables

import (
	"encoding/csv"
	"regexp"
	"strings"
)

// Columns appended to every merged table.
const (
	ColumnModelID   = "MODEL_ID"
	ColumnMD5       = "MD5_Hash"
	ColumnIteration = "Iteration_Num"
)

const unknown = "N/A"

var sectionHeader = regexp.MustCompile(
	`={50}\nFILE: (.*)\nMD5: (.*)\nITERATION: (.*)\nTIMESTAMP: (.*)\nAPI_TYPE: (.*)\nMODEL_ID: (.*)\n={50}`)

// Section is one attempt block of the transcript.
type Section struct {
	FileName  string
	MD5       string
	Iteration string
	Timestamp string
	Provider  string
	ModelID   string
	Body      string
}

// Table is one CSV code block found in a section body.
type Table struct {
	ModelID   string
	MD5       string
	Iteration string
	Header    []string
	Rows      [][]string
}

// ParseTranscript splits transcript content into sections. Text before the
// first header, or a transcript with no headers at all, becomes a section
// with N/A metadata.
func ParseTranscript(content string) []Section {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	matches := sectionHeader.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []Section{untagged(content)}
	}

	var sections []Section
	if lead := content[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		sections = append(sections, untagged(lead))
	}
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		group := func(n int) string { return strings.TrimSpace(content[m[2*n]:m[2*n+1]]) }
		sections = append(sections, Section{
			FileName:  group(1),
			MD5:       group(2),
			Iteration: group(3),
			Timestamp: group(4),
			Provider:  group(5),
			ModelID:   group(6),
			Body:      content[m[1]:end],
		})
	}
	return sections
}

func untagged(body string) Section {
	return Section{
		FileName:  unknown,
		MD5:       unknown,
		Iteration: unknown,
		Timestamp: unknown,
		Provider:  unknown,
		ModelID:   unknown,
		Body:      body,
	}
}

// ExtractTables returns every well-formed table in each section body.
// A block qualifies when it is fenced with ``` (optionally ```csv), has a
// header line and at least one data row, and its first line contains a comma
// or a tab.
func ExtractTables(sections []Section) []Table {
	var tables []Table
	for _, s := range sections {
		for _, block := range fencedBlocks(s.Body) {
			header, rows, ok := parseBlock(block)
			if !ok {
				continue
			}
			tables = append(tables, Table{
				ModelID:   s.ModelID,
				MD5:       s.MD5,
				Iteration: s.Iteration,
				Header:    header,
				Rows:      rows,
			})
		}
	}
	return tables
}

func fencedBlocks(body string) []string {
	var (
		blocks []string
		cur    []string
		inside bool
	)
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inside {
			if trimmed == "```" || strings.EqualFold(trimmed, "```csv") {
				inside = true
				cur = cur[:0]
			}
			continue
		}
		if trimmed == "```" {
			blocks = append(blocks, strings.Join(cur, "\n"))
			inside = false
			continue
		}
		cur = append(cur, line)
	}
	return blocks
}

func parseBlock(block string) ([]string, [][]string, bool) {
	block = strings.TrimSpace(block)
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return nil, nil, false
	}

	sep := ','
	switch {
	case strings.Contains(lines[0], "\t"):
		sep = '\t'
	case !strings.Contains(lines[0], ","):
		return nil, nil, false
	}

	r := csv.NewReader(strings.NewReader(block))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return nil, nil, false
	}

	header := cleanFields(records[0])
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, cleanFields(rec))
		rows = append(rows, row)
	}
	return header, rows, true
}

func cleanFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.Trim(f, "\"' \t")
	}
	return out
}
