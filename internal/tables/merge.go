package tables

import (
	"errors"
	"fmt"
	"os"
)

// Merged is the union of all extracted tables. Header holds every source
// column in first-seen order followed by MODEL_ID, MD5_Hash and Iteration_Num.
type Merged struct {
	Header       []string   `json:"header"`
	Rows         [][]string `json:"rows"`
	SourceTables int        `json:"source_tables"`
}

// Empty reports whether no rows were merged.
func (m *Merged) Empty() bool { return len(m.Rows) == 0 }

// Merge combines tables into one, placing each value under its column.
func Merge(tables []Table) *Merged {
	special := map[string]bool{ColumnModelID: true, ColumnMD5: true, ColumnIteration: true}

	var header []string
	index := map[string]int{}
	for _, t := range tables {
		for _, h := range t.Header {
			if special[h] {
				continue
			}
			if _, ok := index[h]; !ok {
				index[h] = len(header)
				header = append(header, h)
			}
		}
	}
	for _, h := range []string{ColumnModelID, ColumnMD5, ColumnIteration} {
		index[h] = len(header)
		header = append(header, h)
	}

	m := &Merged{Header: header, SourceTables: len(tables)}
	for _, t := range tables {
		for _, src := range t.Rows {
			row := make([]string, len(header))
			for i, h := range t.Header {
				if i < len(src) && !special[h] {
					row[index[h]] = src[i]
				}
			}
			row[index[ColumnModelID]] = t.ModelID
			row[index[ColumnMD5]] = t.MD5
			row[index[ColumnIteration]] = t.Iteration
			m.Rows = append(m.Rows, row)
		}
	}
	return m
}

// Build parses transcript content and merges every table found in it.
func Build(content string) *Merged {
	return Merge(ExtractTables(ParseTranscript(content)))
}

// Load reads the transcript at path and builds the merged table. A missing
// transcript yields an empty table.
func Load(path string) (*Merged, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Merge(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return Build(string(data)), nil
}
