// ABOUTME: Line-oriented CSV parser for contact imports
// ABOUTME: Splits text into headers and header-keyed rows, dropping malformed lines
package importer

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrEmptyInput is returned when the input has no non-blank line.
var ErrEmptyInput = errors.New("CSV file is empty")

// ReadError wraps a failure to read the underlying file or stream.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Path != "" {
		return "failed to read " + e.Path + ": " + e.Err.Error()
	}
	return "failed to read input: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// PreviewRows is how many rows Preview returns.
const PreviewRows = 5

// Table is a parsed CSV file. Every row holds exactly one value per header;
// duplicate headers collapse onto a single key, rightmost value wins.
type Table struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
	// Dropped counts lines discarded because their field count did not
	// match the header count.
	Dropped int `json:"dropped"`
}

func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Preview returns the first few rows.
func (t *Table) Preview() []map[string]string {
	if len(t.Rows) <= PreviewRows {
		return t.Rows
	}
	return t.Rows[:PreviewRows]
}

// Parse splits text on newlines and tokenizes each non-blank line. The first
// line supplies the headers; a data line is kept only when it has exactly as
// many fields as there are headers.
func Parse(text string) (*Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	table := &Table{
		Headers: splitLine(lines[0]),
		Rows:    []map[string]string{},
	}

	for _, line := range lines[1:] {
		values := splitLine(line)
		if len(values) != len(table.Headers) {
			table.Dropped++
			continue
		}
		row := make(map[string]string, len(table.Headers))
		for i, header := range table.Headers {
			row[header] = strings.TrimSpace(values[i])
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// ParseReader reads r to the end and parses it.
func ParseReader(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return Parse(string(data))
}

func ParseFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Parse(string(data))
}

// splitLine tokenizes one line. A double quote toggles quoted mode and is
// dropped; commas split fields only outside quotes. Doubled quotes are not
// unescaped.
func splitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())

	for i, f := range fields {
		f = strings.TrimPrefix(f, `"`)
		fields[i] = strings.TrimSuffix(f, `"`)
	}
	return fields
}
