package core

// source.go reads the signup CSV into RawRows.
//
// The whole file is read in one forward pass. Any problem with the file itself
// (missing, unreadable, malformed CSV, invalid UTF-8, missing header columns)
// is returned as a *SourceReadError and no rows are returned with it.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSource opens path and reads every data row.
func ReadSource(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}
	return rows, nil
}

// ReadRows reads a CSV stream whose first record is the header. Header names
// are trimmed of surrounding spaces and otherwise matched exactly; columns
// beyond RequiredColumns are kept in the row but ignored. Cells missing from a
// short row read as "".
func ReadRows(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1 // Allow variable column counts
	reader.LazyQuotes = true    // Bare quotes inside unquoted fields stay in the value

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}
	if err := checkUTF8(header, 1); err != nil {
		return nil, err
	}

	idx, err := ValidateHeaders(header)
	if err != nil {
		return nil, err
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if err := checkUTF8(record, line); err != nil {
			return nil, err
		}

		row := make(RawRow, len(idx))
		for name, pos := range idx {
			if pos < len(record) {
				row[name] = record[pos]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// HeaderIndex maps trimmed column names to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row. The first
// occurrence of a repeated column name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.TrimSpace(h)
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// ValidateHeaders checks that every required column is present and returns
// the header index, or an error listing the missing columns.
func ValidateHeaders(header []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}

func checkUTF8(record []string, line int) error {
	for _, field := range record {
		if !utf8.ValidString(field) {
			return fmt.Errorf("encoding error: invalid UTF-8 on line %d", line)
		}
	}
	return nil
}

// skipBOM drops a leading UTF-8 byte order mark, as written by Excel on Windows.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
