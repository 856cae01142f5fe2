// internal/app/system/csvutil/csvutil.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// ErrTooManyRows is returned when an upload exceeds MaxRows.
var ErrTooManyRows = errors.New("csv exceeds the row limit")

// Upload size and row limits for CSV processing.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// StudentRow is the normalized row produced by ParseStudentsCSV.
// Columns are Tag, Name, Teacher in that order.
type StudentRow struct {
	Tag     string
	Name    string
	Teacher string
}

// ParseResult reports what ParseStudentsCSV accepted and what it dropped.
type ParseResult struct {
	Rows    []StudentRow
	Skipped int // rows dropped for a missing field
}

// ParseStudentsCSV reads all rows from r and returns the usable ones.
//
// A leading header row (first column exactly "Tag") is skipped; the match is
// case-exact so a real data row tagged "tag" or "TAG" survives. Rows missing any of
// the three fields are counted in Skipped rather than failing the whole
// upload, so one stray blank line doesn't reject a roster. It never writes
// to a DB; it's safe to call before any mutations.
func ParseStudentsCSV(r io.Reader) (ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var res ParseResult
	firstRow := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ParseResult{}, err
		}
		if len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}

		row := normalizeRow(rec)
		if firstRow {
			firstRow = false
			if row.Tag == "Tag" {
				continue
			}
		}
		if row.Tag == "" && row.Name == "" && row.Teacher == "" {
			continue
		}
		if row.Tag == "" || row.Name == "" || row.Teacher == "" {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
		if len(res.Rows) > MaxRows {
			return ParseResult{}, ErrTooManyRows
		}
	}
	return res, nil
}

func normalizeRow(rec []string) StudentRow {
	var row StudentRow
	if len(rec) > 0 {
		row.Tag = strings.TrimSpace(rec[0])
	}
	if len(rec) > 1 {
		row.Name = strings.TrimSpace(rec[1])
	}
	if len(rec) > 2 {
		row.Teacher = strings.TrimSpace(rec[2])
	}
	return row
}
