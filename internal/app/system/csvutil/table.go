// internal/app/system/csvutil/table.go
package csvutil

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Limits on one upload.
const (
	MaxUploadSize = 2 << 20
	MaxRows       = 5000
)

var (
	ErrEmpty       = errors.New("CSV file is empty")
	ErrTooLarge    = fmt.Errorf("CSV file is too large (max %d MB)", MaxUploadSize>>20)
	ErrTooManyRows = fmt.Errorf("CSV file has more than %d rows", MaxRows)
)

const bom = "\ufeff"

// Row is one data record. Num is the 1-indexed record number counting the
// header as 1, so the first data row is 2.
type Row struct {
	Num    int
	Values map[string]string
}

// Get returns the trimmed value for a lowercase header name.
func (r Row) Get(field string) string {
	return r.Values[field]
}

// Table is a parsed CSV file with a header row.
type Table struct {
	Header []string
	Rows   []Row
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// ReadTable parses r as a header plus data rows. Quoted fields with
// embedded commas and newlines are supported. Header names are trimmed and
// lowercased; a leading UTF-8 BOM is dropped. Blank records are skipped
// but still counted, so row numbers line up with what a user sees.
// Input over MaxUploadSize is rejected with ErrTooLarge before parsing.
func ReadTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	br := bufio.NewReader(bytes.NewReader(data))
	if head, err := br.Peek(len(bom)); err == nil && string(head) == bom {
		_, _ = br.Discard(len(bom))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	t := &Table{Header: header}
	num := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		num++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", num, err)
		}
		if blank(rec) {
			continue
		}
		if len(t.Rows) >= MaxRows {
			return nil, ErrTooManyRows
		}
		vals := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				vals[h] = strings.TrimSpace(rec[i])
			}
		}
		t.Rows = append(t.Rows, Row{Num: num, Values: vals})
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteTemplate writes header followed by example rows.
func WriteTemplate(w io.Writer, header []string, examples [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(examples); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
