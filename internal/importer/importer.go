// Package importer turns uploaded lead files into raw rows keyed by header.
//
// CSV files are decoded to UTF-8 first (BOM, UTF-16 and Windows-1252 are
// handled) and then parsed with encoding/csv. Excel workbooks are read from
// their first sheet with excelize.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	// ErrNoHeader is returned for a file without a header line.
	ErrNoHeader = errors.New("file has no header row")

	// ErrUnsupportedFormat is returned for file types we cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Table is a parsed file: header order plus one RawRow per data line.
type Table struct {
	Headers  []string
	Rows     []scrub.RawRow
	Format   string
	Encoding string
	Sheet    string
}

// Parse reads a whole file and dispatches on its extension. Files without a
// recognised extension are treated as CSV.
func Parse(r io.Reader, fileName string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(data)
	case ".xls":
		return nil, fmt.Errorf("%s: legacy .xls workbooks: %w", fileName, ErrUnsupportedFormat)
	default:
		return parseCSV(data)
	}
}

func parseCSV(data []byte) (*Table, error) {
	text, enc, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	t, err := buildTable(records)
	if err != nil {
		return nil, err
	}
	t.Format = FormatCSV
	t.Encoding = enc
	return t, nil
}

func parseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets: %w", ErrNoHeader)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	t, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	t.Format = FormatXLSX
	t.Encoding = EncodingUTF8
	t.Sheet = sheet
	return t, nil
}

// buildTable keys each record by header. Short records leave trailing keys
// absent; extra cells beyond the header are dropped. Records whose cells are
// all blank are skipped.
func buildTable(records [][]string) (*Table, error) {
	start := 0
	for start < len(records) && isBlank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrNoHeader
	}

	headers := uniqueHeaders(records[start])
	t := &Table{Headers: headers, Rows: make([]scrub.RawRow, 0, len(records)-start-1)}

	for _, rec := range records[start+1:] {
		if isBlank(rec) {
			continue
		}
		row := make(scrub.RawRow, len(headers))
		for i, v := range rec {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// uniqueHeaders names blank headers "Column N" and suffixes repeats with _1, _2.
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Column " + strconv.Itoa(i+1)
		}
		name := h
		for used[name] {
			next[h]++
			name = h + "_" + strconv.Itoa(next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
