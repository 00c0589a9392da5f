package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	DefaultMaxBytes int64 = 10 << 20
)

var (
	ErrUnsupportedFormat = errors.New("unsupported_import_format")
	ErrFileTooLarge      = errors.New("import_file_too_large")
	ErrEmptyFile         = errors.New("import_file_empty")
)

// Row is one spreadsheet line keyed by normalised heading.
type Row map[string]string

// RowReader streams data rows after the heading row.
type RowReader interface {
	Headings() []string
	// Next returns io.EOF after the last row.
	Next() (Row, error)
	Close() error
}

// NormalizeHeading turns "Country Code" into "country_code".
func NormalizeHeading(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	return strings.ReplaceAll(slug.Make(h), "-", "_")
}

// DetectFormat maps a file name to a supported format.
func DetectFormat(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Open reads the heading row of an uploaded file. The whole body is read up
// front, so input over maxBytes fails with ErrFileTooLarge before any row is
// handed to the pipeline.
func Open(name string, r io.Reader, maxBytes int64) (RowReader, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrFileTooLarge
	}

	switch format {
	case FormatXLSX:
		return openXLSX(bytes.NewReader(data))
	default:
		return openCSV(bytes.NewReader(data))
	}
}

func normalizeHeadings(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = NormalizeHeading(h)
	}
	return out
}

func toRow(headings, cells []string) Row {
	row := make(Row, len(headings))
	for i, h := range headings {
		if h == "" {
			continue
		}
		if i < len(cells) {
			row[h] = strings.TrimSpace(cells[i])
		} else {
			row[h] = ""
		}
	}
	return row
}

type csvReader struct {
	r        *csv.Reader
	headings []string
}

func openCSV(r io.Reader) (*csvReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}
	return &csvReader{r: cr, headings: normalizeHeadings(first)}, nil
}

func (c *csvReader) Headings() []string { return c.headings }

func (c *csvReader) Next() (Row, error) {
	record, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	return toRow(c.headings, record), nil
}

func (c *csvReader) Close() error { return nil }

type xlsxReader struct {
	file     *excelize.File
	rows     *excelize.Rows
	headings []string
}

func openXLSX(r io.Reader) (*xlsxReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrEmptyFile
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !rows.Next() {
		_ = rows.Close()
		_ = f.Close()
		return nil, ErrEmptyFile
	}
	first, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = f.Close()
		return nil, err
	}
	return &xlsxReader{file: f, rows: rows, headings: normalizeHeadings(first)}, nil
}

func (x *xlsxReader) Headings() []string { return x.headings }

func (x *xlsxReader) Next() (Row, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	cells, err := x.rows.Columns()
	if err != nil {
		return nil, err
	}
	return toRow(x.headings, cells), nil
}

func (x *xlsxReader) Close() error {
	return errors.Join(x.rows.Close(), x.file.Close())
}

// Empty reports whether every cell is blank.
func (r Row) Empty() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}
