package importer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNormalizeHeading(t *testing.T) {
	cases := map[string]string{
		"Country Code":  "country_code",
		"staff_id":      "staff_id",
		" Unit  Name ":  "unit_name",
		"\ufeffname":    "name",
		"Operation-Val": "operation_val",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHeading(in), in)
	}
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("Products.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	format, err = DetectFormat("customers.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = DetectFormat("legacy.xls")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = DetectFormat("notes.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCSVReaderPadsShortRows(t *testing.T) {
	rows, err := Open("cities.csv", strings.NewReader("Country Code,Name,State Code\nUS,Austin\n"), 0)
	require.NoError(t, err)
	defer rows.Close()

	assert.Equal(t, []string{"country_code", "name", "state_code"}, rows.Headings())
	row, err := rows.Next()
	require.NoError(t, err)
	assert.Equal(t, Row{"country_code": "US", "name": "Austin", "state_code": ""}, row)

	_, err = rows.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestXLSXReader(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Title", "Image"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Acme", "acme.png"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Bolt"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := Open("brands.xlsx", bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	defer rows.Close()

	assert.Equal(t, []string{"title", "image"}, rows.Headings())
	row, err := rows.Next()
	require.NoError(t, err)
	assert.Equal(t, "acme.png", row.Str("image"))
	row, err = rows.Next()
	require.NoError(t, err)
	assert.Equal(t, Row{"title": "Bolt", "image": ""}, row)
	_, err = rows.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenRejectsLargeFiles(t *testing.T) {
	body := "title\n" + strings.Repeat("brand\n", 100)

	_, err := Open("brands.csv", strings.NewReader(body), 64)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	rows, err := Open("brands.csv", strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, rows.Headings())
}

func TestOpenEmptyFile(t *testing.T) {
	_, err := Open("brands.csv", strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestTemplateHasHeadings(t *testing.T) {
	data, err := Template(EntityProduct)
	require.NoError(t, err)

	rows, err := Open("template.xlsx", bytes.NewReader(data), 0)
	require.NoError(t, err)
	defer rows.Close()

	d, _ := Lookup(EntityProduct)
	assert.Equal(t, d.Headings, rows.Headings())

	_, err = Template("invoice")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestRowCoercion(t *testing.T) {
	row := Row{"qty": "3.5", "bad": "x", "flag": "yes", "n": "2"}
	assert.Equal(t, 3.5, row.Float("qty", 0))
	assert.Equal(t, 7.0, row.Float("bad", 7))
	assert.Equal(t, 1.0, row.Float("missing", 1))
	assert.Nil(t, row.FloatPtr("missing"))
	assert.True(t, row.Bool("flag", false))
	assert.True(t, row.Bool("missing", true))
	assert.Equal(t, 2, row.Int("n", 1))
	assert.Equal(t, 1, row.Int("bad", 1))
}
