package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/propscrub/internal/scrub"
)

func TestParse_CSV(t *testing.T) {
	input := "First Name,Phone,Address\n" +
		"Jo,555-1111,\"1 Elm St, Austin\"\n" +
		"\n" +
		"Al,,2 Oak Ave\n"

	tbl, err := Parse(strings.NewReader(input), "leads.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"First Name", "Phone", "Address"}, tbl.Headers)
	assert.Equal(t, FormatCSV, tbl.Format)
	assert.Equal(t, EncodingUTF8, tbl.Encoding)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "1 Elm St, Austin", tbl.Rows[0]["Address"])
	assert.Equal(t, "", tbl.Rows[1]["Phone"])
}

func TestParse_BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Email\na@b.com\n")...)

	tbl, err := Parse(bytes.NewReader(input), "bom.csv")
	require.NoError(t, err)

	assert.Equal(t, EncodingUTF8BOM, tbl.Encoding)
	assert.Equal(t, []string{"Email"}, tbl.Headers)
	assert.Equal(t, "a@b.com", tbl.Rows[0]["Email"])
}

func TestParse_Windows1252(t *testing.T) {
	// "José" with é as 0xE9
	input := []byte("Name\nJos\xe9\n")

	tbl, err := Parse(bytes.NewReader(input), "legacy.csv")
	require.NoError(t, err)

	assert.Equal(t, EncodingCP1252, tbl.Encoding)
	assert.Equal(t, "José", tbl.Rows[0]["Name"])
}

func TestParse_UTF16LE(t *testing.T) {
	text := "A\r\nx\r\n"
	input := []byte{0xFF, 0xFE}
	for _, r := range text {
		input = append(input, byte(r), 0)
	}

	tbl, err := Parse(bytes.NewReader(input), "excel.csv")
	require.NoError(t, err)

	assert.Equal(t, EncodingUTF16LE, tbl.Encoding)
	assert.Equal(t, []string{"A"}, tbl.Headers)
	assert.Equal(t, scrub.RawRow{"A": "x"}, tbl.Rows[0])
}

func TestParse_RaggedRows(t *testing.T) {
	input := "a,b,c\n1\n1,2,3,4\n"

	tbl, err := Parse(strings.NewReader(input), "ragged.csv")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	_, hasB := tbl.Rows[0]["b"]
	assert.False(t, hasB, "short row should leave trailing keys absent")
	assert.Equal(t, scrub.RawRow{"a": "1", "b": "2", "c": "3"}, tbl.Rows[1])
}

func TestParse_DuplicateAndBlankHeaders(t *testing.T) {
	input := "Phone,Phone,,Phone_1,Phone\n1,2,3,4,5\n"

	tbl, err := Parse(strings.NewReader(input), "dupes.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Phone", "Phone_1", "Column 3", "Phone_1_1", "Phone_2"}, tbl.Headers)
	assert.Equal(t, "5", tbl.Rows[0]["Phone_2"])
}

func TestParse_NoHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("\n\n"), "empty.csv")
	assert.True(t, errors.Is(err, ErrNoHeader), "got %v", err)
}

func TestParse_HeaderOnly(t *testing.T) {
	tbl, err := Parse(strings.NewReader("First,Last\n"), "header.csv")
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestParse_LegacyXLS(t *testing.T) {
	_, err := Parse(strings.NewReader("junk"), "old.xls")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"First", "Cell Phone", "Street", "City"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Jo", "555-1111", "1 Elm St", "Austin"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Bo"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Parse(buf, "leads.xlsx")
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, tbl.Format)
	assert.Equal(t, sheet, tbl.Sheet)
	assert.Equal(t, []string{"First", "Cell Phone", "Street", "City"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Austin", tbl.Rows[0]["City"])
	assert.Equal(t, scrub.RawRow{"First": "Bo"}, tbl.Rows[1])
}
