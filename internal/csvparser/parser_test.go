package csvparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

func TestParse_SemicolonWithQuotes(t *testing.T) {
	data := []byte("Zählernummer;Datum;Zählerstand;Notiz\n" +
		"\"Z-100\"; 15.01.2024 ;'12345,67';\"Keller\"\n" +
		"Z-200;2024-01-16;99,5;\n")

	table, err := Parse("readings.csv", data, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Zählernummer", "Datum", "Zählerstand", "Notiz"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Z-100", table.Rows[0].Cell("Zählernummer"))
	assert.Equal(t, "15.01.2024", table.Rows[0].Cell("Datum"))
	assert.Equal(t, "12345,67", table.Rows[0].Cell("Zählerstand"))
	assert.Equal(t, "Keller", table.Rows[0].Cell("Notiz"))
	assert.Equal(t, "", table.Rows[1].Cell("Notiz"))
}

func TestParse_CommaWhenNoSemicolon(t *testing.T) {
	data := []byte("meter,date,value\r\nZ-1,2024-01-15,10.5\r\n")

	table, err := Parse("readings.csv", data, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"meter", "date", "value"}, table.Headers)
	assert.Equal(t, "10.5", table.Rows[0].Cell("value"))
}

func TestParse_SemicolonAnywhereWins(t *testing.T) {
	// A single semicolon in a late row switches the whole file.
	data := []byte("meter;date;value\nZ-1;2024-01-15;10,5\n")

	table, err := Parse("readings.csv", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, "10,5", table.Rows[0].Cell("value"))
}

func TestParse_BlankLinesKeepPhysicalNumbers(t *testing.T) {
	data := []byte("meter;date;value\n\nZ-1;2024-01-15;1\n ; ; \rZ-2;2024-01-16;2\n")

	table, err := Parse("readings.csv", data, Options{})
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, 3, table.Rows[0].RowNumber)
	assert.Equal(t, 5, table.Rows[1].RowNumber)
}

func TestParse_HeaderOnlyIsDecodeError(t *testing.T) {
	_, err := Parse("empty.csv", []byte("meter;date;value\n\n"), Options{})

	var decodeErr *types.DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestParse_StripsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("meter;date;value\nZ-1;2024-01-15;1\n")...)

	table, err := Parse("bom.csv", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, "meter", table.Headers[0])
}

func TestParse_Windows1252Fallback(t *testing.T) {
	utf8Text := "Zählernummer;Datum;Zählerstand\nZ-1;15.01.2024;1\n"
	legacy, err := charmap.Windows1252.NewEncoder().String(utf8Text)
	require.NoError(t, err)

	table, err := Parse("legacy.csv", []byte(legacy), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Zählernummer", table.Headers[0])
}

func TestParse_UnknownCharset(t *testing.T) {
	_, err := Parse("legacy.csv", []byte{0xff, 0xfe, 0x00}, Options{Encoding: "no-such-charset"})

	var decodeErr *types.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "charset conversion failed", decodeErr.Reason)
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`  "Z-100" `, "Z-100"},
		{`'12,5'`, "12,5"},
		{`""x""`, `"x"`},
		{`"`, `"`},
		{`"mixed'`, `"mixed'`},
		{``, ``},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanCell(tt.in), "input %q", tt.in)
	}
}
