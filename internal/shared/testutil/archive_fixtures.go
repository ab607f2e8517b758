package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ZipMember is one file inside a fixture archive
type ZipMember struct {
	Name string
	Data []byte
}

// CSVMember renders rows as a ';'-separated UTF-8 member
func CSVMember(name string, rows [][]string) ZipMember {
	return ZipMember{Name: name, Data: []byte(joinRows(rows))}
}

// Latin1Member renders rows as a ';'-separated ISO-8859-1 member
func Latin1Member(t *testing.T, name string, rows [][]string) ZipMember {
	t.Helper()
	encoded, err := charmap.ISO8859_1.NewEncoder().String(joinRows(rows))
	require.NoError(t, err)
	return ZipMember{Name: name, Data: []byte(encoded)}
}

// XLSXMember renders rows on the first sheet of a workbook
func XLSXMember(t *testing.T, name string, rows [][]string) ZipMember {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return ZipMember{Name: name, Data: buf.Bytes()}
}

// WriteZip writes an archive named name into dir and returns its path
func WriteZip(t *testing.T, dir, name string, members ...ZipMember) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.Name)
		require.NoError(t, err)
		_, err = w.Write(m.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func joinRows(rows [][]string) string {
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, ";"))
		sb.WriteString("\n")
	}
	return sb.String()
}
