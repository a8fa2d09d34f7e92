// internal/service/lists/parser.go
package lists

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"agentlist-service/internal/domain/list"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format is the declared container of an uploaded file.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
)

var (
	xlsxMagic = []byte("PK\x03\x04")
	xlsMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}

	errUnknownContainer = errors.New("unrecognized spreadsheet container")
)

var extensionFormats = map[string]Format{
	".csv":  FormatCSV,
	".xlsx": FormatSpreadsheet,
	".xls":  FormatSpreadsheet,
}

var contentTypeFormats = map[string]Format{
	"text/csv":                 FormatCSV,
	"application/csv":          FormatCSV,
	"application/vnd.ms-excel": FormatSpreadsheet,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatSpreadsheet,
}

// DetectFormat resolves the parser format from the file extension, falling
// back to the declared content type.
func DetectFormat(filename, contentType string) (Format, bool) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, true
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	f, ok := contentTypeFormats[ct]
	return f, ok
}

// Parse reads every data row of r. The first row is the header and its cells
// become the row keys. Zero data rows is not an error here.
func Parse(r io.Reader, format Format) ([]list.Row, error) {
	switch format {
	case FormatCSV:
		return parseCSV(r)
	case FormatSpreadsheet:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &xerrors.ParseError{Format: string(format), Err: err}
		}
		return parseSpreadsheet(data)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", xerrors.ErrInvalidInput, format)
	}
}

func parseCSV(r io.Reader) ([]list.Row, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(len(utf8BOM)); bytes.Equal(bom, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, &xerrors.ParseError{Format: string(FormatCSV), Err: err}
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := []list.Row{}

	first, err := reader.Read()
	if err == io.EOF {
		return rows, nil
	}
	if err != nil {
		return nil, &xerrors.ParseError{Format: string(FormatCSV), Err: err}
	}
	header := normalizeHeader(first)

	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &xerrors.ParseError{Format: string(FormatCSV), Err: err}
		}
		if isBlank(cells) {
			continue
		}
		rows = append(rows, buildRow(header, cells))
	}

	return rows, nil
}

func parseSpreadsheet(data []byte) ([]list.Row, error) {
	var (
		grid [][]string
		err  error
	)

	switch {
	case bytes.HasPrefix(data, xlsxMagic):
		grid, err = readXLSX(data)
	case bytes.HasPrefix(data, xlsMagic):
		grid, err = readXLS(data)
	default:
		err = errUnknownContainer
	}
	if err != nil {
		return nil, &xerrors.ParseError{Format: string(FormatSpreadsheet), Err: err}
	}

	return rowsFromGrid(grid), nil
}

// readXLSX returns the cells of the first sheet only.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

// readXLS returns the cells of the first sheet of a BIFF workbook. The
// decoder panics on some corrupt inputs, so panics become errors.
func readXLS(data []byte) (grid [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("corrupt xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("xls workbook stream not found")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	width := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := xlsCells(row, width)
		if len(cells) > width {
			width = len(cells)
		}
		grid = append(grid, cells)
	}

	return grid, nil
}

// xlsCells reads the cells of row. The ROW record stores the column after the
// last cell, and rows written without one report zero; those are read up to
// minWidth or, failing that, up to the first empty cell.
func xlsCells(row *xls.Row, minWidth int) []string {
	end := row.LastCol()
	if end < minWidth {
		end = minWidth
	}
	if end == 0 {
		for row.Col(end) != "" {
			end++
		}
	}

	cells := make([]string, end)
	for c := row.FirstCol(); c < end; c++ {
		cells[c] = row.Col(c)
	}
	return cells
}

// xlsRow returns nil for rows the sheet has no record of.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// rowsFromGrid treats the first non-blank row as the header.
func rowsFromGrid(grid [][]string) []list.Row {
	rows := []list.Row{}

	start := 0
	for start < len(grid) && isBlank(grid[start]) {
		start++
	}
	if start == len(grid) {
		return rows
	}

	header := normalizeHeader(grid[start])
	for _, cells := range grid[start+1:] {
		if isBlank(cells) {
			continue
		}
		rows = append(rows, buildRow(header, cells))
	}
	return rows
}

func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		header[i] = strings.TrimSpace(c)
	}
	return header
}

// buildRow maps cells onto header names. Missing cells are empty strings,
// cells past the header are dropped and the first of duplicate names wins.
func buildRow(header, cells []string) list.Row {
	row := make(list.Row, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := row[name]; dup {
			continue
		}
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		row[name] = value
	}
	return row
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
