package source

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/geohash-cli/internal/record"
)

// XLSXReader reads records from a spreadsheet sheet: the first row names the
// fields, numeric cells become float values and everything else strings. The
// schema is inferred from the first data row.
type XLSXReader struct {
	SheetIndex int
}

// ReadFile implements FileReader.
func (r *XLSXReader) ReadFile(path string) ([]*record.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open xlsx %s", path)
	}
	if r.SheetIndex < 0 || r.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("source: xlsx sheet %d not found in %s", r.SheetIndex, path)
	}

	sheet := f.Sheets[r.SheetIndex]
	if len(sheet.Rows) < 2 {
		return nil, nil
	}

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, cell := range sheet.Rows[0].Cells {
		header = append(header, cell.String())
	}

	// Every header column is declared up front so the batch shares one
	// schema; column types come from the first data row, defaulting to
	// string for empty cells. The schema is open because the sheet may lack
	// the enrichment target column.
	schema := &record.Schema{Open: true}
	first := sheet.Rows[1]
	for i, name := range header {
		if name == "" {
			continue
		}
		t := record.TypeString
		if i < len(first.Cells) {
			if _, err := first.Cells[i].Float(); err == nil {
				t = record.TypeFloat
			}
		}
		schema.Fields = append(schema.Fields, record.Field{Name: name, Type: t})
	}

	recs := make([]*record.Record, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		values := make(map[string]any, len(header))
		for i, name := range header {
			if name == "" || i >= len(row.Cells) {
				continue
			}
			cell := row.Cells[i]
			if n, err := cell.Float(); err == nil {
				values[name] = n
				continue
			}
			if s := cell.String(); s != "" {
				values[name] = s
			}
		}
		if len(values) == 0 {
			continue
		}
		recs = append(recs, record.FromValues(schema, values))
	}
	return recs, nil
}
