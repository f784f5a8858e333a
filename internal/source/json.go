package source

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geohash-cli/internal/record"
)

// JSONReader parses a JSON array of objects, one record per element. When
// Schema is nil it is inferred from the first object and shared by the
// whole batch.
type JSONReader struct {
	Schema *record.Schema
}

// Read implements Reader.
func (r *JSONReader) Read(data []byte) ([]*record.Record, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "source: parse JSON records")
	}

	schema := r.Schema
	if schema == nil && len(rows) > 0 {
		schema = record.InferSchema(rows[0])
	}

	recs := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, record.FromValues(schema, row))
	}
	return recs, nil
}

// ReadFile implements FileReader.
func (r *JSONReader) ReadFile(path string) ([]*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", path)
	}
	return r.Read(data)
}

// JSONWriter serializes records as a JSON array of objects.
type JSONWriter struct {
	Indent bool
}

// Write implements Writer.
func (w *JSONWriter) Write(recs []*record.Record) ([]byte, error) {
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rec.Values())
	}

	var (
		data []byte
		err  error
	)
	if w.Indent {
		data, err = json.MarshalIndent(rows, "", "  ")
	} else {
		data, err = json.Marshal(rows)
	}
	if err != nil {
		return nil, eris.Wrap(err, "source: marshal JSON records")
	}
	return data, nil
}
