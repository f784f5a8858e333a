package source

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geohash-cli/internal/record"
)

// ShapefileReader converts point shapes and their DBF attributes into
// records carrying latitude/longitude fields plus an empty geohash target
// field. Non-point shapes are skipped.
type ShapefileReader struct {
	LatField     string // defaults to "latitude"
	LonField     string // defaults to "longitude"
	GeohashField string // defaults to "geohash"
}

// ReadFile implements FileReader.
func (r *ShapefileReader) ReadFile(path string) ([]*record.Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	latField := r.LatField
	if latField == "" {
		latField = "latitude"
	}
	lonField := r.LonField
	if lonField == "" {
		lonField = "longitude"
	}
	geohashField := r.GeohashField
	if geohashField == "" {
		geohashField = "geohash"
	}

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	// One schema for the whole batch: the coordinate fields plus every DBF
	// attribute as a string.
	schema := &record.Schema{Fields: []record.Field{
		{Name: latField, Type: record.TypeFloat},
		{Name: lonField, Type: record.TypeFloat},
		{Name: geohashField, Type: record.TypeString},
	}}
	for _, name := range names {
		if name == "" || name == latField || name == lonField || name == geohashField {
			continue
		}
		schema.Fields = append(schema.Fields, record.Field{Name: name, Type: record.TypeString})
	}

	var (
		recs    []*record.Record
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		values := map[string]any{
			latField: pt.Y,
			lonField: pt.X,
		}
		for i, name := range names {
			if name == "" || name == latField || name == lonField {
				continue
			}
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				values[name] = val
			}
		}

		recs = append(recs, record.FromValues(schema, values))
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped non-point shapes",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return recs, nil
}
