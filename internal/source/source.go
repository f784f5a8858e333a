// Package source provides the record readers and writers that turn raw
// bytes or input files into record batches and back.
package source

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geohash-cli/internal/record"
)

// Reader parses one input unit into an ordered batch of records sharing one
// schema. A read error aborts the whole batch before any routing happens.
type Reader interface {
	Read(data []byte) ([]*record.Record, error)
}

// FileReader parses a batch directly from a file on disk. Formats backed by
// libraries that require seekable files (shapefile, xlsx) only implement
// this side.
type FileReader interface {
	ReadFile(path string) ([]*record.Record, error)
}

// Writer serializes a batch of records into raw bytes.
type Writer interface {
	Write(recs []*record.Record) ([]byte, error)
}

// ForPath selects a file reader by extension.
func ForPath(path string) (FileReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &JSONReader{}, nil
	case ".xlsx":
		return &XLSXReader{}, nil
	case ".shp":
		return &ShapefileReader{}, nil
	default:
		return nil, eris.Errorf("source: unsupported input format %q", filepath.Ext(path))
	}
}
