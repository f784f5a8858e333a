package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geohash-cli/internal/record"
)

func TestJSONReader_Read(t *testing.T) {
	data := []byte(`[
		{"name": "leon", "latitude": 42.605, "longitude": -5.603},
		{"name": "skagen", "latitude": 57.64911, "longitude": 10.40744}
	]`)

	recs, err := (&JSONReader{}).Read(data)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	v, ok := recs[0].GetPath("/latitude")
	require.True(t, ok)
	assert.Equal(t, 42.605, v)

	// Schema is inferred from the first object and shared by the batch.
	require.NotNil(t, recs[0].Schema())
	assert.Same(t, recs[0].Schema(), recs[1].Schema())
	f, ok := recs[0].Schema().Field("latitude")
	require.True(t, ok)
	assert.Equal(t, record.TypeFloat, f.Type)
}

func TestJSONReader_Nested(t *testing.T) {
	data := []byte(`[{"location": {"lat": 42.605, "lon": -5.603}}]`)

	recs, err := (&JSONReader{}).Read(data)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	v, ok := recs[0].GetPath("/location/lat")
	require.True(t, ok)
	assert.Equal(t, 42.605, v)
}

func TestJSONReader_Malformed(t *testing.T) {
	_, err := (&JSONReader{}).Read([]byte(`{"not": "an array"}`))
	require.Error(t, err)

	_, err = (&JSONReader{}).Read([]byte(`[{"trailing"`))
	require.Error(t, err)
}

func TestJSONReader_ExplicitSchema(t *testing.T) {
	schema := &record.Schema{Fields: []record.Field{
		{Name: "latitude", Type: record.TypeFloat},
	}}
	recs, err := (&JSONReader{Schema: schema}).Read([]byte(`[{"latitude": 1.0}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Same(t, schema, recs[0].Schema())
}

func TestJSONWriter_RoundTrip(t *testing.T) {
	in := []byte(`[{"name":"leon","latitude":42.605}]`)
	reader := &JSONReader{}
	recs, err := reader.Read(in)
	require.NoError(t, err)

	out, err := (&JSONWriter{}).Write(recs)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(out, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "leon", rows[0]["name"])
	assert.Equal(t, 42.605, rows[0]["latitude"])
}

func TestJSONReader_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"latitude": 1.5, "longitude": 2.5}]`), 0o644))

	recs, err := (&JSONReader{}).ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = (&JSONReader{}).ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestForPath(t *testing.T) {
	r, err := ForPath("batch.json")
	require.NoError(t, err)
	assert.IsType(t, &JSONReader{}, r)

	r, err = ForPath("points.SHP")
	require.NoError(t, err)
	assert.IsType(t, &ShapefileReader{}, r)

	r, err = ForPath("table.xlsx")
	require.NoError(t, err)
	assert.IsType(t, &XLSXReader{}, r)

	_, err = ForPath("batch.csv")
	require.Error(t, err)
}
