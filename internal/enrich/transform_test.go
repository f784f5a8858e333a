package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geohash-cli/internal/record"
	"github.com/sells-group/geohash-cli/pkg/geohash"
)

func testSchema() *record.Schema {
	return &record.Schema{Fields: []record.Field{
		{Name: "latitude", Type: record.TypeFloat},
		{Name: "longitude", Type: record.TypeFloat},
		{Name: "geohash", Type: record.TypeString},
		{Name: "name", Type: record.TypeString},
	}}
}

func encoder() *Transformer {
	return &Transformer{
		Mode:        ModeEncode,
		Format:      geohash.Base32,
		Precision:   12,
		LatPath:     "/latitude",
		LonPath:     "/longitude",
		GeohashPath: "/geohash",
	}
}

func decoder() *Transformer {
	t := encoder()
	t.Mode = ModeDecode
	return t
}

func TestTransform_Encode(t *testing.T) {
	rec := record.FromValues(testSchema(), map[string]any{
		"latitude":  42.605,
		"longitude": -5.603,
	})

	out, outcome := encoder().Transform(rec)
	require.Equal(t, OutcomeEnriched, outcome)

	hash, ok := out.GetPath("/geohash")
	require.True(t, ok)
	require.IsType(t, "", hash)
	assert.Len(t, hash, 12)
	assert.Equal(t, "ezs42", hash.(string)[:5])

	// The input record is untouched; enrichment lands on a copy.
	_, ok = rec.GetPath("/geohash")
	assert.False(t, ok)
}

func TestTransform_Encode_StringCoordinates(t *testing.T) {
	schema := &record.Schema{Fields: []record.Field{
		{Name: "latitude", Type: record.TypeString},
		{Name: "longitude", Type: record.TypeString},
		{Name: "geohash", Type: record.TypeString},
	}}
	rec := record.FromValues(schema, map[string]any{
		"latitude":  "42.605",
		"longitude": "-5.603",
	})

	_, outcome := encoder().Transform(rec)
	assert.Equal(t, OutcomeEnriched, outcome)
}

func TestTransform_Encode_AbsentSourceIsUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"both missing", map[string]any{"name": "x"}},
		{"longitude missing", map[string]any{"latitude": 42.605}},
		{"latitude null", map[string]any{"latitude": nil, "longitude": -5.603}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.FromValues(testSchema(), tt.values)
			out, outcome := encoder().Transform(rec)
			assert.Equal(t, OutcomeUnchanged, outcome)
			assert.Same(t, rec, out)
		})
	}
}

func TestTransform_Encode_InvalidSourceIsFailed(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"out of range", map[string]any{"latitude": 91.0, "longitude": 0.0}},
		{"not numeric", map[string]any{"latitude": true, "longitude": 0.0}},
		{"unparseable string", map[string]any{"latitude": "north", "longitude": 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.FromValues(testSchema(), tt.values)
			out, outcome := encoder().Transform(rec)
			assert.Equal(t, OutcomeFailed, outcome)
			assert.Same(t, rec, out)
			_, ok := out.GetPath("/geohash")
			assert.False(t, ok)
		})
	}
}

func TestTransform_Encode_WriteRejectionIsFailed(t *testing.T) {
	// Schema without a geohash field: the set step fails, the record stays
	// unmodified and the outcome degrades to failed.
	schema := &record.Schema{Fields: []record.Field{
		{Name: "latitude", Type: record.TypeFloat},
		{Name: "longitude", Type: record.TypeFloat},
	}}
	rec := record.FromValues(schema, map[string]any{
		"latitude":  42.605,
		"longitude": -5.603,
	})

	out, outcome := encoder().Transform(rec)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Same(t, rec, out)
}

func TestTransform_Decode(t *testing.T) {
	rec := record.FromValues(testSchema(), map[string]any{"geohash": "ezs42"})

	out, outcome := decoder().Transform(rec)
	require.Equal(t, OutcomeEnriched, outcome)

	lat, ok := out.GetPath("/latitude")
	require.True(t, ok)
	assert.InDelta(t, 42.605, lat.(float64), 0.01)
	lon, ok := out.GetPath("/longitude")
	require.True(t, ok)
	assert.InDelta(t, -5.603, lon.(float64), 0.01)

	_, ok = rec.GetPath("/latitude")
	assert.False(t, ok)
}

func TestTransform_Decode_AbsentIsUnchanged(t *testing.T) {
	rec := record.FromValues(testSchema(), map[string]any{"name": "x"})
	out, outcome := decoder().Transform(rec)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Same(t, rec, out)
}

func TestTransform_Decode_InvalidIsFailed(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"bad character", map[string]any{"geohash": "ezs4!"}},
		{"not a string", map[string]any{"geohash": 42.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.FromValues(testSchema(), tt.values)
			out, outcome := decoder().Transform(rec)
			assert.Equal(t, OutcomeFailed, outcome)
			assert.Same(t, rec, out)
		})
	}
}

func TestTransform_Decode_Binary(t *testing.T) {
	tr := decoder()
	tr.Format = geohash.Binary
	rec := record.FromValues(testSchema(), map[string]any{"geohash": "0110111111110000010000010"})

	out, outcome := tr.Transform(rec)
	require.Equal(t, OutcomeEnriched, outcome)
	lat, _ := out.GetPath("/latitude")
	assert.InDelta(t, 42.605, lat.(float64), 0.05)
}
