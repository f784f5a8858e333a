package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geohash-cli/internal/enrich"
	"github.com/sells-group/geohash-cli/internal/model"
	"github.com/sells-group/geohash-cli/internal/store"
	"github.com/sells-group/geohash-cli/pkg/geohash"
)

func testRouter(strategy enrich.Strategy) *enrich.Router {
	return &enrich.Router{
		Transformer: &enrich.Transformer{
			Mode:        enrich.ModeEncode,
			Format:      geohash.Base32,
			Precision:   12,
			LatPath:     "/latitude",
			LonPath:     "/longitude",
			GeohashPath: "/geohash",
		},
		Strategy: strategy,
	}
}

func writeInputJSON(t *testing.T, rows []map[string]any) string {
	t.Helper()
	data, err := json.Marshal(rows)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func readOutputJSON(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	return rows
}

func TestProcessFile_Split(t *testing.T) {
	path := writeInputJSON(t, []map[string]any{
		{"name": "leon", "latitude": 42.605, "longitude": -5.603},
		{"name": "nowhere"},
	})

	res, err := processFile(context.Background(), testRouter(enrich.StrategySplit), nil, path)
	require.NoError(t, err)
	assert.Equal(t, enrich.ForwardSplit, res.Disposition)

	base := path[:len(path)-len(".json")]

	success := readOutputJSON(t, base+".success.json")
	require.Len(t, success, 1)
	hash, _ := success[0]["geohash"].(string)
	require.Len(t, hash, 12)
	assert.Equal(t, "ezs42", hash[:5])

	failure := readOutputJSON(t, base+".failure.json")
	require.Len(t, failure, 1)
	assert.Equal(t, "nowhere", failure[0]["name"])
	assert.NotContains(t, failure[0], "geohash")

	original := readOutputJSON(t, base+".original.json")
	require.Len(t, original, 2)
	assert.NotContains(t, original[0], "geohash")
}

func TestProcessFile_SkipUnenriched_ForwardsAll(t *testing.T) {
	path := writeInputJSON(t, []map[string]any{
		{"name": "leon", "latitude": 42.605, "longitude": -5.603},
		{"name": "nowhere"},
	})

	res, err := processFile(context.Background(), testRouter(enrich.StrategySkipUnenriched), nil, path)
	require.NoError(t, err)
	assert.Equal(t, enrich.ForwardAll, res.Disposition)

	base := path[:len(path)-len(".json")]

	// Unchanged records pass through in order alongside the enriched ones.
	success := readOutputJSON(t, base+".success.json")
	require.Len(t, success, 2)
	assert.Contains(t, success[0], "geohash")
	assert.Equal(t, "nowhere", success[1]["name"])

	_, err = os.Stat(base + ".failure.json")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(base + ".original.json")
	assert.True(t, os.IsNotExist(err))
}

func TestProcessFile_FailAll(t *testing.T) {
	path := writeInputJSON(t, []map[string]any{
		{"name": "offgrid", "latitude": 99.0, "longitude": 0.0},
	})

	res, err := processFile(context.Background(), testRouter(enrich.StrategySkipUnenriched), nil, path)
	require.NoError(t, err)
	assert.Equal(t, enrich.FailAll, res.Disposition)

	base := path[:len(path)-len(".json")]
	failure := readOutputJSON(t, base+".failure.json")
	require.Len(t, failure, 1)
	assert.NotContains(t, failure[0], "geohash")

	_, err = os.Stat(base + ".success.json")
	assert.True(t, os.IsNotExist(err))
}

func TestProcessFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	_, err := processFile(context.Background(), testRouter(enrich.StrategySplit), nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestProcessFile_RecordsRun(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	path := writeInputJSON(t, []map[string]any{
		{"latitude": 42.605, "longitude": -5.603},
	})

	_, err = processFile(context.Background(), testRouter(enrich.StrategySkipUnenriched), st, path)
	require.NoError(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Input: path})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusCompleted, runs[0].Status)
	require.NotNil(t, runs[0].Stats)
	assert.Equal(t, 1, runs[0].Stats.Enriched)
	assert.Equal(t, string(enrich.ForwardAll), runs[0].Stats.Disposition)
}

func TestProcessFile_ReadErrorMarksRunFailed(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err = processFile(context.Background(), testRouter(enrich.StrategySplit), st, path)
	require.Error(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Input: path})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Nil(t, runs[0].Stats)
}
