// Package enrich applies the geohash codec to schema-described records and
// routes each batch according to the configured strategy.
package enrich

import (
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/geohash-cli/internal/record"
	"github.com/sells-group/geohash-cli/pkg/geohash"
)

// Mode selects the transformation direction.
type Mode string

const (
	// ModeEncode reads latitude/longitude fields and writes a geohash field.
	ModeEncode Mode = "encode"
	// ModeDecode reads a geohash field and writes latitude/longitude fields.
	ModeDecode Mode = "decode"
)

// Outcome classifies what the transformer did to one record.
type Outcome string

const (
	// OutcomeEnriched means the target field(s) were written.
	OutcomeEnriched Outcome = "enriched"
	// OutcomeUnchanged means a source field was absent; nothing to do.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeFailed means a source value was present but invalid, or the
	// target write was rejected.
	OutcomeFailed Outcome = "failed"
)

// Transformer converts a single record between coordinate fields and a
// geohash field. It never returns an error: every failure degrades to an
// Outcome so the batch router can apply policy.
type Transformer struct {
	Mode        Mode
	Format      geohash.Format
	Precision   int
	LatPath     string
	LonPath     string
	GeohashPath string
}

// Transform applies the configured direction to rec. On enrichment it
// returns a new record with the target field(s) written; in every other case
// the original record is returned untouched.
func (t *Transformer) Transform(rec *record.Record) (*record.Record, Outcome) {
	if t.Mode == ModeDecode {
		return t.decode(rec)
	}
	return t.encode(rec)
}

func (t *Transformer) encode(rec *record.Record) (*record.Record, Outcome) {
	latVal, latOK := rec.GetPath(t.LatPath)
	lonVal, lonOK := rec.GetPath(t.LonPath)
	if !latOK || !lonOK {
		return rec, OutcomeUnchanged
	}

	lat, ok := toFloat(latVal)
	if !ok {
		zap.L().Debug("enrich: latitude not numeric", zap.String("path", t.LatPath))
		return rec, OutcomeFailed
	}
	lon, ok := toFloat(lonVal)
	if !ok {
		zap.L().Debug("enrich: longitude not numeric", zap.String("path", t.LonPath))
		return rec, OutcomeFailed
	}

	hash, err := geohash.Encode(lat, lon, t.Precision, t.Format)
	if err != nil {
		zap.L().Debug("enrich: encode rejected",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err),
		)
		return rec, OutcomeFailed
	}

	out := rec.Clone()
	if err := out.SetPath(t.GeohashPath, hash); err != nil {
		zap.L().Debug("enrich: geohash write rejected", zap.String("path", t.GeohashPath), zap.Error(err))
		return rec, OutcomeFailed
	}
	return out, OutcomeEnriched
}

func (t *Transformer) decode(rec *record.Record) (*record.Record, Outcome) {
	hashVal, ok := rec.GetPath(t.GeohashPath)
	if !ok {
		return rec, OutcomeUnchanged
	}
	hash, ok := hashVal.(string)
	if !ok {
		zap.L().Debug("enrich: geohash not a string", zap.String("path", t.GeohashPath))
		return rec, OutcomeFailed
	}

	lat, lon, err := geohash.Decode(hash, t.Format)
	if err != nil {
		zap.L().Debug("enrich: decode rejected", zap.String("hash", hash), zap.Error(err))
		return rec, OutcomeFailed
	}

	// Both writes land on a clone so a rejected second write leaves the
	// original record unmodified.
	out := rec.Clone()
	if err := out.SetPath(t.LatPath, lat); err != nil {
		zap.L().Debug("enrich: latitude write rejected", zap.String("path", t.LatPath), zap.Error(err))
		return rec, OutcomeFailed
	}
	if err := out.SetPath(t.LonPath, lon); err != nil {
		zap.L().Debug("enrich: longitude write rejected", zap.String("path", t.LonPath), zap.Error(err))
		return rec, OutcomeFailed
	}
	return out, OutcomeEnriched
}

// toFloat coerces the numeric representations a record reader may produce.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}
