package enrich

import (
	"go.uber.org/zap"

	"github.com/sells-group/geohash-cli/internal/record"
)

// Strategy governs how a classified batch is dispatched.
type Strategy string

const (
	// StrategySkipUnenriched forwards the batch, passing unenriched records
	// through untouched, unless a record failed or nothing was enriched.
	StrategySkipUnenriched Strategy = "skip_unenriched"
	// StrategySplit emits separate enriched and unenriched batches plus an
	// untouched copy of the original batch.
	StrategySplit Strategy = "split"
	// StrategyRequireAllEnriched fails the whole batch unless every record
	// was enriched.
	StrategyRequireAllEnriched Strategy = "require_all_enriched"
)

// Disposition is the terminal routing decision for one batch.
type Disposition string

const (
	ForwardAll   Disposition = "forward_all"
	ForwardSplit Disposition = "forward_split"
	FailAll      Disposition = "fail_all"
)

// Stats counts per-record outcomes across one batch.
type Stats struct {
	Enriched  int `json:"enriched"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// BatchResult is the routed output of one batch. Empty sequences mean the
// corresponding output is suppressed. The router performs no I/O; the caller
// hands each non-empty sequence to a record writer.
type BatchResult struct {
	Disposition Disposition      `json:"disposition"`
	Success     []*record.Record `json:"-"`
	Failure     []*record.Record `json:"-"`
	Original    []*record.Record `json:"-"`
	Stats       Stats            `json:"stats"`
}

// Router runs every record in a batch through the transformer and applies
// the routing strategy once the batch is exhausted. All state is local to
// the Route call, so one Router may serve concurrent batches.
type Router struct {
	Transformer *Transformer
	Strategy    Strategy
}

// Route classifies recs and decides the batch disposition.
func (r *Router) Route(recs []*record.Record) *BatchResult {
	// Collecting: partition transformed records from the rest, preserving
	// input order within each partition. merged carries the transformed
	// record where one was produced and the original otherwise.
	var (
		enriched []*record.Record
		rest     []*record.Record
		merged   = make([]*record.Record, 0, len(recs))
		stats    Stats
	)
	for _, rec := range recs {
		out, outcome := r.Transformer.Transform(rec)
		switch outcome {
		case OutcomeEnriched:
			stats.Enriched++
			enriched = append(enriched, out)
		case OutcomeFailed:
			stats.Failed++
			rest = append(rest, rec)
		default:
			stats.Unchanged++
			rest = append(rest, rec)
		}
		merged = append(merged, out)
	}

	// Deciding: apply the configured strategy. FailAll always routes the
	// untouched input batch to the failure output.
	res := &BatchResult{Stats: stats}
	switch r.Strategy {
	case StrategySplit:
		res.Disposition = ForwardSplit
		res.Success = enriched
		res.Failure = rest
		if len(recs) > 0 {
			res.Original = recs
		}

	case StrategyRequireAllEnriched:
		if len(rest) > 0 {
			res.Disposition = FailAll
			res.Failure = recs
		} else {
			res.Disposition = ForwardAll
			res.Success = merged
		}

	default: // StrategySkipUnenriched
		switch {
		case stats.Failed > 0:
			res.Disposition = FailAll
			res.Failure = recs
		case stats.Enriched == 0 && len(recs) > 0:
			// Nothing in the batch was enrichable.
			res.Disposition = FailAll
			res.Failure = recs
		default:
			res.Disposition = ForwardAll
			res.Success = merged
		}
	}

	zap.L().Debug("enrich: batch routed",
		zap.String("strategy", string(r.Strategy)),
		zap.String("disposition", string(res.Disposition)),
		zap.Int("enriched", stats.Enriched),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("failed", stats.Failed),
	)
	return res
}
