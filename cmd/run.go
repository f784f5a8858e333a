package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geohash-cli/internal/enrich"
	"github.com/sells-group/geohash-cli/internal/model"
	"github.com/sells-group/geohash-cli/internal/record"
	"github.com/sells-group/geohash-cli/internal/source"
	"github.com/sells-group/geohash-cli/internal/store"
)

var runConcurrency int

var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Enrich record batches from input files",
	Long:  "Reads each input file (JSON, XLSX, or shapefile) as one batch, transforms every record, and writes the routed outputs next to the input.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("processing inputs",
			zap.Int("files", len(args)),
			zap.Int("concurrency", runConcurrency),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runConcurrency)

		var succeeded, failed atomic.Int64

		for _, path := range args {
			g.Go(func() error {
				log := zap.L().With(zap.String("input", path))

				res, err := processFile(gctx, env.Router, env.Store, path)
				if err != nil {
					failed.Add(1)
					log.Error("batch failed", zap.Error(err))
					return nil // keep processing the other inputs
				}

				succeeded.Add(1)
				log.Info("batch routed",
					zap.String("disposition", string(res.Disposition)),
					zap.Int("enriched", res.Stats.Enriched),
					zap.Int("unchanged", res.Stats.Unchanged),
					zap.Int("failed", res.Stats.Failed),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "run: batch processing")
		}

		zap.L().Info("run complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&flagMode, "mode", "", "transform mode: encode or decode (default from config)")
	runCmd.Flags().StringVar(&flagStrategy, "strategy", "", "routing strategy: skip_unenriched, split, or require_all_enriched")
	runCmd.Flags().StringVar(&flagFormat, "format", "", "geohash format: base32 or binary")
	runCmd.Flags().IntVar(&flagPrecision, "precision", 0, "geohash precision (characters for base32, bits for binary)")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 4, "max input files processed in parallel")
	rootCmd.AddCommand(runCmd)
}

// processFile reads one input file as a batch, routes it, and writes each
// non-empty output next to the input. st may be nil when run history is
// disabled.
func processFile(ctx context.Context, router *enrich.Router, st store.Store, path string) (*enrich.BatchResult, error) {
	reader, err := source.ForPath(path)
	if err != nil {
		return nil, err
	}

	var runID string
	if st != nil {
		run, err := st.CreateRun(ctx, path, string(router.Transformer.Mode), string(router.Strategy))
		if err != nil {
			return nil, eris.Wrap(err, "run: create run record")
		}
		runID = run.ID
	}

	recs, err := reader.ReadFile(path)
	if err != nil {
		if st != nil {
			if cErr := st.CompleteRun(ctx, runID, model.RunStatusFailed, nil); cErr != nil {
				zap.L().Warn("run: record failure", zap.String("run_id", runID), zap.Error(cErr))
			}
		}
		return nil, err
	}

	res := router.Route(recs)

	if err := writeOutputs(path, res); err != nil {
		if st != nil {
			if cErr := st.CompleteRun(ctx, runID, model.RunStatusFailed, nil); cErr != nil {
				zap.L().Warn("run: record failure", zap.String("run_id", runID), zap.Error(cErr))
			}
		}
		return nil, err
	}

	if st != nil {
		stats := &model.BatchStats{
			Records:     len(recs),
			Enriched:    res.Stats.Enriched,
			Unchanged:   res.Stats.Unchanged,
			Failed:      res.Stats.Failed,
			Disposition: string(res.Disposition),
		}
		if err := st.CompleteRun(ctx, runID, model.RunStatusCompleted, stats); err != nil {
			return nil, eris.Wrap(err, "run: record completion")
		}
	}

	return res, nil
}

// writeOutputs writes each non-empty routed sequence as an indented JSON
// array beside the input file.
func writeOutputs(path string, res *enrich.BatchResult) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))

	w := &source.JSONWriter{Indent: true}
	outputs := []struct {
		suffix string
		recs   []*record.Record
	}{
		{".success.json", res.Success},
		{".failure.json", res.Failure},
		{".original.json", res.Original},
	}

	for _, out := range outputs {
		if len(out.recs) == 0 {
			continue
		}
		data, err := w.Write(out.recs)
		if err != nil {
			return err
		}
		dest := base + out.suffix
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return eris.Wrapf(err, "run: write %s", dest)
		}
	}
	return nil
}
