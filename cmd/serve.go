package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geohash-cli/internal/enrich"
	"github.com/sells-group/geohash-cli/internal/record"
	"github.com/sells-group/geohash-cli/internal/source"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for enrichment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /enrich", enrichHandler(env.Router))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&flagMode, "mode", "", "transform mode: encode or decode (default from config)")
	serveCmd.Flags().StringVar(&flagStrategy, "strategy", "", "routing strategy: skip_unenriched, split, or require_all_enriched")
	serveCmd.Flags().StringVar(&flagFormat, "format", "", "geohash format: base32 or binary")
	serveCmd.Flags().IntVar(&flagPrecision, "precision", 0, "geohash precision (characters for base32, bits for binary)")
	rootCmd.AddCommand(serveCmd)
}

// enrichResponse is the JSON body returned for one routed batch.
type enrichResponse struct {
	Disposition enrich.Disposition `json:"disposition"`
	Stats       enrich.Stats       `json:"stats"`
	Success     []map[string]any   `json:"success,omitempty"`
	Failure     []map[string]any   `json:"failure,omitempty"`
	Original    []map[string]any   `json:"original,omitempty"`
}

// enrichHandler routes a JSON array of records posted as the request body and
// responds with the routed batch. The whole batch is processed synchronously.
func enrichHandler(router *enrich.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reader := &source.JSONReader{}
		data, err := readBody(r)
		if err != nil {
			http.Error(w, `{"error":"read request body"}`, http.StatusBadRequest)
			return
		}

		recs, err := reader.Read(data)
		if err != nil {
			http.Error(w, `{"error":"body must be a JSON array of objects"}`, http.StatusBadRequest)
			return
		}

		res := router.Route(recs)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(enrichResponse{
			Disposition: res.Disposition,
			Stats:       res.Stats,
			Success:     recordValues(res.Success),
			Failure:     recordValues(res.Failure),
			Original:    recordValues(res.Original),
		})
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func recordValues(recs []*record.Record) []map[string]any {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rec.Values())
	}
	return rows
}
