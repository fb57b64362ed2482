package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/truthcore/internal/metrics"
	"github.com/ppiankov/truthcore/internal/pipeline"
	"github.com/ppiankov/truthcore/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scoring REST API",
	Long: `Serve exposes scoring over HTTP:

  GET  /api/v1/health     liveness, never gated
  POST /api/v1/score      score one claim
  POST /api/v1/feedback   record feedback on a report
  GET  /metrics           Prometheus metrics

When server.passphrase (or TRUTHCORE_PASSPHRASE) is set, every route except
health requires the X-TruthCore-Passphrase header.

Example:
  TRUTHCORE_PASSPHRASE=s3cret truthcore serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	metrics.InitMetrics()

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("starting server", "addr", cfg.Server.Addr, "consistency", p.Consistency())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(p, cfg.Server, logger).ListenAndServe(ctx)
}
