package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/truthcore/internal/model"
	"github.com/ppiankov/truthcore/internal/pipeline"
	"github.com/ppiankov/truthcore/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file.yaml>",
	Short: "Score many claims from a YAML file in parallel",
	Long: `Batch scores every claim in a YAML file concurrently. The file is either a
list of requests or a mapping with a "claims" list:

  claims:
    - claim: Earth is flat
      source: unreliable
      evidences: ["Some blog"]
      history: [0.2, 0.3]
    - claim: Water boils at 100C at sea level
      source_url: https://www.nature.com/articles/x

Results keep the order of the file. One failing claim does not stop the rest.

Example:
  truthcore batch claims.yaml
  truthcore batch claims.yaml --concurrency 8 --output reports.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write all reports as a JSON array to path")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&mode, "mode", "", "consistency mode: auto, simulated, neutral or lookup")
	batchCmd.Flags().Uint64Var(&seed, "seed", 0, "seed for simulated consistency (0 = random)")
}

// batchEntry is one element of the --output array
type batchEntry struct {
	Index  int           `json:"index"`
	Claim  string        `json:"claim"`
	Report *model.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScoringFlags(cmd, cfg)
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	logger.Info("batch started", "file", file, "workers", cfg.Concurrency.Workers, "consistency", p.Consistency())
	start := time.Now()

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := make([]pipeline.BatchResult, 0, len(results))
	entries := make([]batchEntry, 0, len(results))
	failures := 0
	for _, res := range results {
		summary = append(summary, pipeline.BatchResult{
			Index:  res.Index,
			Claim:  res.Request.Claim,
			Report: res.Report,
			Err:    res.Error,
		})

		entry := batchEntry{Index: res.Index, Claim: res.Request.Claim, Report: res.Report}
		if res.Error != nil {
			failures++
			entry.Error = res.Error.Error()
		}
		entries = append(entries, entry)
	}

	p.Renderer().RenderBatchSummary(cmd.OutOrStdout(), summary)

	if batchOutput != "" {
		if err := writeBatchOutput(batchOutput, entries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Reports: %s\n", batchOutput)
	}

	logger.Info("batch complete",
		"total", len(results),
		"failed", failures,
		"duration", time.Since(start).Round(time.Millisecond))

	if failures > 0 {
		return fmt.Errorf("%d of %d claims failed", failures, len(results))
	}
	return nil
}

func writeBatchOutput(path string, entries []batchEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	return nil
}
