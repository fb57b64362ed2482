package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/truthcore/internal/extract"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/ppiankov/truthcore/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	sourceLabel  string
	sourceURL    string
	evidences    []string
	evidenceFile string
	history      string
	mediaPath    string
	mode         string
	seed         uint64
	jsonOut      string
	mdOut        string
	scoreTimeout time.Duration
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [claim]",
	Short: "Score a single claim",
	Long: `Score computes a confidence percentage for one claim from its source,
supporting evidence, the source's track record and the claim's wording.

The claim can be given as arguments, read from stdin with "-", or
transcribed from an audio/video file with --media.

Example:
  truthcore score "Earth is flat" --source unreliable --evidence "Some blog" --history 0.2,0.3
  truthcore score "Vaccines cause autism" --source-url https://example.com/post --evidence-file notes.txt
  truthcore score --media interview.mp3 --json report.json --md report.md`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	labels := make([]string, 0, 3)
	for _, l := range model.SourceLabels() {
		labels = append(labels, string(l))
	}
	scoreCmd.Flags().StringVar(&sourceLabel, "source", "", "source credibility ("+strings.Join(labels, ", ")+"); unknown values count as neutral")
	scoreCmd.Flags().StringVar(&sourceURL, "source-url", "", "source URL, classified when --source is not given")
	scoreCmd.Flags().StringArrayVar(&evidences, "evidence", nil, "supporting evidence (repeatable)")
	scoreCmd.Flags().StringVar(&evidenceFile, "evidence-file", "", "file with one evidence item per line")
	scoreCmd.Flags().StringVar(&history, "history", "", "comma-separated past accuracy scores in [0,1]")
	scoreCmd.Flags().StringVar(&mediaPath, "media", "", "audio/video file to transcribe into the claim")
	scoreCmd.Flags().StringVar(&mode, "mode", "", "consistency mode: auto, simulated, neutral or lookup")
	scoreCmd.Flags().Uint64Var(&seed, "seed", 0, "seed for simulated consistency (0 = random)")
	scoreCmd.Flags().StringVar(&jsonOut, "json", "", "write JSON report to path (\"-\" for stdout)")
	scoreCmd.Flags().StringVar(&mdOut, "md", "", "write Markdown report to path")
	scoreCmd.Flags().DurationVar(&scoreTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScoringFlags(cmd, cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	req, err := buildScoreRequest(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		return err
	}
	logger.Debug("scoring claim", "consistency", p.Consistency(), "evidence", len(req.Evidences))

	ctx, cancel := context.WithTimeout(cmd.Context(), scoreTimeout)
	defer cancel()

	report, err := p.Score(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut == "-" {
		return p.Renderer().WriteJSON(out, report)
	}

	p.Renderer().RenderSummary(out, report)

	if err := p.RenderReport(report, jsonOut, mdOut); err != nil {
		return err
	}
	if jsonOut != "" {
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", jsonOut)
	}
	if mdOut != "" {
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", mdOut)
	}
	return nil
}

// applyScoringFlags lets explicit flags override config
func applyScoringFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("mode") {
		cfg.Scoring.ConsistencyMode = strings.ToLower(mode)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Scoring.Seed = seed
	}
}

// buildScoreRequest assembles the request from args and flags
func buildScoreRequest(stdin io.Reader, args []string) (model.ScoreRequest, error) {
	claim := strings.Join(args, " ")
	if claim == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return model.ScoreRequest{}, fmt.Errorf("read claim from stdin: %w", err)
		}
		claim = string(data)
	}
	if strings.TrimSpace(claim) == "" && mediaPath == "" {
		return model.ScoreRequest{}, pipeline.ErrEmptyClaim
	}

	evs := append([]string(nil), evidences...)
	if evidenceFile != "" {
		data, err := os.ReadFile(evidenceFile)
		if err != nil {
			return model.ScoreRequest{}, fmt.Errorf("read evidence file: %w", err)
		}
		evs = append(evs, extract.ParseEvidenceText(string(data))...)
	}

	return model.ScoreRequest{
		Claim:     claim,
		Source:    strings.ToLower(sourceLabel),
		SourceURL: sourceURL,
		Evidences: evs,
		History:   extract.ParseHistory(history),
		MediaPath: mediaPath,
	}, nil
}
