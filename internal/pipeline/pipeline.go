package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthcore/internal/cache"
	"github.com/ppiankov/truthcore/internal/extract"
	"github.com/ppiankov/truthcore/internal/factcheck"
	"github.com/ppiankov/truthcore/internal/llm"
	"github.com/ppiankov/truthcore/internal/metrics"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/ppiankov/truthcore/internal/score"
	"github.com/ppiankov/truthcore/internal/source"
	"github.com/ppiankov/truthcore/internal/worker"
)

// ErrEmptyClaim is returned when there is no claim text to score
var ErrEmptyClaim = errors.New("claim text is required")

// Options overrides collaborators built from the config
type Options struct {
	Logger      *slog.Logger
	Searcher    score.ClaimSearcher // replaces the fact-check client
	Random      score.RandomSource  // replaces the seeded generator
	Transcriber llm.Transcriber     // replaces the configured provider
	Now         func() time.Time
}

// Pipeline orchestrates transcription, normalisation and scoring of one claim
type Pipeline struct {
	scorer      *score.Scorer
	classifier  *source.Classifier
	transcriber llm.Transcriber // nil if disabled
	renderer    *Renderer
	config      *model.Config
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline creates a pipeline from the given configuration
func NewPipeline(cfg *model.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	estimator, err := newConsistency(cfg, opts, logger)
	if err != nil {
		return nil, err
	}

	scorer, err := score.NewScorer(cfg.Scoring.Weights, estimator, logger)
	if err != nil {
		return nil, fmt.Errorf("create scorer: %w", err)
	}

	transcriber := opts.Transcriber
	if transcriber == nil {
		t, err := llm.NewTranscriber(llm.ConfigFromModel(cfg))
		if err != nil {
			logger.Warn("transcription disabled", "error", err)
		} else {
			transcriber = t
		}
	}

	return &Pipeline{
		scorer:      scorer,
		classifier:  source.NewClassifier(&cfg.Sources),
		transcriber: transcriber,
		renderer:    NewRenderer(),
		config:      cfg,
		logger:      logger,
		now:         now,
	}, nil
}

// newConsistency picks the consistency strategy for the configured mode
func newConsistency(cfg *model.Config, opts Options, logger *slog.Logger) (score.ConsistencyEstimator, error) {
	mode := strings.ToLower(cfg.Scoring.ConsistencyMode)

	if mode == model.ConsistencyNeutral {
		return score.NewNeutralConsistency(), nil
	}

	useLookup := mode == model.ConsistencyLookup ||
		(mode == model.ConsistencyAuto && (opts.Searcher != nil || cfg.FactCheck.APIKey != ""))

	if useLookup {
		searcher := opts.Searcher
		if searcher == nil {
			s, err := NewSearcher(cfg, logger)
			if err != nil {
				return nil, err
			}
			searcher = s
		}
		return score.NewLookupConsistency(searcher, cfg.FactCheck.Timeout), nil
	}

	rnd := opts.Random
	if rnd == nil {
		rnd = newRandom(cfg.Scoring.Seed)
	}
	return score.NewSimulatedConsistency(rnd), nil
}

// NewSearcher builds the rate-limited, memoised fact-check client
func NewSearcher(cfg *model.Config, logger *slog.Logger) (factcheck.Searcher, error) {
	clientOpts := factcheck.OptionsFromConfig(cfg)
	clientOpts.Limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	clientOpts.Logger = logger

	client, err := factcheck.NewClient(cfg.FactCheck.APIKey, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("create fact-check client: %w", err)
	}

	if !cfg.Cache.Enabled {
		return client, nil
	}

	memo := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	return factcheck.NewCachedSearcher(client, memo, cfg.Cache.TTL, logger, cfg.FactCheck.LanguageCode), nil
}

// newRandom returns a PCG generator; seed 0 seeds from the clock
func newRandom(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Consistency returns the name of the consistency strategy in use
func (p *Pipeline) Consistency() string {
	return p.scorer.Consistency().Name()
}

// Score runs one request through the pipeline and builds its report
func (p *Pipeline) Score(ctx context.Context, req model.ScoreRequest) (*model.Report, error) {
	var warnings []string

	claim := req.Claim
	typed := ""
	transcript := ""

	// 1. Transcribe media; a transcript replaces the typed claim
	if req.MediaPath != "" {
		if p.transcriber == nil {
			warnings = append(warnings, "media supplied but transcription is disabled; using typed claim")
		} else {
			text, err := p.transcriber.Transcribe(ctx, req.MediaPath)
			if err != nil {
				p.logger.Warn("transcription failed, using typed claim", "media", req.MediaPath, "error", err)
				warnings = append(warnings, fmt.Sprintf("transcription failed: %v", err))
			} else {
				transcript = text
				typed = claim
				claim = text
			}
		}
	}

	// 2. Normalise inputs
	claim = extract.NormalizeClaim(claim)
	if claim == "" {
		return nil, ErrEmptyClaim
	}
	evidences := extract.NormalizeEvidence(req.Evidences)

	label := model.ParseSourceLabel(req.Source)
	if strings.TrimSpace(req.Source) == "" && req.SourceURL != "" {
		label = p.classifier.Classify(req.SourceURL)
	}

	// 3. Score
	result, err := p.scorer.Calculate(ctx, model.ScoreRequest{
		Claim:     claim,
		Source:    string(label),
		Evidences: evidences,
		History:   req.History,
	})
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	for _, s := range result.Signals {
		if s.Type == model.SignalConsistencyFallback {
			warnings = append(warnings, s.Description)
		}
	}

	history := req.History
	if history == nil {
		history = []string{}
	}

	report := &model.Report{
		ID:         uuid.NewString(),
		Claim:      claim,
		TypedClaim: typed,
		Source:     label,
		SourceURL:  req.SourceURL,
		Evidences:  evidences,
		History:    history,
		Transcript: transcript,
		ScoredAt:   p.now().UTC(),
		Score:      result,
		Breakdown:  model.DefaultBreakdown(),
		Warnings:   warnings,
	}

	metrics.RecordScore(result.Level, result.Confidence)
	p.logger.Debug("claim scored",
		"id", report.ID,
		"confidence", result.Confidence,
		"level", result.Level,
		"consistency", p.Consistency())

	return report, nil
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote JSON", "path", jsonPath)
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote Markdown", "path", mdPath)
	}

	return nil
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
