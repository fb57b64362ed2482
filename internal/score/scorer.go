package score

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/truthcore/internal/model"
)

// NeutralScore is used whenever an estimator lacks sufficient data
const NeutralScore = 0.5

// ManipulationPenalty is subtracted once per sensational keyword found
const ManipulationPenalty = 0.1

var lineageScores = map[model.SourceLabel]float64{
	model.SourceReputable:  0.9,
	model.SourceNeutral:    0.5,
	model.SourceUnreliable: 0.1,
}

var sensationalKeywords = []string{"shocking", "unbelievable", "exposed"}

// ParseError reports a reliability history entry that is not a finite number
type ParseError struct {
	Index int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reliability history entry %d (%q) is not a number: %v", e.Index, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Scorer combines the four sub-scores into a confidence percentage
type Scorer struct {
	weights     model.Weights // normalized at construction
	consistency ConsistencyEstimator
	logger      *slog.Logger
}

// NewScorer creates a scorer. The weights are validated and normalized here so a
// bad configuration fails before the first claim is scored.
func NewScorer(weights model.Weights, consistency ConsistencyEstimator, logger *slog.Logger) (*Scorer, error) {
	normalized, err := NormalizeWeights(weights)
	if err != nil {
		return nil, err
	}
	if consistency == nil {
		consistency = NewNeutralConsistency()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		weights:     normalized,
		consistency: consistency,
		logger:      logger,
	}, nil
}

// Consistency returns the consistency strategy in use
func (s *Scorer) Consistency() ConsistencyEstimator {
	return s.consistency
}

// Calculate scores one claim. The only error it returns is a *ParseError for a
// malformed reliability history; lookup failures degrade to the neutral value.
func (s *Scorer) Calculate(ctx context.Context, req model.ScoreRequest) (model.Score, error) {
	var signals []model.Signal

	// 1. Source lineage
	lineage := Lineage(req.Source)
	signals = append(signals, lineageSignal(req.Source, lineage))

	// 2. Historical reliability (validated before any network call)
	reliability, err := Reliability(req.History)
	if err != nil {
		return model.Score{}, err
	}
	signals = append(signals, reliabilitySignal(req.History, reliability))

	// 3. Evidence consistency
	consistency := s.consistency.Estimate(ctx, req.Claim, req.Evidences)
	signals = append(signals, consistencySignal(consistency))
	if consistency.Fallback {
		s.logger.Warn("consistency lookup failed, using neutral value",
			"estimator", consistency.Mode, "reason", consistency.Reason)
		signals = append(signals, model.Signal{
			Type:        model.SignalConsistencyFallback,
			Severity:    model.SeverityWarning,
			Description: "Fact-check lookup unavailable, neutral consistency used",
			Data: map[string]interface{}{
				"reason": consistency.Reason,
				"value":  NeutralScore,
			},
		})
	}

	// 4. Manipulation signals
	manipulation, matched := manipulationScore(req.Claim)
	signals = append(signals, manipulationSignal(matched, manipulation))

	sub := ClampSubScores(model.SubScores{
		Lineage:      lineage,
		Consistency:  consistency.Value,
		Reliability:  reliability,
		Manipulation: manipulation,
	})

	confidence, err := Combine(sub, s.weights)
	if err != nil {
		return model.Score{}, err
	}

	return model.Score{
		Confidence: confidence,
		Level:      determineLevel(confidence),
		SubScores:  sub,
		Weights:    s.weights,
		Signals:    signals,
	}, nil
}

// Lineage maps a source label to a credibility score. It is total over all
// strings: anything that is not a known label yields the neutral default.
func Lineage(label string) float64 {
	if v, ok := lineageScores[model.SourceLabel(strings.ToLower(strings.TrimSpace(label)))]; ok {
		return v
	}
	return NeutralScore
}

// Reliability returns the mean of the history entries, or the neutral default
// for an empty history. Any entry that is not a finite number is an error.
func Reliability(history []string) (float64, error) {
	if len(history) == 0 {
		return NeutralScore, nil
	}

	sum := 0.0
	for i, raw := range history {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, &ParseError{Index: i, Value: raw, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ParseError{Index: i, Value: raw, Err: strconv.ErrRange}
		}
		sum += v
	}
	return sum / float64(len(history)), nil
}

// Manipulation penalizes sensational phrasing. Each distinct keyword counts
// once no matter how often it occurs.
func Manipulation(claim string) float64 {
	score, _ := manipulationScore(claim)
	return score
}

func manipulationScore(claim string) (float64, []string) {
	lower := strings.ToLower(claim)
	var matched []string
	for _, kw := range sensationalKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	return math.Max(0, 1.0-float64(len(matched))*ManipulationPenalty), matched
}

func lineageSignal(label string, score float64) model.Signal {
	resolved := model.ParseSourceLabel(label)
	severity := model.SeverityInfo
	if resolved == model.SourceUnreliable {
		severity = model.SeverityWarning
	}
	return model.Signal{
		Type:        model.SignalLineage,
		Severity:    severity,
		Description: fmt.Sprintf("Source labelled %s", resolved),
		Data: map[string]interface{}{
			"input":   label,
			"label":   string(resolved),
			"score":   score,
			"formula": "reputable=0.9, neutral=0.5, unreliable=0.1, otherwise 0.5",
		},
	}
}

func reliabilitySignal(history []string, score float64) model.Signal {
	if len(history) == 0 {
		return model.Signal{
			Type:        model.SignalReliability,
			Severity:    model.SeverityInfo,
			Description: "No reliability history (assuming neutral)",
			Data:        map[string]interface{}{"samples": 0, "score": score},
		}
	}

	severity := model.SeverityInfo
	if score < 0.3 {
		severity = model.SeverityCritical
	} else if score < 0.5 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalReliability,
		Severity:    severity,
		Description: fmt.Sprintf("Mean of %d past observations: %.2f", len(history), score),
		Data: map[string]interface{}{
			"samples": len(history),
			"score":   score,
			"formula": "mean(history)",
		},
	}
}

func consistencySignal(c Consistency) model.Signal {
	data := map[string]interface{}{
		"mode":  c.Mode,
		"score": c.Value,
	}
	description := fmt.Sprintf("Consistency %.2f (%s)", c.Value, c.Mode)

	switch {
	case c.Total > 0:
		data["positive"] = c.Positive
		data["total"] = c.Total
		data["formula"] = "positive_claims / total_claims"
		description = fmt.Sprintf("%d of %d fact-checked claims rated positive", c.Positive, c.Total)
	case c.Samples > 0:
		data["samples"] = c.Samples
		data["formula"] = "mean(simulated agreement per evidence)"
	}

	severity := model.SeverityInfo
	if c.Fallback {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalConsistency,
		Severity:    severity,
		Description: description,
		Data:        data,
	}
}

func manipulationSignal(matched []string, score float64) model.Signal {
	severity := model.SeverityInfo
	if len(matched) > 1 {
		severity = model.SeverityWarning
	}
	if matched == nil {
		matched = []string{}
	}
	return model.Signal{
		Type:        model.SignalManipulation,
		Severity:    severity,
		Description: fmt.Sprintf("%d sensational keyword(s) found", len(matched)),
		Data: map[string]interface{}{
			"keywords": matched,
			"score":    score,
			"formula":  "max(0, 1 - 0.1 * distinct_keywords)",
		},
	}
}

// determineLevel buckets the final percentage
func determineLevel(confidence float64) string {
	if confidence >= 80 {
		return "high"
	} else if confidence >= 60 {
		return "medium"
	}
	return "low"
}
