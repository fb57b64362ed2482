package score

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/truthcore/internal/factcheck"
	"github.com/ppiankov/truthcore/internal/metrics"
)

// Consistency strategy names
const (
	ModeSimulated = "simulated"
	ModeLookup    = "lookup"
	ModeNeutral   = "neutral"
)

// DefaultLookupTimeout bounds a lookup when no explicit timeout is given
const DefaultLookupTimeout = 10 * time.Second

// positiveRatings are the textual ratings counted as agreement (compared lower-case)
var positiveRatings = map[string]bool{
	"true":        true,
	"mostly true": true,
	"accurate":    true,
	"correct":     true,
}

// Consistency is the outcome of one consistency estimate
type Consistency struct {
	Value    float64 // Always in [0,1]
	Mode     string  // Strategy that produced the value
	Fallback bool    // True when the lookup failed and NeutralScore was substituted
	Reason   string  // Failure reason when Fallback is set
	Positive int     // Lookup: claims with a positive rating
	Total    int     // Lookup: claims returned
	Samples  int     // Simulated: evidence items drawn
}

// ConsistencyEstimator estimates agreement between a claim and known evidence.
// Implementations never return an error; they degrade to NeutralScore.
type ConsistencyEstimator interface {
	Name() string
	Estimate(ctx context.Context, claim string, evidences []string) Consistency
}

// ClaimSearcher looks up published claim reviews for a query
type ClaimSearcher interface {
	Search(ctx context.Context, query string) ([]factcheck.Claim, error)
}

// RandomSource supplies placeholder agreement values in [0,1).
// *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// SelectConsistency returns the lookup strategy when a searcher is supplied and
// the simulated strategy otherwise.
func SelectConsistency(searcher ClaimSearcher, rnd RandomSource, timeout time.Duration) ConsistencyEstimator {
	if searcher != nil {
		return NewLookupConsistency(searcher, timeout)
	}
	return NewSimulatedConsistency(rnd)
}

// SimulatedConsistency stands in for real evidence comparison. Each evidence
// item receives one placeholder agreement draw and the draws are averaged. The
// result is non-deterministic unless the random source is seeded.
type SimulatedConsistency struct {
	mu  sync.Mutex
	rnd RandomSource
}

// NewSimulatedConsistency creates a simulated estimator drawing from rnd.
// A nil rnd is replaced by a clock-seeded PCG generator.
func NewSimulatedConsistency(rnd RandomSource) *SimulatedConsistency {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &SimulatedConsistency{rnd: rnd}
}

// Name returns the strategy name
func (s *SimulatedConsistency) Name() string {
	return ModeSimulated
}

// Estimate averages one draw per evidence item; no evidence yields NeutralScore
func (s *SimulatedConsistency) Estimate(_ context.Context, _ string, evidences []string) Consistency {
	if len(evidences) == 0 {
		return Consistency{Value: NeutralScore, Mode: ModeSimulated}
	}

	s.mu.Lock()
	sum := 0.0
	for range evidences {
		sum += clamp01(s.rnd.Float64())
	}
	s.mu.Unlock()

	return Consistency{
		Value:   clamp01(sum / float64(len(evidences))),
		Mode:    ModeSimulated,
		Samples: len(evidences),
	}
}

// LookupConsistency scores a claim by the share of published fact-checks
// that rate it positively.
type LookupConsistency struct {
	searcher ClaimSearcher
	timeout  time.Duration
}

// NewLookupConsistency creates a lookup estimator. A non-positive timeout
// falls back to DefaultLookupTimeout.
func NewLookupConsistency(searcher ClaimSearcher, timeout time.Duration) *LookupConsistency {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &LookupConsistency{
		searcher: searcher,
		timeout:  timeout,
	}
}

// Name returns the strategy name
func (l *LookupConsistency) Name() string {
	return ModeLookup
}

// Estimate queries the searcher under the configured timeout. Every failure
// maps to NeutralScore with Fallback set.
func (l *LookupConsistency) Estimate(ctx context.Context, claim string, _ []string) Consistency {
	if strings.TrimSpace(claim) == "" {
		return Consistency{Value: NeutralScore, Mode: ModeLookup}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	timer := metrics.StartTimer()
	claims, err := l.search(ctx, claim)
	timer.ObserveLookup()

	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "lookup timed out: " + reason
		}
		metrics.RecordLookup("fallback")
		return Consistency{
			Value:    NeutralScore,
			Mode:     ModeLookup,
			Fallback: true,
			Reason:   reason,
		}
	}

	if len(claims) == 0 {
		metrics.RecordLookup("empty")
		return Consistency{Value: NeutralScore, Mode: ModeLookup}
	}

	positive := 0
	for _, c := range claims {
		if hasPositiveReview(c) {
			positive++
		}
	}

	metrics.RecordLookup("ok")
	return Consistency{
		Value:    float64(positive) / float64(len(claims)),
		Mode:     ModeLookup,
		Positive: positive,
		Total:    len(claims),
	}
}

// search runs the lookup and converts a panic in the collaborator into an error
func (l *LookupConsistency) search(ctx context.Context, claim string) (claims []factcheck.Claim, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims, err = nil, errors.New("claim searcher panicked")
		}
	}()
	return l.searcher.Search(ctx, claim)
}

func hasPositiveReview(c factcheck.Claim) bool {
	for _, r := range c.ClaimReview {
		if positiveRatings[strings.ToLower(strings.TrimSpace(r.TextualRating))] {
			return true
		}
	}
	return false
}

// NeutralConsistency always returns NeutralScore
type NeutralConsistency struct{}

// NewNeutralConsistency creates a neutral estimator
func NewNeutralConsistency() *NeutralConsistency {
	return &NeutralConsistency{}
}

// Name returns the strategy name
func (n *NeutralConsistency) Name() string {
	return ModeNeutral
}

// Estimate always returns NeutralScore
func (n *NeutralConsistency) Estimate(context.Context, string, []string) Consistency {
	return Consistency{Value: NeutralScore, Mode: ModeNeutral}
}
