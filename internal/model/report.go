package model

import "time"

// Report represents the complete TruthCore result for one claim
type Report struct {
	ID         string      `json:"id"`                    // Random report identifier
	Claim      string      `json:"claim"`                 // Claim text that was scored (transcript if one replaced it)
	TypedClaim string      `json:"typed_claim,omitempty"` // Original text when a transcript replaced it
	Source     SourceLabel `json:"source"`                // Resolved source label
	SourceURL  string      `json:"source_url,omitempty"`
	Evidences  []string    `json:"evidences"`
	History    []string    `json:"history"`
	Transcript string      `json:"transcript,omitempty"` // Speech-to-text output, if media was supplied
	ScoredAt   time.Time   `json:"scored_at"`

	Score     Score           `json:"score"`
	Breakdown []BreakdownLine `json:"breakdown"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// Score represents the transparent scoring breakdown
type Score struct {
	Confidence float64   `json:"confidence"` // Final percentage (0-100, two decimals)
	Level      string    `json:"level"`      // "low", "medium", "high"
	SubScores  SubScores `json:"sub_scores"` // Clamped sub-scores that were combined
	Weights    Weights   `json:"weights"`    // L1-normalized weights that were applied
	Signals    []Signal  `json:"signals"`    // Diagnostic signals with transparent data
}

// SubScores holds the four independent estimates in [0,1]
type SubScores struct {
	Lineage      float64 `json:"lineage"`
	Consistency  float64 `json:"consistency"`
	Reliability  float64 `json:"reliability"`
	Manipulation float64 `json:"manipulation"`
}

// Weights holds one non-negative weight per sub-score. They need not sum to 1.
type Weights struct {
	Lineage      float64 `json:"lineage" yaml:"lineage" mapstructure:"lineage"`
	Consistency  float64 `json:"consistency" yaml:"consistency" mapstructure:"consistency"`
	Reliability  float64 `json:"reliability" yaml:"reliability" mapstructure:"reliability"`
	Manipulation float64 `json:"manipulation" yaml:"manipulation" mapstructure:"manipulation"`
}

// DefaultWeights returns the stock weighting (0.3, 0.3, 0.2, 0.2)
func DefaultWeights() Weights {
	return Weights{
		Lineage:      0.3,
		Consistency:  0.3,
		Reliability:  0.2,
		Manipulation: 0.2,
	}
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Transparent scoring data (formulas, inputs)
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalLineage             SignalType = "lineage"              // Source credibility
	SignalConsistency         SignalType = "consistency"          // Evidence / fact-check agreement
	SignalReliability         SignalType = "reliability"          // Historical accuracy
	SignalManipulation        SignalType = "manipulation"         // Sensational phrasing
	SignalConsistencyFallback SignalType = "consistency_fallback" // Lookup failed, neutral value used
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// BreakdownLine is a fixed, human-readable explanation of one sub-score
type BreakdownLine struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// DefaultBreakdown returns the static breakdown labels shown next to a score
func DefaultBreakdown() []BreakdownLine {
	return []BreakdownLine{
		{Name: "Source Lineage", Label: "Based on selected credibility."},
		{Name: "Evidence Consistency", Label: "From fact-check lookup or fallback."},
		{Name: "Historical Reliability", Label: "Average of provided scores."},
		{Name: "Manipulation Signals", Label: "Checked for sensationalism."},
	}
}
