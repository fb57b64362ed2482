package model

import "strings"

// ScoreRequest is a single claim submitted for confidence scoring
type ScoreRequest struct {
	Claim     string   `json:"claim" yaml:"claim"`                               // The claim text itself
	Source    string   `json:"source,omitempty" yaml:"source,omitempty"`         // Source label (reputable, neutral, unreliable)
	SourceURL string   `json:"source_url,omitempty" yaml:"source_url,omitempty"` // Resolved to a label when Source is empty
	Evidences []string `json:"evidences,omitempty" yaml:"evidences,omitempty"`   // Supporting or refuting text, one item per entry
	History   []string `json:"history,omitempty" yaml:"history,omitempty"`       // Past accuracy observations in [0,1]
	MediaPath string   `json:"media_path,omitempty" yaml:"media_path,omitempty"` // Optional audio/video file to transcribe
}

// SourceLabel categorizes the credibility of a claim's source
type SourceLabel string

const (
	SourceReputable  SourceLabel = "reputable"  // e.g. wire services, public broadcasters
	SourceNeutral    SourceLabel = "neutral"    // e.g. blogs, unknown outlets
	SourceUnreliable SourceLabel = "unreliable" // e.g. known fabrication sites
)

// ParseSourceLabel maps arbitrary text onto the closed label set.
// Unrecognized values fall back to neutral.
func ParseSourceLabel(s string) SourceLabel {
	switch SourceLabel(strings.ToLower(strings.TrimSpace(s))) {
	case SourceReputable:
		return SourceReputable
	case SourceUnreliable:
		return SourceUnreliable
	default:
		return SourceNeutral
	}
}

// SourceLabels lists the labels in presentation order
func SourceLabels() []SourceLabel {
	return []SourceLabel{SourceReputable, SourceNeutral, SourceUnreliable}
}
