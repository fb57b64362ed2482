package llm

import (
	"context"
	"errors"
)

// ErrNoTranscript is returned when speech-to-text produced no text
var ErrNoTranscript = errors.New("empty transcript")

// Transcriber turns an audio or video file into text
type Transcriber interface {
	// Name returns the provider name
	Name() string

	// Transcribe returns the spoken text in the media file at path
	Transcribe(ctx context.Context, path string) (string, error)
}

// Config holds speech-to-text provider configuration
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider: "", // Disabled by default
		Model:    "whisper-1",
		Timeout:  120,
	}
}
