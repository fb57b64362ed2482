package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/truthcore/internal/model"
)

// NewTranscriber creates a transcriber based on configuration.
// An empty provider disables transcription and returns nil.
func NewTranscriber(config Config) (Transcriber, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai", "whisper":
		return NewOpenAITranscriber(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown transcription provider: %s (supported: openai)", config.Provider)
	}
}

// ConfigFromModel converts the application config to llm.Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.Transcription.Provider,
		Model:      cfg.Transcription.Model,
		APIKey:     cfg.Transcription.APIKey,
		BaseURL:    cfg.Transcription.BaseURL,
		Timeout:    cfg.Transcription.Timeout,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
	}
}
