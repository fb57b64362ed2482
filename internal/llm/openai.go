package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/truthcore/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAITranscriber implements Transcriber with the OpenAI audio API
type OpenAITranscriber struct {
	client *openai.Client
	config Config
}

// NewOpenAITranscriber creates a new OpenAI transcriber
func NewOpenAITranscriber(config Config) (*OpenAITranscriber, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.HTTPProxy != "" || config.HTTPSProxy != "" {
		clientConfig.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}
	}

	return &OpenAITranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (t *OpenAITranscriber) Name() string {
	return "openai"
}

// Transcribe uploads the file at path and returns the recognised text
func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("media file: %w", err)
	}

	modelName := t.config.Model
	if modelName == "" {
		modelName = openai.Whisper1
	}

	timeout := time.Duration(t.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := t.client.CreateTranscription(ctxWithTimeout, openai.AudioRequest{
		Model:    modelName,
		FilePath: path,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoTranscript
	}

	return text, nil
}
