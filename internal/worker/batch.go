package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/truthcore/internal/model"
	"gopkg.in/yaml.v3"
)

// Scorer scores a single request
type Scorer interface {
	Score(ctx context.Context, req model.ScoreRequest) (*model.Report, error)
}

// ScoreJob scores one request of a batch
type ScoreJob struct {
	Index   int
	Request model.ScoreRequest
	Scorer  Scorer
}

// Execute executes the score job
func (j *ScoreJob) Execute(ctx context.Context) Result {
	report, err := j.Scorer.Score(ctx, j.Request)
	return &ScoreResult{
		Index:   j.Index,
		Request: j.Request,
		Report:  report,
		Error:   err,
	}
}

// ScoreResult represents the result of a score job
type ScoreResult struct {
	Index   int
	Request model.ScoreRequest
	Report  *model.Report
	Error   error
}

// GetError returns the error from the score result
func (r *ScoreResult) GetError() error {
	return r.Error
}

// BatchProcessor scores many requests concurrently
type BatchProcessor struct {
	scorer      Scorer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scorer Scorer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scorer:      scorer,
		concurrency: concurrency,
	}
}

// ProcessRequests scores every request and returns results in input order.
// Requests that could not be submitted before ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessRequests(ctx context.Context, reqs []model.ScoreRequest) []*ScoreResult {
	if len(reqs) == 0 {
		return []*ScoreResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	submitted := make([]bool, len(reqs))
	for i, req := range reqs {
		submitted[i] = pool.Submit(&ScoreJob{
			Index:   i,
			Request: req,
			Scorer:  b.scorer,
		})
	}

	results := pool.Wait()

	out := make([]*ScoreResult, len(reqs))
	for i := range reqs {
		if r, ok := results[i].(*ScoreResult); ok && r != nil {
			out[i] = r
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = errors.New("request was not processed")
		}
		if !submitted[i] {
			err = fmt.Errorf("not submitted: %w", err)
		}
		out[i] = &ScoreResult{Index: i, Request: reqs[i], Error: err}
	}
	return out
}

// ProcessFile reads requests from a YAML or JSON file and scores them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScoreResult, error) {
	reqs, err := ReadRequestsFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}

	return b.ProcessRequests(ctx, reqs), nil
}

// batchFile is the document form: either a bare list or a "claims" key
type batchFile struct {
	Claims []model.ScoreRequest `yaml:"claims"`
}

// ReadRequestsFile reads score requests from a YAML or JSON file.
// The document is either a list of requests or a mapping with a "claims" list.
func ReadRequestsFile(filePath string) ([]model.ScoreRequest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return ParseRequests(data)
}

// ParseRequests decodes a batch document
func ParseRequests(data []byte) ([]model.ScoreRequest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.ScoreRequest{}, nil
	}

	var node yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.ScoreRequest{}, nil
		}
		return nil, fmt.Errorf("parse batch file: %w", err)
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	var reqs []model.ScoreRequest
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&reqs); err != nil {
			return nil, fmt.Errorf("decode requests: %w", err)
		}
	case yaml.MappingNode:
		var doc batchFile
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode requests: %w", err)
		}
		reqs = doc.Claims
	default:
		return nil, errors.New("batch file must be a list of requests or a mapping with a claims list")
	}

	if reqs == nil {
		reqs = []model.ScoreRequest{}
	}
	return reqs, nil
}
