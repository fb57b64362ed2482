package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthcore/internal/extract"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/ppiankov/truthcore/internal/pipeline"
	"github.com/ppiankov/truthcore/internal/score"
)

// scoreRequest is the JSON body of POST /api/v1/score
type scoreRequest struct {
	Claim     string   `json:"claim"`
	Source    string   `json:"source"`
	SourceURL string   `json:"source_url"`
	Evidences []string `json:"evidences"`
	Evidence  string   `json:"evidence"` // Newline-separated alternative to Evidences
	History   history  `json:"history"`
}

// history accepts a JSON array of numbers or strings, or a comma-separated string
type history []string

func (h *history) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = extract.ParseHistory(s)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("history must be an array or a comma-separated string")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}
		out = append(out, string(item))
	}
	*h = out
	return nil
}

// feedbackRequest is the JSON body of POST /api/v1/feedback
type feedbackRequest struct {
	ReportID string `json:"report_id"`
	Claim    string `json:"claim"`
	Helpful  *bool  `json:"helpful,omitempty"`
	Comment  string `json:"comment"`
}

// Health check endpoint
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"service":   "truthcore",
	})
}

// ScoreClaim scores the posted claim and returns the report
func (s *Server) ScoreClaim(w http.ResponseWriter, r *http.Request) {
	var body scoreRequest
	if err := decodeBody(w, r, s.maxBody, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	evidences := body.Evidences
	if body.Evidence != "" {
		evidences = append(evidences, extract.ParseEvidenceText(body.Evidence)...)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.scoreLimit)
	defer cancel()

	report, err := s.scorer.Score(ctx, model.ScoreRequest{
		Claim:     body.Claim,
		Source:    body.Source,
		SourceURL: body.SourceURL,
		Evidences: evidences,
		History:   body.History,
	})
	if err != nil {
		var perr *score.ParseError
		switch {
		case errors.Is(err, pipeline.ErrEmptyClaim):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &perr):
			writeError(w, http.StatusBadRequest, perr.Error())
		default:
			s.logger.Error("scoring failed", "error", err, "request_id", requestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "failed to score claim")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Feedback acknowledges user feedback on a report. It is logged, not stored.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackRequest
	if err := decodeBody(w, r, s.maxBody, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.ReportID) == "" && strings.TrimSpace(body.Claim) == "" {
		writeError(w, http.StatusBadRequest, "report_id or claim is required")
		return
	}

	id := uuid.NewString()
	attrs := []interface{}{
		"feedback_id", id,
		"report_id", body.ReportID,
		"claim", body.Claim,
		"comment", body.Comment,
	}
	if body.Helpful != nil {
		attrs = append(attrs, "helpful", *body.Helpful)
	}
	s.logger.Info("feedback received", attrs...)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"id":     id,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
