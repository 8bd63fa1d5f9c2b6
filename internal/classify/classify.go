// Package classify is Tier 2 of the scan pipeline: a local toxicity model
// scores the message across six labels, and a fixed threshold policy turns
// the scores into a verdict. The model runs out of process behind an HTTP
// inference endpoint so the gateway never loads model weights itself.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Scores holds the per-label probabilities from the toxicity model.
// All values are in [0,1].
type Scores struct {
	Toxic        float64 `json:"toxic"`
	SevereToxic  float64 `json:"severe_toxic"`
	Obscene      float64 `json:"obscene"`
	Threat       float64 `json:"threat"`
	Insult       float64 `json:"insult"`
	IdentityHate float64 `json:"identity_hate"`
}

// Scorer produces toxicity scores for a message.
type Scorer interface {
	Score(ctx context.Context, text string) (Scores, error)
}

// HTTPScorer calls a transformers-style inference endpoint.
type HTTPScorer struct {
	URL     string
	Model   string
	APIKey  string
	Timeout time.Duration

	client *http.Client
}

// NewHTTPScorer creates a scorer for the given endpoint.
func NewHTTPScorer(url, model, apiKey string, timeout time.Duration) *HTTPScorer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPScorer{
		URL:     url,
		Model:   model,
		APIKey:  apiKey,
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// labelScore is one entry of the pipeline output.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score sends text to the inference endpoint and maps the label list back
// onto a Scores struct. Labels the model does not emit stay at zero.
func (s *HTTPScorer) Score(ctx context.Context, text string) (Scores, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"inputs": text,
		"model":  s.Model,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return Scores{}, fmt.Errorf("classify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Scores{}, fmt.Errorf("classify: score request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Scores{}, fmt.Errorf("classify: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return parseScores(respBody)
}

// parseScores accepts both the batched [[{label,score}]] shape and the flat
// [{label,score}] shape; inference servers disagree on which they return.
func parseScores(raw []byte) (Scores, error) {
	var batched [][]labelScore
	if err := json.Unmarshal(raw, &batched); err == nil && len(batched) > 0 {
		return fromLabels(batched[0]), nil
	}

	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return fromLabels(flat), nil
	}

	return Scores{}, fmt.Errorf("classify: cannot parse score response: %s", truncate(string(raw), 200))
}

func fromLabels(labels []labelScore) Scores {
	var sc Scores
	for _, l := range labels {
		switch strings.ToLower(l.Label) {
		case "toxic":
			sc.Toxic = l.Score
		case "severe_toxic":
			sc.SevereToxic = l.Score
		case "obscene":
			sc.Obscene = l.Score
		case "threat":
			sc.Threat = l.Score
		case "insult":
			sc.Insult = l.Score
		case "identity_hate":
			sc.IdentityHate = l.Score
		}
	}
	return sc
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
