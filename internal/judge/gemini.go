package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultTimeout bounds one adjudication round trip. Tier 3 sits on the
// user's critical path, so the budget is tight.
const DefaultTimeout = 4 * time.Second

const systemPrompt = `You are a content moderation adjudicator for a learning platform. You receive one user message that an automated classifier flagged as ambiguous, plus the moderation standard for this user.

Decide whether the message violates the standard. Return ONLY valid JSON, no markdown fences, no commentary:
{"is_safe":<bool>,"reason":"<short explanation>","karma_penalty":<int 0-100>}

karma_penalty is 0 when is_safe is true. Scale it with severity when is_safe is false.`

// Gemini adjudicates via the Gemini API with a JSON-constrained response.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini-backed judge. An empty API key returns
// ErrUnavailable from every call rather than an error here, so a gateway
// without an adjudicator still starts.
func NewGemini(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Gemini, error) {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	g := &Gemini{model: modelName, timeout: timeout}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("judge: create client: %w", err)
	}
	g.client = client
	return g, nil
}

// Judge sends the message and the user's moderation standard to the model
// and parses its ruling.
func (g *Gemini) Judge(ctx context.Context, req Request) (Judgment, error) {
	if g.client == nil {
		return Judgment{}, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var prompt strings.Builder
	prompt.WriteString("Moderation standard: ")
	prompt.WriteString(rulesFor(req.UserType))
	if req.Context != "" {
		prompt.WriteString("\nClassifier flag: ")
		prompt.WriteString(req.Context)
	}
	prompt.WriteString("\n\nMessage:\n")
	prompt.WriteString(req.Text)

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt.String()),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return Judgment{}, fmt.Errorf("judge: generate: %w", err)
	}

	return parseJudgment(resp.Text())
}

// parseJudgment decodes the model's ruling. Fences are stripped first; some
// models add them despite the mime type.
func parseJudgment(raw string) (Judgment, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var j Judgment
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return Judgment{}, fmt.Errorf("judge: parse ruling: %w", err)
	}
	j.KarmaPenalty = clampPenalty(j.KarmaPenalty)
	if j.Safe {
		j.KarmaPenalty = 0
	}
	return j, nil
}
