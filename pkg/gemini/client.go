// Package gemini is the boundary to the hosted Gemini API: it sends a built
// prompt request and returns either the reply text or a typed failure.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mydocta/docta/pkg/prompt"
)

// Generator is the minimal model-gateway surface the session controller
// depends on; it is easy to stub in tests.
type Generator interface {
	Generate(ctx context.Context, req *prompt.Request) (string, error)
}

// Config holds everything needed to talk to the hosted model.
type Config struct {
	APIKey string
	Model  string
	Params prompt.GenerationParams
	Safety []prompt.SafetyRule
}

// Client talks to the hosted Gemini API. A single request maps to a single
// response; no streaming, no retries.
type Client struct {
	client *genai.Client
	model  string
	params prompt.GenerationParams
	safety []*genai.SafetySetting
	logger *zap.Logger
}

// New creates a Client. A missing API key does not fail construction: the
// gateway stays up and every Generate call reports ErrMissingCredential, so
// the failure is surfaced per request.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	c := &Client{
		model:  cfg.Model,
		params: cfg.Params,
		safety: safetySettings(cfg.Safety, logger),
		logger: logger,
	}

	if cfg.APIKey == "" {
		logger.Warn("no Gemini API key configured; chat requests will fail until one is provided")
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	c.client = client

	return c, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate sends the request's turns to the model and returns the reply text.
// All turns before the last become chat history; the last turn is the
// current user message.
func (c *Client) Generate(ctx context.Context, req *prompt.Request) (string, error) {
	if c.client == nil {
		return "", ErrMissingCredential
	}
	if len(req.Turns) == 0 {
		return "", ErrEmptyResponse
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.params.Temperature)
	model.SetTopP(c.params.TopP)
	model.SetTopK(c.params.TopK)
	model.SetMaxOutputTokens(c.params.MaxOutputTokens)
	model.SafetySettings = c.safety

	last := req.Turns[len(req.Turns)-1]

	session := model.StartChat()
	session.History = make([]*genai.Content, 0, len(req.Turns)-1)
	for _, turn := range req.Turns[:len(req.Turns)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  string(turn.Role),
			Parts: toParts(turn.Parts),
		})
	}

	c.logger.Debug("sending request to Gemini",
		zap.String("model", c.model),
		zap.Int("history_turns", len(session.History)),
		zap.Int("current_parts", len(last.Parts)),
	)

	resp, err := session.SendMessage(ctx, toParts(last.Parts)...)
	if err != nil {
		return "", mapError(err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

func toParts(parts []prompt.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Data != nil {
			out = append(out, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
			continue
		}
		out = append(out, genai.Text(p.Text))
	}

	return out
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	return b.String()
}

// mapError translates SDK and transport failures into the gateway taxonomy.
func mapError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", ErrContentBlocked, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrModelNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}

	return err
}

var harmCategories = map[string]genai.HarmCategory{
	"harassment":        genai.HarmCategoryHarassment,
	"hate-speech":       genai.HarmCategoryHateSpeech,
	"sexually-explicit": genai.HarmCategorySexuallyExplicit,
	"dangerous-content": genai.HarmCategoryDangerousContent,
}

var blockThresholds = map[string]genai.HarmBlockThreshold{
	"block-low-and-above":    genai.HarmBlockLowAndAbove,
	"block-medium-and-above": genai.HarmBlockMediumAndAbove,
	"block-only-high":        genai.HarmBlockOnlyHigh,
	"block-none":             genai.HarmBlockNone,
}

func safetySettings(rules []prompt.SafetyRule, logger *zap.Logger) []*genai.SafetySetting {
	settings := make([]*genai.SafetySetting, 0, len(rules))
	for _, rule := range rules {
		category, ok := harmCategories[rule.Category]
		if !ok {
			logger.Warn("unknown safety category, skipping", zap.String("category", rule.Category))
			continue
		}
		threshold, ok := blockThresholds[rule.Threshold]
		if !ok {
			logger.Warn("unknown safety threshold, skipping", zap.String("threshold", rule.Threshold))
			continue
		}
		settings = append(settings, &genai.SafetySetting{Category: category, Threshold: threshold})
	}

	return settings
}
