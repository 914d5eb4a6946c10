// Package gemini wraps the Google Generative AI SDK behind the retry,
// rate-limit, and circuit-breaker policy shared by every model call.
// The embedding model is pinned per corpus version: identical text through
// the same model version yields the same vector.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/LexiconAI/lexicon-mvp/pkg/fn"
	"github.com/LexiconAI/lexicon-mvp/pkg/resilience"
)

const (
	// DefaultEmbedModel is the pinned embedding model version.
	DefaultEmbedModel = "text-embedding-004"
	// DefaultGenModel is the pinned generation model version, used for both
	// structuring extraction and answer synthesis.
	DefaultGenModel = "gemini-2.0-flash"
	// DefaultCallTimeout bounds a single model call.
	DefaultCallTimeout = 30 * time.Second
)

// Config configures the client.
type Config struct {
	APIKey      string
	EmbedModel  string
	GenModel    string
	CallTimeout time.Duration
	Retry       fn.RetryOpts
	// RatePerSec/Burst size the token bucket to the API quota.
	RatePerSec float64
	Burst      int
}

// Client is the sole owner of all Gemini calls.
type Client struct {
	genai      *genai.Client
	embedModel string
	genModel   string
	timeout    time.Duration
	retry      fn.RetryOpts
	limiter    *resilience.Limiter
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// New creates a Client. The API key is required; its absence is a startup
// error, never a per-request one.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.GenModel == "" {
		cfg.GenModel = DefaultGenModel
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = fn.DefaultRetry
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}

	return &Client{
		genai:      client,
		embedModel: cfg.EmbedModel,
		genModel:   cfg.GenModel,
		timeout:    cfg.CallTimeout,
		retry:      cfg.Retry,
		limiter:    resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.RatePerSec, Burst: cfg.Burst}),
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:     logger,
	}, nil
}

// EmbedModelVersion returns the pinned embedding model name, recorded in
// the corpus artifact so query-time embedding matches build-time embedding.
func (c *Client) EmbedModelVersion() string { return c.embedModel }

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	if c.genai != nil {
		return c.genai.Close()
	}
	return nil
}

// call runs f through the limiter, breaker, per-call timeout, and retry
// policy shared by every model operation.
func (c *Client) call(ctx context.Context, op string, f func(context.Context) error) error {
	r := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[struct{}] {
		if err := c.limiter.Wait(ctx); err != nil {
			return fn.Err[struct{}](err)
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.breaker.Call(callCtx, f); err != nil {
			c.logger.Warn("gemini: call failed", "op", op, "error", err)
			return fn.Err[struct{}](err)
		}
		return fn.Ok(struct{}{})
	})
	_, err := r.Unwrap()
	if err != nil {
		return fmt.Errorf("gemini: %s: %w", op, err)
	}
	return nil
}

// Embed maps text to a fixed-dimension vector using the pinned embedding
// model. Exhausted retries return an error, never a zero vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := c.call(ctx, "embed", func(ctx context.Context) error {
		em := c.genai.EmbeddingModel(c.embedModel)
		resp, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return errors.New("no embedding returned")
		}
		out = resp.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Generate produces a completion for the prompt using the pinned
// generation model.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := c.call(ctx, "generate", func(ctx context.Context) error {
		model := c.genai.GenerativeModel(c.genModel)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		text := collectText(resp)
		if text == "" {
			return errors.New("empty completion")
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// collectText concatenates the text parts of all candidates.
func collectText(resp *genai.GenerateContentResponse) string {
	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}
