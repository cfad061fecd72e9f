package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kevinluu/screenline/internal/domain"
	"github.com/kevinluu/screenline/internal/logger"
	"github.com/kevinluu/screenline/internal/prompts"
)

// Config holds connection settings for the scoring oracle.
type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryBase   time.Duration
}

// Client calls an OpenAI-compatible chat-completions endpoint to score a CV
// against a job context. Each Score call retries transient failures with
// linear backoff; the client keeps no state across calls.
type Client struct {
	client      *resty.Client
	model       string
	endpoint    string
	maxAttempts int
	retryBase   time.Duration
}

// NewClient creates a scoring oracle client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = time.Second
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		endpoint:    baseURL + "/chat/completions",
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
	}
}

// Model returns the model identifier being used.
func (c *Client) Model() string {
	return c.model
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Score evaluates the CV text against the job context. Nil weights selects
// the default split; weights must sum to 1.0 otherwise. All attempts share
// the same prompt. The delay before retry N is N times the base unit.
func (c *Client) Score(ctx context.Context, cvText string, job domain.JobContext, weights *prompts.AxisWeights) (*Result, error) {
	w := prompts.DefaultWeights
	if weights != nil {
		w = *weights
	}
	if sum := w.Sum(); sum < 0.999 || sum > 1.001 {
		return nil, fmt.Errorf("axis weights must sum to 1.0, got %.3f", sum)
	}

	prompt := prompts.BuildScoringPrompt(job, w, cvText)
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "scoring")

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retryBase * time.Duration(attempt-1)
			log.WithFields(logger.Fields{
				logger.FieldAttempt: attempt,
				"delay":             delay.String(),
			}).Warn("Retrying oracle call")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, ctx.Err())
			}
		}

		result, err := c.call(ctx, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.WithError(err).WithField(logger.FieldAttempt, attempt).Warn("Oracle call failed")
	}

	if errors.Is(lastErr, ErrOracleMalformedResponse) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrOracleUnavailable, c.maxAttempts, lastErr)
}

func (c *Client) call(ctx context.Context, prompt string) (*Result, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.ScoringSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call oracle API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return nil, fmt.Errorf("oracle API returned HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, fmt.Errorf("oracle API returned HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("oracle API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrOracleMalformedResponse)
	}

	return ParseResult(resp.Choices[0].Message.Content)
}
