package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/retry"
)

// OpenAI talks to an OpenAI-compatible chat completions endpoint and exposes
// it as a single-prompt completion function. Transient failures (429, 5xx)
// are retried with backoff inside the caller's deadline.
type OpenAI struct {
	baseProvider
	retrier *retry.Retrier
}

func NewOpenAI(cfg *config.OpenAIConfig) *OpenAI {
	return &OpenAI{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model),
		retrier:      retry.NewDefaultRetrier(),
	}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string, opts core.CompleteOptions) (string, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		payload["max_tokens"] = opts.MaxTokens
	}

	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
	}

	var out string
	err := o.retrier.Do(ctx, func() error {
		resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, headers)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		text, err := parseCompletionResponse(resp)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func parseCompletionResponse(resp *http.Response) (string, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
		if retriable(resp.StatusCode) {
			return "", err
		}
		return "", &retry.Permanent{Err: err}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &retry.Permanent{Err: fmt.Errorf("decode: %w", err)}
	}
	if len(result.Choices) == 0 {
		return "", &retry.Permanent{Err: fmt.Errorf("empty choices: %s", string(data))}
	}
	return result.Choices[0].Message.Content, nil
}

func retriable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
