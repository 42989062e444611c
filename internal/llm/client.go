// Package llm is a minimal client for llama-server style chat/completions
// endpoints. It makes no provider assumptions beyond the OpenAI-compatible
// wire shape; callers decide the endpoint and prompt.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultMaxTokens = 4096

// Config for a single-endpoint client.
type Config struct {
	Endpoint  string        // base URL, e.g. http://localhost:8080
	Timeout   time.Duration // per-call HTTP timeout
	MaxTokens int           // generation cap; defaults to 4096
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// GenerateRequest describes one completion call. When ImageDataURL is set the
// prompt and image are sent as a multimodal user message.
type GenerateRequest struct {
	Prompt       string
	ImageDataURL string
	Temperature  float32
}

// GenerateText performs one blocking chat/completions exchange and returns the
// assistant message content.
func (c *Client) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	var message map[string]any
	if req.ImageDataURL != "" {
		message = map[string]any{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": req.Prompt},
				{"type": "image_url", "image_url": map[string]any{"url": req.ImageDataURL}},
			},
			"cache_prompt": false,
		}
	} else {
		message = map[string]any{"role": "user", "content": req.Prompt}
	}

	body := map[string]any{
		"messages":    []map[string]any{message},
		"temperature": req.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"stream":      false,
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/v1/chat/completions"

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"url", url,
		"prompt_len", len(req.Prompt),
		"has_image", req.ImageDataURL != "",
	)

	raw, err := c.post(ctx, url, body, rid)
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.generate.no_choices",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("no choices in completion response")
	}

	content := cc.Choices[0].Message.Content
	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any, rid string) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("llm.response_body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("llm status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
