package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm"
)

var (
	_ llm.Completer       = (*Client)(nil)
	_ llm.VisionExtractor = (*Client)(nil)
)

// Complete implements llm.Completer using chat/completions.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	messages := []map[string]any{}
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": req.Temperature,
		"max_tokens":  maxTokens,
		"messages":    messages,
	}

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"prompt_len", len(req.Prompt),
		"max_tokens", maxTokens,
	)

	content, err := c.chat(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.complete.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// ExtractText implements llm.VisionExtractor: the image goes to the vision
// model as a data URL and the reply is treated as the raw document text.
func (c *Client) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty payload", llm.ErrInvalidImage)
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	body := map[string]any{
		"model":      c.cfg.VisionModel,
		"max_tokens": c.cfg.MaxTokens,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": "Extract all text from this resume image. Return the plain text only, preserving reading order. If the image contains no text, return an empty response."},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}

	c.log.Info("llm.vision.start",
		"req_id", rid,
		"model", c.cfg.VisionModel,
		"image_bytes", len(image),
		"mime_type", mimeType,
	)

	content, err := c.chat(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.vision.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Info("llm.vision.ok",
		"req_id", rid,
		"text_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// chat posts one chat/completions body and returns choices[0].message.content.
// Every call this client makes goes to the same endpoint shape, so the POST
// lives here rather than behind a generic helper.
func (c *Client) chat(ctx context.Context, rid string, body map[string]any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode chat body: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("llm.chat.send_failed", "req_id", rid, "error", err)
		return "", mapStatusErr(0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	c.log.Info("llm.chat.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", mapStatusErr(resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, errorSnippet(raw)))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", llm.ErrServiceUnavailable)
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

// errorSnippet keeps provider error bodies readable in wrapped errors
// without dumping whole payloads.
func errorSnippet(raw []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// mapStatusErr folds provider failures onto the package sentinels the retry
// policy understands.
func mapStatusErr(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", llm.ErrRateLimited, err)
	case status == http.StatusBadRequest:
		return fmt.Errorf("openai rejected request: %w", err)
	case status >= 500 || status == 0:
		return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
	default:
		return err
	}
}
