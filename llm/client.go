/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package llm talks to an OpenAI-compatible chat completions endpoint,
// such as the one Ollama serves, for extraction and report summaries.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/humaidq/baseline/logging"
)

var logger = logging.Logger(logging.SourceLLM)

// Config holds the chat server configuration.
type Config struct {
	URL   string
	Model string
}

// OpenAI-compatible request/response structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Stream         bool            `json:"stream,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
	Delta   chatMessage `json:"delta,omitempty"` // For streaming responses
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client is a chat completions client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient returns a client for cfg. Both URL and Model are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.Model == "" {
		return nil, ErrNotConfigured
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 300 * time.Second, // 5 minutes for streaming
		},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

func (c *Client) post(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.URL, "/") + "/v1/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat server: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()

		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, nil
}

// complete runs a single non-streaming completion and returns the
// assistant message.
func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	zero := 0.0

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: &zero,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	start := time.Now()

	resp, err := c.post(ctx, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstreamModelError, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	logger.Debug("Completion finished", "model", c.cfg.Model, "duration", time.Since(start))

	return chatResp.Choices[0].Message.Content, nil
}

// stream runs a streaming completion, calling onChunk with each piece of
// content as it arrives.
func (c *Client) stream(ctx context.Context, system, user string, onChunk func(string) error) error {
	resp, err := c.post(ctx, chatRequest{
		Model:  c.cfg.Model,
		Stream: true,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Read streaming response line by line
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read stream: %w", err)
		}

		done, chunkErr := handleStreamLine(line, onChunk)
		if chunkErr != nil {
			return chunkErr
		}

		if done || errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// handleStreamLine processes one SSE line. done is true on [DONE].
func handleStreamLine(line []byte, onChunk func(string) error) (bool, error) {
	lineStr := strings.TrimSpace(string(line))

	// SSE format: "data: {...}"
	data, ok := strings.CutPrefix(lineStr, "data: ")
	if !ok {
		return false, nil
	}

	if data == "[DONE]" {
		return true, nil
	}

	var chatResp chatResponse
	if err := json.Unmarshal([]byte(data), &chatResp); err != nil {
		// Skip malformed chunks
		return false, nil
	}

	if chatResp.Error != nil {
		return false, fmt.Errorf("%w: %s", ErrUpstreamModelError, chatResp.Error.Message)
	}

	if len(chatResp.Choices) > 0 {
		if content := chatResp.Choices[0].Delta.Content; content != "" {
			if err := onChunk(content); err != nil {
				return false, err
			}
		}
	}

	return false, nil
}
