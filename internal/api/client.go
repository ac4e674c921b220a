// Package api provides the HTTP client for the Nightingale backend services.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ClientConfig configures the backend client.
type ClientConfig struct {
	APIBaseURL   string        // general backend, e.g. "http://localhost:8000"
	AudioBaseURL string        // audio generation service, e.g. "http://localhost:8001"
	Timeout      time.Duration // HTTP request timeout
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		APIBaseURL:   "http://localhost:8000",
		AudioBaseURL: "http://localhost:8001",
		Timeout:      120 * time.Second,
	}
}

// Client talks JSON over HTTP to the Nightingale backend.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new backend client.
func NewClient(cfg *ClientConfig, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "api-client").Logger(),
	}
}

// GenerateOptions fetches candidate options for a soundscape wizard stage.
func (c *Client) GenerateOptions(ctx context.Context, mode, input, stage string) ([]string, error) {
	var resp OptionsResponse
	err := c.postJSON(ctx, c.config.APIBaseURL+"/api/generate-options", OptionsRequest{
		Mode:  mode,
		Input: input,
		Stage: stage,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Options, nil
}

// GenerateMusicOptions fetches candidate options for a music wizard stage.
func (c *Client) GenerateMusicOptions(ctx context.Context, stage, userInput string) ([]string, error) {
	var resp OptionsResponse
	err := c.postJSON(ctx, c.config.APIBaseURL+"/api/generate-musicgen-options", MusicOptionsRequest{
		Stage:     stage,
		UserInput: userInput,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Options, nil
}

// GenerateAudio submits a soundscape prompt and returns the audio URL.
func (c *Client) GenerateAudio(ctx context.Context, req AudioRequest) (string, error) {
	var resp AudioResponse
	if err := c.postJSON(ctx, c.config.AudioBaseURL+"/api/generate-audio", req, &resp); err != nil {
		return "", err
	}
	c.logger.Info().Str("audioUrl", resp.AudioURL).Msg("Audio generated")
	return resp.AudioURL, nil
}

// GenerateBackground submits a background image request and returns the image URL.
func (c *Client) GenerateBackground(ctx context.Context, description string) (string, error) {
	var resp BackgroundResponse
	err := c.postJSON(ctx, c.config.APIBaseURL+"/api/generate-background", BackgroundRequest{
		Description: description,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}

// GenerateMusic submits a music generation request.
func (c *Client) GenerateMusic(ctx context.Context, req MusicRequest) (*MusicResult, error) {
	var resp MusicResult
	if err := c.postJSON(ctx, c.config.APIBaseURL+"/api/generate-music", req, &resp); err != nil {
		return nil, err
	}
	c.logger.Info().Str("musicUrl", resp.MusicURL).Msg("Music generated")
	return &resp, nil
}

// Chat sends a free-form message and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var resp ChatResponse
	err := c.postJSON(ctx, c.config.APIBaseURL+"/api/chat", ChatRequest{Message: message}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}

// CreateQueueTask enqueues an audio generation and returns the initial task snapshot.
func (c *Client) CreateQueueTask(ctx context.Context, req QueueRequest) (*QueueTask, error) {
	var task QueueTask
	if err := c.postJSON(ctx, c.config.APIBaseURL+"/api/queue/audio-generation", req, &task); err != nil {
		return nil, err
	}
	c.logger.Info().Str("taskId", task.TaskID).Str("status", string(task.Status)).Msg("Queue task created")
	return &task, nil
}

// QueueTaskStatus fetches the current snapshot of a queued task.
func (c *Client) QueueTaskStatus(ctx context.Context, taskID string) (*QueueTask, error) {
	var task QueueTask
	if err := c.getJSON(ctx, c.config.APIBaseURL+"/api/queue/status/"+taskID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelQueueTask asks the server to cancel a queued task.
func (c *Client) CancelQueueTask(ctx context.Context, taskID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.APIBaseURL+"/api/queue/cancel/"+taskID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	c.logger.Info().Str("taskId", taskID).Msg("Queue task cancelled")
	return nil
}

// QueueStats fetches the aggregate queue state.
func (c *Client) QueueStats(ctx context.Context) (*QueueStats, error) {
	var stats QueueStats
	if err := c.getJSON(ctx, c.config.APIBaseURL+"/api/queue/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// postJSON issues a POST with a JSON body and decodes the JSON response.
func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getJSON issues a GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an error, preferring the
// backend's {detail} message when one is present.
func (c *Client) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		return fmt.Errorf("%s", errResp.Detail)
	}

	c.logger.Warn().Int("status", resp.StatusCode).Str("body", truncateForLog(string(body), 500)).
		Msg("Backend returned non-2xx without detail")
	return fmt.Errorf("request failed: %d", resp.StatusCode)
}

// truncateForLog truncates a string for logging purposes.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
