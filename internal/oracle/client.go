package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/johntango/milonga/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://127.0.0.1:11434"
	defaultModel   = "qwen2.5:7b"
	defaultTimeout = 30 * time.Second
)

// Client talks to a chat-style generative service with enforced JSON output.
//
// Each call is rate-limited and bounded by a per-call timeout; a timeout is
// reported as [shared.ErrTimeout] so the planner can count it as one failed
// attempt instead of hanging the run.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *log.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// NewClient creates a client from the oracle configuration. An API key, when
// configured, rides as a bearer token on every request.
func NewClient(cfg shared.OracleConfig, logger *log.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	httpClient := http.DefaultClient
	if cfg.APIKey != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey})
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, 1)
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		limiter:    limiter,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetHTTPClient overrides the transport (used by tests).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SuggestTracks implements [Oracle].
func (c *Client) SuggestTracks(ctx context.Context, req TrackRequest) (*TrackResponse, error) {
	var resp TrackResponse
	if err := c.chat(ctx, trackSystemPrompt, trackUserPrompt(req), &resp); err != nil {
		return nil, err
	}
	if resp.TrackIDs == nil {
		return nil, fmt.Errorf("%w: response missing track_ids", shared.ErrOracleContract)
	}
	return &resp, nil
}

// SuggestOrigins implements [Oracle].
func (c *Client) SuggestOrigins(ctx context.Context, req OriginRequest) ([]string, error) {
	var resp originResponse
	if err := c.chat(ctx, originSystemPrompt, originUserPrompt(req), &resp); err != nil {
		return nil, err
	}
	return resp.Origins, nil
}

// SuggestReplacement implements [Oracle].
func (c *Client) SuggestReplacement(ctx context.Context, req ReplacementRequest) (*ReplacementResponse, error) {
	var resp ReplacementResponse
	if err := c.chat(ctx, replacementSystemPrompt, replacementUserPrompt(req), &resp); err != nil {
		return nil, err
	}
	if resp.Primary == "" && len(resp.Alternates) == 0 {
		return nil, fmt.Errorf("%w: empty replacement response", shared.ErrOracleContract)
	}
	return &resp, nil
}

// chat performs one rate-limited, timeout-bounded round trip and decodes the
// model's JSON content into out.
func (c *Client) chat(ctx context.Context, system, user string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("oracle rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("oracle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("oracle call: %w", shared.ErrTimeout)
		}
		return fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrOracleUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("oracle: decode envelope: %w", err)
	}
	if parsed.Error != "" {
		return fmt.Errorf("%w: %s", shared.ErrOracleUnavailable, parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return fmt.Errorf("%w: empty content", shared.ErrOracleContract)
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrOracleContract, err)
	}

	return nil
}
