// Package provider implements the model-hosting boundary: an HTTP client
// for OpenRouter-compatible chat-completion endpoints. The orchestration
// core only sees the core.ModelClient contract and the typed error
// taxonomy; wire-format details stay here.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/logging"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config configures the OpenRouter client.
type Config struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
}

// Client calls an OpenRouter-compatible chat completions API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logging.Logger
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Call implements core.ModelClient. The transcript context is rendered
// into chat messages: the seeding user prompt keeps the user role, system
// entries keep the system role, and voice turns become assistant messages
// prefixed with the speaker so each model can tell the voices apart.
func (c *Client) Call(ctx context.Context, desc core.VoiceDescriptor, entries []core.TranscriptEntry, params core.GenerateParams) (*core.Completion, error) {
	req := chatRequest{
		Model:       desc.Model,
		Messages:    renderMessages(desc, entries),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, core.ErrProviderRejected("encoding request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, core.ErrProviderRejected("building request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, core.ErrTimeout("request deadline exceeded").WithCause(err)
		}
		return nil, core.ErrProviderUnavailable("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, core.ErrProviderUnavailable("reading response").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, core.ErrProviderRejected("decoding response").WithCause(err)
	}
	if parsed.Error != nil {
		return nil, core.ErrProviderRejected(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, core.ErrProviderRejected("response contained no choices")
	}

	text := parsed.Choices[0].Message.Content
	tokens := parsed.Usage.CompletionTokens
	if tokens == 0 {
		tokens = EstimateTokens(text)
	}

	c.logger.Debug("completion received",
		"model", desc.Model,
		"tokens", tokens,
		"latency", time.Since(start),
		"finish_reason", parsed.Choices[0].FinishReason,
	)

	return &core.Completion{
		Text:           text,
		TokensConsumed: tokens,
	}, nil
}

// statusError maps HTTP status classes to the voice error taxonomy.
func statusError(status int, body []byte) error {
	msg := fmt.Sprintf("status %d: %s", status, truncate(string(body), 200))
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusPaymentRequired:
		return core.ErrQuotaExceeded(msg)
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return core.ErrTimeout(msg)
	case status >= 500:
		return core.ErrProviderUnavailable(msg)
	default:
		return core.ErrProviderRejected(msg)
	}
}

func renderMessages(desc core.VoiceDescriptor, entries []core.TranscriptEntry) []chatMessage {
	msgs := make([]chatMessage, 0, len(entries)+1)
	if desc.Role != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: desc.Role})
	}
	for _, e := range entries {
		switch e.Speaker {
		case core.SpeakerUser:
			msgs = append(msgs, chatMessage{Role: "user", Content: e.Content})
		case core.SpeakerSystem:
			msgs = append(msgs, chatMessage{Role: "system", Content: e.Content})
		case desc.ID:
			msgs = append(msgs, chatMessage{Role: "assistant", Content: e.Content})
		default:
			msgs = append(msgs, chatMessage{
				Role:    "user",
				Content: fmt.Sprintf("[%s] %s", e.Speaker, e.Content),
			})
		}
	}
	return msgs
}

// EstimateTokens approximates a token count when the provider omits usage.
// Four characters per token tracks common tokenizers closely enough for
// budget accounting.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
