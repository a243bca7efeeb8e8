package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rfpflow/rfpflow-backend/internal/platform/ctxutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

// Client is the narrow completion/embedding contract the pipeline uses.
// Complete returns the raw model text; callers strip the reasoning
// segment with SplitReasoning before interpreting it.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// HTTPError carries the upstream status for callers that distinguish
// rate limits from hard failures.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm http status=%d body=%q", e.StatusCode, e.Body)
}

// ErrTimeout wraps deadline failures so workers can mark the owning
// entity recoverable without string matching.
var ErrTimeout = errors.New("llm request timed out")

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	timeout    time.Duration
	http       *http.Client
}

// NewClient builds an OpenAI-compatible chat/embeddings client. Works
// against api.openai.com and against local gateways that speak the same
// dialect (ollama's /v1, vllm, etc).
func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(envutil.String("LLM_BASE_URL", "https://api.openai.com"), "/")
	apiKey := envutil.String("LLM_API_KEY", "")
	if apiKey == "" && strings.Contains(baseURL, "api.openai.com") {
		return nil, fmt.Errorf("missing LLM_API_KEY")
	}

	timeout := envutil.Duration("LLM_TIMEOUT", 120*time.Second)
	return &client{
		log:        log.With("service", "LLMClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      envutil.String("LLM_MODEL", "gpt-4o-mini"),
		embedModel: envutil.String("LLM_EMBED_MODEL", "text-embedding-3-small"),
		timeout:    timeout,
		http:       &http.Client{Timeout: timeout},
	}, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	for i, in := range inputs {
		if strings.TrimSpace(in) == "" {
			return nil, fmt.Errorf("embed input %d is empty", i)
		}
	}

	var resp embeddingsResponse
	err := c.do(ctx, "/v1/embeddings", embeddingsRequest{Model: c.embedModel, Input: inputs}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings count mismatch: want=%d got=%d", len(inputs), len(resp.Data))
	}

	out := make([][]float32, len(inputs))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	for i, vec := range out {
		if len(vec) == 0 {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(req.User) == "" {
		return "", fmt.Errorf("completion prompt is empty")
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	var resp chatResponse
	err := c.do(ctx, "/v1/chat/completions", chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *client) do(ctx context.Context, path string, in any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("encode llm request: %w", err)
	}

	bctx, cancel := ctxutil.Bounded(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(bctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(raw)
		if len(body) > 512 {
			body = body[:512] + "..."
		}
		return &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode llm response: %w", err)
	}
	return nil
}
