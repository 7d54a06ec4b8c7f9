package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/file-organizer/internal/infrastructure/resilience"
)

const (
	generatePath = "/api/generate"
	chatPath     = "/api/chat"

	defaultTimeout = 60 * time.Second
)

type Options struct {
	// Timeout bounds one Summarize or Classify call, retries included.
	Timeout time.Duration
	// HTTPClient replaces the default client; its own Timeout should stay
	// zero because responses are streamed.
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Limiter    *rate.Limiter
}

// Client talks to an Ollama compatible server using streamed NDJSON responses.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
}

func New(baseURL, model string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: httpClient,
		executor:   opts.Executor,
		limiter:    opts.Limiter,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Summarize sends prompt to the generate endpoint and returns the streamed
// response fragments concatenated in arrival order.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Model: c.model, Prompt: prompt, Stream: true}
	return c.call(ctx, "generate", generatePath, req, generateFragment)
}

// Classify sends text as the only user message of a chat and returns the
// concatenated answer.
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: text}},
		Stream:   true,
	}
	return c.call(ctx, "chat", chatPath, req, chatFragment)
}

func (c *Client) call(ctx context.Context, operation, path string, payload any, pick fragmentFunc) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", unreachable(operation, err)
		}
	}

	out, err := resilience.Call(ctx, c.executor, "ollama."+operation, func(ctx context.Context) (string, error) {
		return c.postStream(ctx, operation, path, payload, pick)
	}, classifyOllamaError)
	if err != nil {
		return "", asServiceError(operation, err)
	}
	return out, nil
}
