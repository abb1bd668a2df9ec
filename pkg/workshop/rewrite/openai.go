package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/henvic/httpretty"
	"github.com/pkg/errors"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAI talks to any chat-completions compatible endpoint.
type OpenAI struct {
	client   *http.Client
	apiKey   string
	model    string
	endpoint string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAI(opts Options) *OpenAI {
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	if opts.Trace != nil {
		client.Transport = traceMiddleware(opts.Trace)(http.DefaultTransport)
	}

	return &OpenAI{
		client:   client,
		apiKey:   opts.APIKey,
		model:    model,
		endpoint: chatEndpoint(opts.BaseURL),
	}
}

func chatEndpoint(baseURL string) string {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		return defaultOpenAIEndpoint
	}

	endpoint = strings.TrimRight(endpoint, "/")
	switch {
	case strings.HasSuffix(endpoint, "/chat/completions"):
	case strings.HasSuffix(endpoint, "/v1"):
		endpoint += "/chat/completions"
	default:
		endpoint += "/v1/chat/completions"
	}
	return endpoint
}

func traceMiddleware(out io.Writer) func(http.RoundTripper) http.RoundTripper {
	logger := &httpretty.Logger{
		Time:            true,
		TLS:             false,
		Colors:          false,
		RequestHeader:   true,
		RequestBody:     true,
		ResponseHeader:  true,
		ResponseBody:    true,
		Formatters:      []httpretty.Formatter{&httpretty.JSONFormatter{}},
		MaxResponseBody: 50000,
	}
	logger.SetOutput(out)
	logger.SkipHeader([]string{"Authorization"})
	return logger.RoundTripper
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return "", errors.WithStack(ErrMissingAPIKey)
	}

	body, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	})
	if err != nil {
		return "", errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "openai request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("openai request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to decode openai response")
	}
	if len(parsed.Choices) == 0 {
		return "", errors.WithStack(ErrEmptyResult)
	}

	text := cleanOutput(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", errors.WithStack(ErrEmptyResult)
	}
	return text, nil
}
