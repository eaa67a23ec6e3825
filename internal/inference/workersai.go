package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jimikki-app/backend/internal/prompt"
)

const defaultWorkersAIBaseURL = "https://api.cloudflare.com/client/v4"

// WorkersAIClient runs one Cloudflare Workers AI text model over REST.
type WorkersAIClient struct {
	accountID  string
	apiToken   string
	spec       ModelSpec
	baseURL    string
	httpClient *http.Client
}

// NewWorkersAIClient creates a client for spec.Model.
func NewWorkersAIClient(accountID, apiToken string, spec ModelSpec) *WorkersAIClient {
	return &WorkersAIClient{
		accountID:  accountID,
		apiToken:   apiToken,
		spec:       spec,
		baseURL:    defaultWorkersAIBaseURL,
		httpClient: newHTTPClient(),
	}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (c *WorkersAIClient) WithBaseURL(baseURL string) *WorkersAIClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *WorkersAIClient) Name() string {
	return c.spec.Model
}

type workersAIRequest struct {
	Messages    []prompt.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// workersAIOutput covers both the native {response} shape and the
// OpenAI-compatible {choices} shape some models return.
type workersAIOutput struct {
	Response *string `json:"response"`
	Choices  []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o workersAIOutput) text() (string, bool) {
	if o.Response != nil {
		return *o.Response, true
	}
	if len(o.Choices) > 0 {
		return o.Choices[0].Message.Content, true
	}
	return "", false
}

type workersAIEnvelope struct {
	Success bool            `json:"success"`
	Result  workersAIOutput `json:"result"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	workersAIOutput
}

// Generate calls the model once. No retries are attempted.
func (c *WorkersAIClient) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, c.spec.Model)

	bodyBytes, err := json.Marshal(workersAIRequest{
		Messages:    messages,
		MaxTokens:   c.spec.MaxTokens,
		Temperature: c.spec.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &InferenceError{Code: ErrUpstreamUnavailable, Model: c.spec.Model, Message: "Workers AI call failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &InferenceError{Code: ErrUpstreamUnavailable, Model: c.spec.Model, Message: "read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(c.spec.Model, resp.StatusCode, respBody)
	}

	var env workersAIEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return "", &InferenceError{Code: ErrMalformedResponse, Model: c.spec.Model, Message: "parse Workers AI response", Cause: err}
	}
	if len(env.Errors) > 0 {
		return "", &InferenceError{Code: ErrUpstreamUnavailable, Model: c.spec.Model, Message: env.Errors[0].Message}
	}

	if text, ok := env.Result.text(); ok {
		return text, nil
	}
	if text, ok := env.workersAIOutput.text(); ok {
		return text, nil
	}
	return "", &InferenceError{Code: ErrMalformedResponse, Model: c.spec.Model, Message: "response has neither response nor choices"}
}
