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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	spec       ModelSpec
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(apiKey string, spec ModelSpec) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		spec:       spec,
		baseURL:    defaultGeminiBaseURL,
		httpClient: newHTTPClient(),
	}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *GeminiClient) Name() string {
	return c.spec.Model
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiContents maps chat roles onto Gemini's: system turns become the
// system instruction and assistant turns are sent as "model".
func geminiContents(messages []prompt.Message) (*geminiContent, []geminiContent) {
	var system []geminiPart
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case prompt.RoleSystem:
			system = append(system, geminiPart{Text: m.Content})
		case prompt.RoleAssistant:
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return &geminiContent{Parts: system}, contents
}

// Generate calls the Gemini API once.
func (c *GeminiClient) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	// The key travels in a header so transport errors, which quote the URL,
	// never carry it into logs.
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.spec.Model)

	system, contents := geminiContents(messages)
	genConfig := map[string]interface{}{}
	if c.spec.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = c.spec.MaxTokens
	}
	if c.spec.Temperature != nil {
		genConfig["temperature"] = *c.spec.Temperature
	}
	reqBody := map[string]interface{}{
		"contents":         contents,
		"generationConfig": genConfig,
	}
	if system != nil {
		reqBody["systemInstruction"] = system
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &InferenceError{Code: ErrUpstreamUnavailable, Model: c.spec.Model, Message: "Gemini API call failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &InferenceError{Code: ErrUpstreamUnavailable, Model: c.spec.Model, Message: "read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(c.spec.Model, resp.StatusCode, respBody)
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", &InferenceError{Code: ErrMalformedResponse, Model: c.spec.Model, Message: "parse Gemini response", Cause: err}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", &InferenceError{Code: ErrMalformedResponse, Model: c.spec.Model, Message: "empty Gemini response"}
	}

	var sb strings.Builder
	for _, p := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
