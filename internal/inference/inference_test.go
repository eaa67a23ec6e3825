package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimikki-app/backend/internal/config"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/prompt"
)

var testMessages = []prompt.Message{
	{Role: prompt.RoleSystem, Content: "context"},
	{Role: prompt.RoleUser, Content: "hi"},
	{Role: prompt.RoleAssistant, Content: "hello"},
	{Role: prompt.RoleUser, Content: "how much?"},
}

func TestWorkersAIClient_Generate(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"success":true,"result":{"response":"<think>hmm</think> You spent ₹500."}}`))
	}))
	defer srv.Close()

	spec := WorkersAISpecs([]string{"@cf/meta/llama-3.3-70b-instruct-fp8-fast"})[0]
	c := NewWorkersAIClient("acct", "tok", spec).WithBaseURL(srv.URL + "/")

	out, err := c.Generate(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "<think>hmm</think> You spent ₹500.", out)
	assert.Equal(t, "/accounts/acct/ai/run/@cf/meta/llama-3.3-70b-instruct-fp8-fast", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.EqualValues(t, 1500, gotBody["max_tokens"])
	assert.EqualValues(t, 0.1, gotBody["temperature"])
	assert.Len(t, gotBody["messages"], 4)
}

func TestWorkersAIClient_ResponseShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr ErrorCode
	}{
		{"native", 200, `{"result":{"response":"a"}}`, "a", ""},
		{"openai choices", 200, `{"result":{"choices":[{"message":{"content":"b"}}]}}`, "b", ""},
		{"top level", 200, `{"response":"c"}`, "c", ""},
		{"rate limited", 429, `slow down`, "", ErrRateLimited},
		{"server error", 500, `boom`, "", ErrUpstreamUnavailable},
		{"api errors", 200, `{"success":false,"errors":[{"code":5007,"message":"no such model"}]}`, "", ErrUpstreamUnavailable},
		{"not json", 200, `<html>`, "", ErrMalformedResponse},
		{"unknown shape", 200, `{"result":{}}`, "", ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewWorkersAIClient("acct", "tok", ModelSpec{Model: "m", MaxTokens: 10}).WithBaseURL(srv.URL)
			out, err := c.Generate(context.Background(), testMessages)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, HasCode(err, tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	var gotKey, gotQuery, gotPath string
	var gotBody struct {
		SystemInstruction geminiContent   `json:"systemInstruction"`
		Contents          []geminiContent `json:"contents"`
		GenerationConfig  map[string]any  `json:"generationConfig"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotQuery = r.URL.RawQuery
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("key123", ModelSpec{Model: "gemini-2.0-flash", MaxTokens: 2048}).WithBaseURL(srv.URL)
	out, err := c.Generate(context.Background(), testMessages)
	require.NoError(t, err)

	assert.Equal(t, "Hello there", out)
	assert.Equal(t, "key123", gotKey)
	assert.Empty(t, gotQuery, "the key stays out of the URL")
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "context", gotBody.SystemInstruction.Parts[0].Text)
	require.Len(t, gotBody.Contents, 3)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "model", gotBody.Contents[1].Role)
	assert.EqualValues(t, 2048, gotBody.GenerationConfig["maxOutputTokens"])
}

func TestGeminiClient_TransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewGeminiClient("secret-key-123", ModelSpec{Model: "gemini-2.0-flash"}).WithBaseURL(base).Generate(context.Background(), testMessages)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrUpstreamUnavailable))
	assert.NotContains(t, err.Error(), "secret-key-123")
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr ErrorCode
	}{
		{"quota", 429, `{"error":{}}`, ErrRateLimited},
		{"no candidates", 200, `{"candidates":[]}`, ErrMalformedResponse},
		{"bad json", 200, `nope`, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGeminiClient("k", ModelSpec{Model: "g"}).WithBaseURL(srv.URL).Generate(context.Background(), testMessages)
			assert.True(t, HasCode(err, tt.wantErr), "got %v", err)
		})
	}
}

type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(context.Context, []prompt.Message) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestChain_FallsBackInOrder(t *testing.T) {
	first := &fakeProvider{name: "a", err: errors.New("down")}
	second := &fakeProvider{name: "b", reply: "  \n "}
	third := &fakeProvider{name: "c", reply: "<think>plan</think>\n\nAnswer"}
	fourth := &fakeProvider{name: "d", reply: "unused"}

	chain := NewChain(logging.Nop(), first, second, third, fourth)
	reply, model, err := chain.Generate(context.Background(), testMessages)

	require.NoError(t, err)
	assert.Equal(t, "Answer", reply)
	assert.Equal(t, "c", model)
	assert.Equal(t, []int{1, 1, 1, 0}, []int{first.calls, second.calls, third.calls, fourth.calls})
}

func TestChain_ReasoningOnlyReplyFallsThrough(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"closed block", "<think>Let me add up the spending...</think>"},
		{"truncated opener", "<think>Let me add up the spending and"},
		{"closer only", "Let me add up the spending.</think>  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := &fakeProvider{name: "a", reply: tt.reply}
			second := &fakeProvider{name: "b", reply: "Real answer"}

			reply, model, err := NewChain(logging.Nop(), first, second).Generate(context.Background(), testMessages)

			require.NoError(t, err)
			assert.Equal(t, "Real answer", reply)
			assert.Equal(t, "b", model)
			assert.Equal(t, 1, second.calls)
		})
	}
}

func TestChain_AllFail(t *testing.T) {
	upstream := errors.New("down")
	chain := NewChain(logging.Nop(),
		&fakeProvider{name: "a", err: upstream},
		&fakeProvider{name: "b", reply: ""})

	_, _, err := chain.Generate(context.Background(), testMessages)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrAllModelsFailed))
	assert.ErrorIs(t, err, upstream)
	assert.True(t, HasCode(errors.Unwrap(err), ErrEmptyResponse))
}

func TestChain_NotConfigured(t *testing.T) {
	chain := NewChain(logging.Nop())
	assert.False(t, chain.Configured())

	_, _, err := chain.Generate(context.Background(), testMessages)
	assert.True(t, HasCode(err, ErrNotConfigured))
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	p := &fakeProvider{name: "a", reply: "x"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewChain(logging.Nop(), p).Generate(ctx, testMessages)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls)
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := &config.Config{
		CFAccountID:     "acct",
		CFAPIToken:      "tok",
		WorkersAIModels: config.DefaultWorkersAIModels,
		GeminiAPIKey:    "g",
		GeminiModel:     "gemini-2.0-flash",
	}
	chain := NewChainFromConfig(cfg, logging.Nop())
	assert.Equal(t, append(append([]string{}, config.DefaultWorkersAIModels...), "gemini-2.0-flash"), chain.Models())

	assert.False(t, NewChainFromConfig(&config.Config{}, logging.Nop()).Configured())
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"<think>a\nb</think>ok", "ok"},
		{"<THINK>x</THINK> one <think>y</think> two ", "one  two"},
		{"<think>only</think>", EmptyReply},
		{"   ", EmptyReply},
		{"reasoning without opener</think>Answer", "Answer"},
		{"step one</think>draft</think>\nFinal", "Final"},
		{"<think>cut off by the token budget", EmptyReply},
		{"Answer first <think>then rambling", "Answer first"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanReply(tt.in))
	}
}
