package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"legalmind/internal/domain"
	"legalmind/internal/infra/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_LLM_KEY", "sk-test")
	return NewOpenAIProvider(config.ProviderConfig{
		Name:      "test",
		BaseURL:   srv.URL,
		APIKeyEnv: "TEST_LLM_KEY",
		Model:     "test-model",
		Timeout:   5 * time.Second,
	}, testLogger())
}

func TestGenerateParsesResponse(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openaiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.Equal(t, domain.RoleSystem, req.Messages[0].Role)

		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{
				Role:    domain.RoleAssistant,
				Content: "hello",
				ToolCalls: []openaiToolCall{{
					ID:       "call_1",
					Type:     "function",
					Function: openaiToolCallFunction{Name: "web_search", Arguments: `{"query":"x"}`},
				}},
			}}},
			Usage: openaiUsage{PromptTokens: 12, CompletionTokens: 7},
		})
	})

	resp, err := p.Generate(context.Background(), domain.GenerateRequest{
		SystemPrompt: "You are a test.",
		Messages:     []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	require.Equal(t, "web_search", resp.ToolCalls[0].Name)
	require.Equal(t, domain.TokenUsage{Input: 12, Output: 7}, resp.Usage)
}

func TestGenerateWithoutCredentials(t *testing.T) {
	p := NewOpenAIProvider(config.ProviderConfig{Name: "test", Model: "m"}, testLogger())
	_, err := p.Generate(context.Background(), domain.GenerateRequest{})
	require.ErrorIs(t, err, domain.ErrNoCredentials)
}

func TestGenerateMapsHTTPStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrProviderAuth},
		{http.StatusForbidden, domain.ErrProviderAuth},
		{http.StatusPaymentRequired, domain.ErrProviderQuota},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusInternalServerError, domain.ErrProviderError},
		{http.StatusBadGateway, domain.ErrProviderError},
	}
	for _, tc := range cases {
		p := testProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := p.Generate(context.Background(), domain.GenerateRequest{})
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestGenerateObjectUsesIntentModel(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		require.NotNil(t, req.ResponseFormat)
		require.Equal(t, "json_object", req.ResponseFormat.Type)

		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{{Message: openaiMessage{Content: `{"intent": "case_analysis"}`}}},
		})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("TEST_LLM_KEY", "sk-test")
	p := NewOpenAIProvider(config.ProviderConfig{
		Name:        "test",
		BaseURL:     srv.URL,
		APIKeyEnv:   "TEST_LLM_KEY",
		Model:       "big-model",
		IntentModel: "small-model",
	}, testLogger())

	var out struct {
		Intent string `json:"intent"`
	}
	require.NoError(t, p.GenerateObject(context.Background(), "sys", "prompt", &out))
	require.Equal(t, "small-model", gotModel)
	require.Equal(t, "case_analysis", out.Intent)
}

func TestToRequestToolResultCarriesCallID(t *testing.T) {
	p := NewOpenAIProvider(config.ProviderConfig{Name: "test", Model: "m"}, testLogger())

	req := p.toRequest(domain.GenerateRequest{
		Messages: []domain.Message{
			{
				Role:      domain.RoleAssistant,
				ToolCalls: []domain.ToolCall{{ID: "call_9", Name: "web_search", Arguments: json.RawMessage(`{}`)}},
			},
			{
				Role:      domain.RoleTool,
				Content:   "results",
				ToolCalls: []domain.ToolCall{{ID: "call_9"}},
			},
		},
	}, false)

	require.Len(t, req.Messages, 2)
	assistant := req.Messages[0]
	require.Len(t, assistant.ToolCalls, 1)
	require.Equal(t, "call_9", assistant.ToolCalls[0].ID)
	require.Empty(t, assistant.ToolCallID)

	toolMsg := req.Messages[1]
	require.Equal(t, "call_9", toolMsg.ToolCallID)
	require.Empty(t, toolMsg.ToolCalls)
}

func TestParseSSEStream(t *testing.T) {
	body := strings.Join([]string{
		`: keepalive comment`,
		`data: {"text": "one"}`,
		``,
		`data: not json at all`,
		`data: {"text": "two"}`,
		`data: [DONE]`,
	}, "\n")

	ch := parseSSEStream(context.Background(), io.NopCloser(strings.NewReader(body)), func(data []byte) (*domain.StreamDelta, error) {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &domain.StreamDelta{Text: payload.Text}, nil
	})

	var got []domain.StreamDelta
	for d := range ch {
		got = append(got, d)
	}

	require.Len(t, got, 3)
	require.Equal(t, "one", got[0].Text)
	require.Equal(t, "two", got[1].Text)
	require.True(t, got[2].Done)
}

func TestParseSSEStreamStopsOnDoneDelta(t *testing.T) {
	body := strings.Join([]string{
		`data: {"done": true}`,
		`data: {"text": "never delivered"}`,
	}, "\n")

	ch := parseSSEStream(context.Background(), io.NopCloser(strings.NewReader(body)), func(data []byte) (*domain.StreamDelta, error) {
		var payload struct {
			Text string `json:"text"`
			Done bool   `json:"done"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &domain.StreamDelta{Text: payload.Text, Done: payload.Done}, nil
	})

	var got []domain.StreamDelta
	for d := range ch {
		got = append(got, d)
	}
	require.Len(t, got, 1)
	require.True(t, got[0].Done)
}

type failingProvider struct {
	calls int
	err   error
}

func (f *failingProvider) Name() string { return "failing" }

func (f *failingProvider) Generate(context.Context, domain.GenerateRequest) (*domain.GenerateResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.GenerateResponse{Text: "ok"}, nil
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingProvider{err: errors.New("boom")}
	p := NewCircuitBreakerProvider(inner, CircuitBreakerConfig{MaxFailures: 3}, testLogger())

	for i := 0; i < 3; i++ {
		_, err := p.Generate(context.Background(), domain.GenerateRequest{})
		require.Error(t, err)
	}
	require.Equal(t, 3, inner.calls)

	// Circuit is open now; the provider must not be reached.
	_, err := p.Generate(context.Background(), domain.GenerateRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "circuit open")
	require.Equal(t, 3, inner.calls)
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	inner := &failingProvider{}
	p := NewCircuitBreakerProvider(inner, CircuitBreakerConfig{}, testLogger())

	resp, err := p.Generate(context.Background(), domain.GenerateRequest{})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Text)
}
