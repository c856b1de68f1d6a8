package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

func participant() chat.Participant {
	return chat.Participant{
		ID:          "gemini-flash",
		DisplayName: "Gemini Flash",
		Provider:    chat.ProviderGoogle,
		Model:       "gemini-2.0-flash",
	}
}

func credsWithKey(t *testing.T) *credentials.Store {
	t.Helper()
	store := credentials.NewStore()
	store.Set(chat.ProviderGoogle, "test-key")
	return store
}

func candidateBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSendBuildsGeminiRequest(t *testing.T) {
	var captured generateRequest
	var capturedURL string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedURL = r.URL.String()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(candidateBody("response text")))
	}))
	defer server.Close()

	adapter := New(credsWithKey(t), WithBaseURL(server.URL))
	history := []ai.Turn{
		{Role: ai.RoleUser, Content: "earlier question"},
		{Role: ai.RoleAssistant, Content: "earlier answer"},
	}

	content, err := adapter.Send(context.Background(), "new question", participant(), history)
	require.NoError(t, err)
	assert.Equal(t, "response text", content)

	assert.Contains(t, capturedURL, "/v1beta/models/gemini-2.0-flash:generateContent")
	assert.Contains(t, capturedURL, "key=test-key")

	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role, "assistant role must map to Gemini's 'model'")
	assert.Equal(t, "user", captured.Contents[2].Role)
	assert.Equal(t, "new question", captured.Contents[2].Parts[0].Text)

	assert.InDelta(t, 0.7, captured.GenerationConfig.Temperature, 0.001)
	assert.InDelta(t, 0.9, captured.GenerationConfig.TopP, 0.001)
	assert.Equal(t, 1000, captured.GenerationConfig.MaxOutputTokens)
}

func TestSendMissingCredentialSkipsNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	adapter := New(credentials.NewStore(), WithBaseURL(server.URL))
	_, err := adapter.Send(context.Background(), "hello", participant(), nil)

	aerr, ok := ai.AsAdapterError(err)
	require.True(t, ok)
	assert.Equal(t, ai.ErrMissingCredential, aerr.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "no HTTP call may be made without a credential")
}

func TestSendUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer server.Close()

	adapter := New(credsWithKey(t), WithBaseURL(server.URL))
	_, err := adapter.Send(context.Background(), "hello", participant(), nil)

	aerr, ok := ai.AsAdapterError(err)
	require.True(t, ok)
	assert.Equal(t, ai.ErrUnauthorized, aerr.Kind)
	assert.Equal(t, 401, aerr.Status)
	assert.Contains(t, aerr.Body, "API key not valid")
}

func TestSendEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	adapter := New(credsWithKey(t), WithBaseURL(server.URL))
	_, err := adapter.Send(context.Background(), "hello", participant(), nil)

	aerr, ok := ai.AsAdapterError(err)
	require.True(t, ok)
	assert.Equal(t, ai.ErrEmptyResponse, aerr.Kind)
}

func TestSendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(candidateBody("too late")))
	}))
	defer server.Close()

	adapter := New(credsWithKey(t),
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)

	started := time.Now()
	_, err := adapter.Send(context.Background(), "hello", participant(), nil)
	elapsed := time.Since(started)

	aerr, ok := ai.AsAdapterError(err)
	require.True(t, ok)
	assert.Equal(t, ai.ErrTimeout, aerr.Kind)
	assert.Less(t, elapsed, 150*time.Millisecond, "call must resolve at the timeout, not wait for the server")
}

func TestSendDefaultModel(t *testing.T) {
	var capturedURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedURL = r.URL.String()
		w.Write([]byte(candidateBody("ok")))
	}))
	defer server.Close()

	p := participant()
	p.Model = ""

	adapter := New(credsWithKey(t), WithBaseURL(server.URL))
	_, err := adapter.Send(context.Background(), "hello", p, nil)
	require.NoError(t, err)
	assert.Contains(t, capturedURL, chat.DefaultModel(chat.ProviderGoogle))
}
