package correct

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, body string) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p := NewOpenAIProvider("test-key", "")
	p.url = srv.URL
	return p
}

func TestOpenAIGenerate(t *testing.T) {
	p := newOpenAIServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"Hello, world."}}]}`)

	got, err := p.Generate(context.Background(), "fix this")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", got)
}

func TestOpenAIGenerateErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, KindAuth},
		{"rate limited", http.StatusTooManyRequests, KindQuota},
		{"server error", http.StatusInternalServerError, KindNetwork},
		{"bad request", http.StatusBadRequest, KindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOpenAIServer(t, tt.status, `{"error":{"message":"nope"}}`)

			_, err := p.Generate(context.Background(), "fix this")
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	p := newOpenAIServer(t, http.StatusOK, `{"choices":[]}`)

	_, err := p.Generate(context.Background(), "fix this")
	require.Error(t, err)
	assert.Equal(t, KindEmptyResponse, KindOf(err))
}

func newSlowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerateClientTimeoutIsTransient(t *testing.T) {
	srv := newSlowServer(t, 300*time.Millisecond)

	p := NewOpenAIProvider("test-key", "")
	p.url = srv.URL
	p.client = &http.Client{Timeout: 50 * time.Millisecond}

	// The caller's deadline is still alive, so the attempt may be retried.
	_, err := p.Generate(context.Background(), "fix this")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, IsTransient(err))
}

func TestOpenAIGenerateContextDeadline(t *testing.T) {
	srv := newSlowServer(t, 300*time.Millisecond)

	p := NewOpenAIProvider("test-key", "")
	p.url = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, "fix this")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.False(t, IsTransient(err))
}

func TestOpenAIGenerateUnreachable(t *testing.T) {
	p := NewOpenAIProvider("test-key", "")
	p.url = "http://127.0.0.1:1/v1/chat/completions"

	_, err := p.Generate(context.Background(), "fix this")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}
