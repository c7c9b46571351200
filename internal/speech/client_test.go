package speech_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/narration-service/internal/speech"
)

func TestSynthesize_Success(t *testing.T) {
	t.Parallel()

	audio := []byte{0xFF, 0xFB, 0x90, 0x00, 0x01, 0x02}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generate/speech", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req speech.Request

		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "你好", req.Text)
		assert.Equal(t, "zh-CN-XiaoxiaoNeural", req.Voice)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	client := speech.NewClient(server.URL, 5*time.Second)

	data, err := client.Synthesize(context.Background(), "你好", "zh-CN-XiaoxiaoNeural")
	require.NoError(t, err)
	assert.Equal(t, audio, data)
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()

	client := speech.NewClient("http://localhost:1", time.Second)

	_, err := client.Synthesize(context.Background(), "", "some-voice")
	require.ErrorIs(t, err, speech.ErrTextEmpty)
}

func TestSynthesize_EmptyVoice(t *testing.T) {
	t.Parallel()

	client := speech.NewClient("http://localhost:1", time.Second)

	_, err := client.Synthesize(context.Background(), "hello", "")
	require.ErrorIs(t, err, speech.ErrVoiceEmpty)
}

func TestSynthesize_StructuredError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"unsupported voice","error_code":"VOICE_NOT_FOUND"}`))
	}))
	defer server.Close()

	client := speech.NewClient(server.URL, 5*time.Second)

	_, err := client.Synthesize(context.Background(), "hello", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported voice")
	assert.Contains(t, err.Error(), "VOICE_NOT_FOUND")
}

func TestSynthesize_UnexpectedContentType(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("not audio"))
	}))
	defer server.Close()

	client := speech.NewClient(server.URL, 5*time.Second)

	_, err := client.Synthesize(context.Background(), "hello", "voice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected content type")
}

func TestSynthesize_EmptyAudio(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
	}))
	defer server.Close()

	client := speech.NewClient(server.URL, 5*time.Second)

	_, err := client.Synthesize(context.Background(), "hello", "voice")
	require.ErrorIs(t, err, speech.ErrReceivedEmptyAudio)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)

			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := speech.NewClient(server.URL, 5*time.Second)

	err := client.HealthCheck(context.Background())
	require.NoError(t, err)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := speech.NewClient(server.URL, 5*time.Second)

	err := client.HealthCheck(context.Background())
	require.Error(t, err)
}
