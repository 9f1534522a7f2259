package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/llm"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ficha.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o644))
	return path
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func newTestClient(url string) *Client {
	c := NewClient(Config{APIKey: "sk-test", BaseURL: url, MaxRetries: 2, Timeout: 5 * time.Second}, slog.New(slog.DiscardHandler))
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestExtractImageSendsVisionRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(chatReply("Aqui está:\n```json\n{\"Cliente\": \"João\", \"valor total (R$)\": 150.5, \"Placa\": \"ABC1D23\", \"Obs\": \"x\"}\n```")))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t), FilenameHint: "ficha.jpg"})

	require.NoError(t, res.Err)
	assert.Equal(t, constants.MethodChatGPT, res.Method)
	assert.Equal(t, "João", res.Fields[constants.FieldCliente])
	assert.Equal(t, "150.5", res.Fields[constants.FieldValorTotal])
	assert.Equal(t, "ABC1D23", res.Fields[constants.FieldPlaca])
	assert.Len(t, res.Fields, len(constants.FieldNames()))
	assert.Contains(t, res.Diagnostic, "Aqui está")

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Contains(t, got.Messages[0].Content[0].Text, `"Valor Unitário": ""`)
	require.NotNil(t, got.Messages[0].Content[1].ImageURL)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestExtractImageUnparseableReplyYieldsEmptyFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("Não consegui ler a imagem.")))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t)})

	assert.NoError(t, res.Err)
	assert.True(t, res.Fields.IsEmpty())
	assert.Equal(t, "Não consegui ler a imagem.", res.Diagnostic)
}

func TestExtractImageRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_, _ = w.Write([]byte(chatReply(`{"Marca":"Fiat"}`)))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t)})

	require.NoError(t, res.Err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Fiat", res.Fields[constants.FieldMarca])
}

func TestExtractImageGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t)})

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, common.ErrExtraction))
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, res.Fields.IsEmpty())
	assert.Contains(t, res.Diagnostic, "502")
}

func TestExtractImageDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t)})

	require.Error(t, res.Err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, res.Diagnostic, "invalid key")
}

func TestExtractImageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, slog.New(slog.DiscardHandler))
	res := c.ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t)})

	require.Error(t, res.Err)
	assert.True(t, res.Fields.IsEmpty())
}

func TestExtractImageMissingFile(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	res := c.ExtractImage(context.Background(), llm.ImageRequest{Path: filepath.Join(t.TempDir(), "missing.png")})
	require.Error(t, res.Err)
	assert.True(t, res.Fields.IsEmpty())
}

func TestExtractImageWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := NewClient(Config{}, slog.New(slog.DiscardHandler))
	assert.False(t, c.Configured())

	res := c.ExtractImage(context.Background(), llm.ImageRequest{Path: writeImage(t)})
	require.Error(t, res.Err)
	assert.Contains(t, res.Diagnostic, "OPENAI_API_KEY")
}
