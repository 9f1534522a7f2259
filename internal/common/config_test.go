package common

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.HTTPAddr)
	assert.Equal(t, "./uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "./results", cfg.Storage.ResultsDir)
	assert.Equal(t, "por", cfg.OCR.Lang)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.False(t, cfg.VisionEnabled())
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigTOMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichas.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
http_addr = ":7000"
max_upload_mb = 8

[ocr]
engine = "gosseract"
psm = 6

[llm]
timeout_seconds = 10
`), 0o600))
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("OPENAI_API_KEY", "sk-abc")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr, "env wins over file")
	assert.Equal(t, 8, cfg.Server.MaxUploadMB)
	assert.Equal(t, "gosseract", cfg.OCR.Engine)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, 10*time.Second, cfg.LLMTimeout())
	assert.True(t, cfg.VisionEnabled())
	assert.NotContains(t, cfg.String(), "sk-abc")
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  upload_dir: /data/in
  results_dir: /data/out
log:
  level: debug
`), 0o600))
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/in", cfg.Storage.UploadDir)
	assert.Equal(t, "/data/out", cfg.Storage.ResultsDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichas.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCR.Engine = "easyocr"
	cfg.Server.MaxUploadMB = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "OCR_ENGINE")
	assert.Contains(t, err.Error(), "MAX_UPLOAD_MB")
}

func TestHTTPStatusAndPublicMessage(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(InvalidInput("x")))
	assert.Equal(t, 400, HTTPStatus(WrapError(ErrBatchExhausted, "batch")))
	assert.Equal(t, 500, HTTPStatus(ExtractionError(os.ErrNotExist)))
	assert.Equal(t, "Dados não fornecidos", PublicMessage(InvalidInput("Dados não fornecidos")))
	assert.ErrorIs(t, ExtractionError(os.ErrNotExist), os.ErrNotExist)
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("dropped")
	logger.Warn("kept", "k", 1)
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
}
