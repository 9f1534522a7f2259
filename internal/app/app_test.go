package app

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fichas/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	root := t.TempDir()
	cfg := common.DefaultConfig()
	cfg.Storage.UploadDir = filepath.Join(root, "uploads")
	cfg.Storage.ResultsDir = filepath.Join(root, "results")
	cfg.Storage.ArtifactCacheDir = filepath.Join(root, "tmp")
	return cfg
}

func TestNewWithoutAPIKeyLeavesVisionNil(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.APIKey = ""

	a := New(cfg, slog.New(slog.DiscardHandler))
	assert.Nil(t, a.Vision)
	assert.Nil(t, a.Processor.Vision)
	require.NoError(t, a.EnsureDirs())
	assert.DirExists(t, cfg.Storage.UploadDir)
	assert.DirExists(t, cfg.Storage.ResultsDir)
	assert.DirExists(t, cfg.Storage.ArtifactCacheDir)
}

func TestNewWithAPIKeyWiresVision(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.APIKey = "sk-test"

	a := New(cfg, slog.New(slog.DiscardHandler))
	assert.NotNil(t, a.Vision)
	assert.NotNil(t, a.HTTPServer().Handler())
}

func TestOCRConfigMapsSections(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR.Lang = "por+eng"
	cfg.OCR.PSM = 6

	oc := OCRConfig(cfg)
	assert.Equal(t, "por+eng", oc.TesseractLang)
	assert.Equal(t, 6, oc.PSM)
	assert.Equal(t, cfg.Storage.ArtifactCacheDir, oc.ArtifactCacheDir)
}
