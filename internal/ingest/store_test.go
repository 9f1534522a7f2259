package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fichas/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s := NewStore(filepath.Join(root, "uploads"), filepath.Join(root, "results"), slog.New(slog.DiscardHandler))
	s.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	require.NoError(t, s.EnsureDirs())
	return s
}

func TestSaveUploadStoresUnderTimestampedName(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveUpload("Ficha João 01.PNG", strings.NewReader("conteudo"))
	require.NoError(t, err)

	assert.Regexp(t, `^20240305_143000_[0-9a-f]{8}_Ficha_Joao_01\.png$`, saved.Name)
	assert.Equal(t, "png", saved.FileExt)
	assert.Equal(t, int64(8), saved.Size)
	assert.Len(t, saved.HashHex, 64)

	b, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "conteudo", string(b))
	assert.Equal(t, s.UploadDir, filepath.Dir(saved.Path))
}

func TestSaveUploadNamesDoNotCollide(t *testing.T) {
	s := newTestStore(t)
	a, err := s.SaveUpload("ficha.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := s.SaveUpload("ficha.jpg", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)
}

func TestSaveUploadRejectsExtension(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveUpload("test.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFileType))
	assert.Equal(t, "Arquivo inválido ou não permitido: test.txt", common.PublicMessage(err))

	entries, err := os.ReadDir(s.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestSaveUploadRemovesPartialFile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveUpload("ficha.png", failingReader{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorage))

	entries, err := os.ReadDir(s.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveResult(t *testing.T) {
	s := newTestStore(t)
	path, err := s.SaveResult("fichas_resultado_20240305_143000.xlsx", []byte("xlsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.ResultsDir, "fichas_resultado_20240305_143000.xlsx"), path)
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"ficha.png":            "ficha.png",
		"My cool movie.mov":    "My_cool_movie.mov",
		"../../../etc/passwd":  "etc_passwd",
		"São Paulo ação.jpg":   "Sao_Paulo_acao.jpg",
		"日本":                   "",
		"  .hidden  ":          "hidden",
		"a\\b\\c.jpeg":         "a_b_c.jpeg",
	}
	for in, want := range tests {
		assert.Equal(t, want, SecureFilename(in), in)
	}
}

func TestCollectImages(t *testing.T) {
	root := t.TempDir()
	must := func(p string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	must(filepath.Join(root, "b.png"))
	must(filepath.Join(root, "a.JPG"))
	must(filepath.Join(root, "notes.txt"))
	must(filepath.Join(root, "sub", "c.tiff"))
	must(filepath.Join(root, ".cache", "d.png"))

	got, stats, err := CollectImages([]string{root}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.JPG"),
		filepath.Join(root, "b.png"),
		filepath.Join(root, "sub", "c.tiff"),
	}, got)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(1), stats.Skipped)

	_, _, err = CollectImages(nil, false, nil)
	assert.Error(t, err)
}

func TestWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ficha.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "leia.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(root, "ficha.png"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("no event from initial scan")
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
