package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
)

// StampLayout prefixes stored upload and result names.
const StampLayout = "20060102_150405"

// Store keeps uploads and generated spreadsheets on the local filesystem.
// Files are never deleted by the service.
type Store struct {
	UploadDir  string
	ResultsDir string
	logger     *slog.Logger
	now        func() time.Time
}

func NewStore(uploadDir, resultsDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{UploadDir: uploadDir, ResultsDir: resultsDir, logger: logger, now: time.Now}
}

// EnsureDirs creates the upload and results directories.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.UploadDir, s.ResultsDir} {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return common.NewAppError("STORAGE_ERROR", "create directory "+dir, fmt.Errorf("%w: %w", common.ErrStorage, err))
	}
	return nil
}

// SaveUpload validates the extension of original and copies r into the upload
// directory under a unique, timestamped, sanitized name.
func (s *Store) SaveUpload(original string, r io.Reader) (SavedFile, error) {
	if err := CheckUploadName(original); err != nil {
		s.logger.Warn("ingest.upload.rejected", "file", original)
		return SavedFile{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(original))

	now := s.now()
	name := storedName(original, ext, now)
	path := filepath.Join(s.UploadDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return SavedFile{}, storageError(original, err)
	}

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(f, h), r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn("ingest.upload.cleanup_error", "path", path, "error", rmErr)
		}
		if copyErr == nil {
			copyErr = closeErr
		}
		return SavedFile{}, storageError(original, copyErr)
	}

	out := SavedFile{
		Name:       name,
		Original:   original,
		Path:       path,
		HashHex:    hex.EncodeToString(h.Sum(nil)),
		FileExt:    ext,
		Size:       n,
		UploadedAt: now.UTC(),
	}
	s.logger.Info("ingest.upload.saved", "file", original, "stored_as", name, "bytes", n, "sha256", out.HashHex)
	return out, nil
}

// CheckUploadName rejects names without an accepted image extension.
func CheckUploadName(original string) error {
	if strings.TrimSpace(original) == "" || !AllowedExt(filepath.Ext(original)) {
		return common.NewAppError("UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("Arquivo inválido ou não permitido: %s", original), common.ErrUnsupportedFileType)
	}
	return nil
}

// SaveResult writes a generated artifact into the results directory and returns its path.
func (s *Store) SaveResult(name string, data []byte) (string, error) {
	safe := SecureFilename(name)
	if safe == "" {
		safe = "resultado_" + s.now().Format(StampLayout)
	}
	path := filepath.Join(s.ResultsDir, safe)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", storageError(name, err)
	}
	s.logger.Info("ingest.result.saved", "path", path, "bytes", len(data))
	return path, nil
}

// storedName builds "<timestamp>_<random>_<secure stem>.<ext>".
func storedName(original, ext string, now time.Time) string {
	stem := SecureFilename(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if stem == "" {
		stem = "imagem"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s.%s", now.Format(StampLayout), suffix, stem, ext)
}

func storageError(file string, err error) error {
	return common.NewAppError("STORAGE_ERROR", fmt.Sprintf("Erro ao salvar %s", file), fmt.Errorf("%w: %w", common.ErrStorage, err))
}
