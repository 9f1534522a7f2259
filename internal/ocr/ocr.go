package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/fichas/constants"
)

type Config struct {
	Engine    string // "tesseract" (default) | "gosseract"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por"
	TessdataDir   string

	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	ArtifactCacheDir string // where preprocessed PNGs are written for the engine
	KeepArtifacts    bool
}

type ExtractionResult struct {
	Text       string // engine output, untouched
	Normalized string // cleaned copy used for confidence scoring and logs
	Method     string // always "image-ocr"
	Engine     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	engine Engine
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return newExtractor(cfg, execRunner{logger: logger}, logger)
}

func newExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if cfg.Engine == "" {
		cfg.Engine = EngineTesseract
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	factory, ok := engines[cfg.Engine]
	if !ok {
		logger.Warn("ocr.engine.unavailable", "engine", cfg.Engine, "fallback", EngineTesseract, "available", Engines())
		cfg.Engine = EngineTesseract
		factory = engines[EngineTesseract]
	}
	return &Extractor{cfg: cfg, engine: factory(cfg, runner, logger), logger: logger}
}

// Extract preprocesses the image at path and runs the configured OCR engine on it.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	res := ExtractionResult{Method: "image-ocr", Engine: e.engine.Name(), Language: e.cfg.TesseractLang}

	if !constants.IsAllowedExt(ext) {
		e.logger.Error("ocr.extract.unsupported_extension", "path", path, "ext", ext)
		return res, fmt.Errorf("unsupported extension: %q", ext)
	}
	e.logger.Debug("ocr.extract.start", "path", path, "engine", res.Engine, "lang", res.Language)

	img, err := PreprocessFile(path)
	if err != nil {
		e.logger.Error("ocr.preprocess.failed", "path", path, "error", err)
		res.Duration = time.Since(start)
		return res, fmt.Errorf("preprocess %s: %w", filepath.Base(path), err)
	}

	artifact, cleanup, err := e.writeArtifact(img)
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}
	defer cleanup()

	rec, err := e.engine.Recognize(ctx, artifact)
	res.Warnings = rec.Warnings
	if err != nil {
		e.logger.Error("ocr.extract.failed", "path", path, "engine", res.Engine, "error", err)
		res.Duration = time.Since(start)
		return res, err
	}

	res.Text = rec.Text
	res.Normalized = Normalize(rec.Text)
	res.Confidence = blendConfidence(rec.Confidence, heuristicConfidence(res.Normalized))
	res.Duration = time.Since(start)

	e.logger.Info("ocr.extract.ok",
		"path", path,
		"engine", res.Engine,
		"chars", len(res.Normalized),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// writeArtifact stores the preprocessed image as a PNG the engine can read.
func (e *Extractor) writeArtifact(img image.Image) (string, func(), error) {
	if err := os.MkdirAll(e.cfg.ArtifactCacheDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("artifact dir: %w", err)
	}
	f, err := os.CreateTemp(e.cfg.ArtifactCacheDir, "ocr-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("artifact file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", nil, fmt.Errorf("artifact file: %w", err)
	}

	cleanup := func() {
		if e.cfg.KeepArtifacts {
			return
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("ocr.artifact.cleanup_error", "path", path, "error", err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write artifact: %w", err)
	}
	return path, cleanup, nil
}
