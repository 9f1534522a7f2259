// Package app wires the extraction pipeline from a loaded configuration. Both
// the HTTP daemon and the CLI build their components here.
package app

import (
	"log/slog"

	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/export"
	"github.com/joseph-ayodele/fichas/internal/heuristics"
	"github.com/joseph-ayodele/fichas/internal/ingest"
	"github.com/joseph-ayodele/fichas/internal/llm"
	"github.com/joseph-ayodele/fichas/internal/llm/openai"
	"github.com/joseph-ayodele/fichas/internal/ocr"
	"github.com/joseph-ayodele/fichas/internal/pipeline"
	"github.com/joseph-ayodele/fichas/internal/server"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Store     *ingest.Store
	OCR       *ocr.Extractor
	Vision    llm.VisionExtractor // nil without an API key
	Processor *pipeline.Processor
	Batch     *pipeline.BatchProcessor
	Exporter  *export.Service
}

// New builds every component. It does not touch the filesystem; call
// EnsureDirs before serving.
func New(cfg *common.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	store := ingest.NewStore(cfg.Storage.UploadDir, cfg.Storage.ResultsDir, logger)

	extractor := ocr.NewExtractor(OCRConfig(cfg), logger)
	ocrStage := pipeline.NewOCRStage(extractor, heuristics.NewParser(), logger)

	var vision llm.VisionExtractor
	if cfg.VisionEnabled() {
		vision = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLMTimeout(),
			MaxRetries:  cfg.LLM.MaxRetries,
		}, logger)
		logger.Info("app.vision.enabled", "model", cfg.LLM.Model)
	} else {
		logger.Warn("app.vision.disabled", "reason", "OPENAI_API_KEY not configured")
	}

	proc := pipeline.NewProcessor(logger, vision, ocrStage)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		OCR:       extractor,
		Vision:    vision,
		Processor: proc,
		Batch:     pipeline.NewBatchProcessor(logger, store, proc),
		Exporter:  export.NewService(logger),
	}
}

// OCRConfig maps the OCR section of the configuration onto the extractor's.
func OCRConfig(cfg *common.Config) ocr.Config {
	return ocr.Config{
		Engine:              cfg.OCR.Engine,
		Tesseract:           cfg.OCR.TesseractBin,
		TesseractLang:       cfg.OCR.Lang,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: cfg.OCR.TSVConfidence,
		PSM:                 cfg.OCR.PSM,
		ArtifactCacheDir:    cfg.Storage.ArtifactCacheDir,
	}
}

// EnsureDirs creates the upload, results and artifact directories.
func (a *App) EnsureDirs() error {
	if err := a.Store.EnsureDirs(); err != nil {
		return err
	}
	return ingest.EnsureDir(a.Config.Storage.ArtifactCacheDir)
}

// HTTPServer returns the HTTP API over this app's pipeline.
func (a *App) HTTPServer() *server.Server {
	return server.NewServer(a.Batch, a.Exporter, a.Store, server.Options{
		MaxUploadBytes: a.Config.MaxUploadBytes(),
		RequestTimeout: a.Config.RequestTimeout(),
	}, a.Logger)
}
